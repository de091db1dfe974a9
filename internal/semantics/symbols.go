package semantics

import (
	perr "patito/internal/errors"
)

// NoAddress marks a variable whose virtual address has not been assigned yet.
const NoAddress = -1

// VariableInfo is one entry of a variable table.
type VariableInfo struct {
	Name              string
	Type              Type
	IsParameter       bool
	ParameterPosition int // 0-based; -1 when not a parameter
	VirtualAddress    int // NoAddress until the allocation pass runs
}

// VariableTable maps names to variable entries within one scope. Insertion
// order is preserved so address assignment and listings are deterministic.
type VariableTable struct {
	entries map[string]*VariableInfo
	order   []string
}

func NewVariableTable() *VariableTable {
	return &VariableTable{entries: make(map[string]*VariableInfo)}
}

func (t *VariableTable) Add(name string, varType Type, isParameter bool, position int) error {
	if _, exists := t.entries[name]; exists {
		return perr.NewCompile(perr.DuplicateVariable, 0,
			"variable '%s' already declared in this scope", name)
	}
	if varType != INT && varType != FLOAT {
		return perr.NewCompile(perr.InvalidType, 0,
			"unsupported variable type: %s", varType)
	}
	t.entries[name] = &VariableInfo{
		Name:              name,
		Type:              varType,
		IsParameter:       isParameter,
		ParameterPosition: position,
		VirtualAddress:    NoAddress,
	}
	t.order = append(t.order, name)
	return nil
}

func (t *VariableTable) Get(name string) (*VariableInfo, error) {
	info, ok := t.entries[name]
	if !ok {
		return nil, perr.NewCompile(perr.UnknownVariable, 0,
			"variable '%s' not found in this scope", name)
	}
	return info, nil
}

func (t *VariableTable) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

func (t *VariableTable) Len() int {
	return len(t.order)
}

// Entries returns the variable entries in declaration order.
func (t *VariableTable) Entries() []*VariableInfo {
	out := make([]*VariableInfo, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.entries[name])
	}
	return out
}

// FunctionInfo is one entry of the function directory. Parameters appear
// both in ParameterList (calling-convention order) and in LocalVariables;
// both views share the same entry.
type FunctionInfo struct {
	Name           string
	ReturnType     Type
	ParameterList  []*VariableInfo
	LocalVariables *VariableTable
}

func (f *FunctionInfo) AddParameter(name string, paramType Type) error {
	for _, existing := range f.ParameterList {
		if existing.Name == name {
			return perr.NewCompile(perr.DuplicateParameter, 0,
				"parameter '%s' already declared in function '%s'", name, f.Name)
		}
	}

	position := len(f.ParameterList)
	if err := f.LocalVariables.Add(name, paramType, true, position); err != nil {
		return err
	}
	info, err := f.LocalVariables.Get(name)
	if err != nil {
		return err
	}
	f.ParameterList = append(f.ParameterList, info)
	return nil
}

func (f *FunctionInfo) AddLocalVariable(name string, varType Type) error {
	return f.LocalVariables.Add(name, varType, false, -1)
}

// FunctionDirectory holds the global variable table and every declared
// function, in declaration order.
type FunctionDirectory struct {
	GlobalVariables *VariableTable
	functions       map[string]*FunctionInfo
	order           []string
}

func NewFunctionDirectory() *FunctionDirectory {
	return &FunctionDirectory{
		GlobalVariables: NewVariableTable(),
		functions:       make(map[string]*FunctionInfo),
	}
}

func (d *FunctionDirectory) AddFunction(name string, returnType Type) (*FunctionInfo, error) {
	if _, exists := d.functions[name]; exists {
		return nil, perr.NewCompile(perr.DuplicateFunction, 0,
			"function '%s' already declared", name)
	}
	if returnType != VOID && returnType != INT && returnType != FLOAT {
		return nil, perr.NewCompile(perr.InvalidType, 0,
			"unsupported return type for function '%s': %s", name, returnType)
	}
	info := &FunctionInfo{
		Name:           name,
		ReturnType:     returnType,
		LocalVariables: NewVariableTable(),
	}
	d.functions[name] = info
	d.order = append(d.order, name)
	return info, nil
}

func (d *FunctionDirectory) GetFunction(name string) (*FunctionInfo, error) {
	info, ok := d.functions[name]
	if !ok {
		return nil, perr.NewCompile(perr.UnknownFunction, 0,
			"function '%s' has not been declared", name)
	}
	return info, nil
}

func (d *FunctionDirectory) AddParameterTo(function, name string, paramType Type) error {
	info, err := d.GetFunction(function)
	if err != nil {
		return err
	}
	return info.AddParameter(name, paramType)
}

func (d *FunctionDirectory) AddLocalVariableTo(function, name string, varType Type) error {
	info, err := d.GetFunction(function)
	if err != nil {
		return err
	}
	return info.AddLocalVariable(name, varType)
}

func (d *FunctionDirectory) AddGlobalVariable(name string, varType Type) error {
	return d.GlobalVariables.Add(name, varType, false, -1)
}

// Functions returns the function entries in declaration order.
func (d *FunctionDirectory) Functions() []*FunctionInfo {
	out := make([]*FunctionInfo, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.functions[name])
	}
	return out
}

// LookupVariable resolves a name: locals of the current function first (when
// inside one), then globals. currentFunction is "" in the main body.
func (d *FunctionDirectory) LookupVariable(name, currentFunction string) (*VariableInfo, error) {
	if currentFunction != "" {
		info, err := d.GetFunction(currentFunction)
		if err != nil {
			return nil, err
		}
		if info.LocalVariables.Contains(name) {
			return info.LocalVariables.Get(name)
		}
	}
	if d.GlobalVariables.Contains(name) {
		return d.GlobalVariables.Get(name)
	}
	return nil, perr.NewCompile(perr.UnknownVariable, 0,
		"variable '%s' is not declared in function scope or globally", name)
}
