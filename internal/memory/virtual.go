package memory

import (
	"fmt"

	"patito/internal/semantics"
)

// KindOf maps a language type to its storage kind.
func KindOf(t semantics.Type) (Kind, error) {
	switch t {
	case semantics.INT:
		return KindInt, nil
	case semantics.FLOAT:
		return KindFloat, nil
	case semantics.BOOL:
		return KindBool, nil
	}
	return 0, fmt.Errorf("type %s has no storage kind", t)
}

type constantKey struct {
	lexeme string
	kind   Kind
}

// ConstantEntry is one interned constant, for listings and for loading the
// CONSTANT segment before execution.
type ConstantEntry struct {
	Lexeme  string
	Kind    Kind
	Address int
}

// ConstantTable interns (lexeme, kind) pairs: the same pair always maps to
// the same address. First-encounter order is preserved.
type ConstantTable struct {
	table map[constantKey]int
	order []constantKey
}

func NewConstantTable() *ConstantTable {
	return &ConstantTable{table: make(map[constantKey]int)}
}

func (t *ConstantTable) Len() int {
	return len(t.order)
}

// Entries returns the interned constants in first-encounter order.
func (t *ConstantTable) Entries() []ConstantEntry {
	out := make([]ConstantEntry, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, ConstantEntry{Lexeme: key.lexeme, Kind: key.kind, Address: t.table[key]})
	}
	return out
}

// VirtualMemory hands out virtual addresses with one monotonic counter per
// (segment, kind) pair. There is no deallocation.
type VirtualMemory struct {
	counters  map[int]int // range base -> next free address
	constants *ConstantTable
	returns   map[string]int // function name -> return slot address
}

func NewVirtualMemory() *VirtualMemory {
	return &VirtualMemory{
		counters:  make(map[int]int),
		constants: NewConstantTable(),
		returns:   make(map[string]int),
	}
}

func (m *VirtualMemory) allocate(base int) (int, error) {
	next, ok := m.counters[base]
	if !ok {
		next = base
	}
	if next >= base+SegmentSize {
		segment, kind, _, _ := Decode(base)
		return 0, fmt.Errorf("%s %s segment exhausted (%d addresses)", segment, kind, SegmentSize)
	}
	m.counters[base] = next + 1
	return next, nil
}

func (m *VirtualMemory) AllocateGlobal(t semantics.Type) (int, error) {
	kind, err := KindOf(t)
	if err != nil {
		return 0, err
	}
	return m.allocate([...]int{GlobalIntStart, GlobalFloatStart, GlobalBoolStart}[kind])
}

func (m *VirtualMemory) AllocateLocal(t semantics.Type) (int, error) {
	kind, err := KindOf(t)
	if err != nil {
		return 0, err
	}
	return m.allocate([...]int{LocalIntStart, LocalFloatStart, LocalBoolStart}[kind])
}

func (m *VirtualMemory) AllocateTemporary(t semantics.Type) (int, error) {
	kind, err := KindOf(t)
	if err != nil {
		return 0, err
	}
	return m.allocate([...]int{TempIntStart, TempFloatStart, TempBoolStart}[kind])
}

// AllocateConstant interns the lexeme, allocating a fresh address only on
// first encounter.
func (m *VirtualMemory) AllocateConstant(lexeme string, kind Kind) (int, error) {
	key := constantKey{lexeme: lexeme, kind: kind}
	if address, ok := m.constants.table[key]; ok {
		return address, nil
	}

	var base int
	switch kind {
	case KindInt:
		base = ConstIntStart
	case KindFloat:
		base = ConstFloatStart
	default:
		// Everything else shares the string range.
		base = ConstStringStart
	}
	address, err := m.allocate(base)
	if err != nil {
		return 0, err
	}
	m.constants.table[key] = address
	m.constants.order = append(m.constants.order, key)
	return address, nil
}

// Constants exposes the interning table for listings and VM loading.
func (m *VirtualMemory) Constants() *ConstantTable {
	return m.constants
}

// AllocateFunctionReturn reserves the global slot that carries a typed
// function's value back to callers. Idempotent per function; VOID functions
// have no return slot.
func (m *VirtualMemory) AllocateFunctionReturn(name string, returnType semantics.Type) (int, error) {
	if returnType == semantics.VOID {
		return 0, fmt.Errorf("void function '%s' cannot have a return slot", name)
	}
	if address, ok := m.returns[name]; ok {
		return address, nil
	}
	address, err := m.AllocateGlobal(returnType)
	if err != nil {
		return 0, err
	}
	m.returns[name] = address
	return address, nil
}

func (m *VirtualMemory) GetFunctionReturnAddress(name string) (int, error) {
	address, ok := m.returns[name]
	if !ok {
		return 0, fmt.Errorf("no return slot reserved for function '%s'", name)
	}
	return address, nil
}

// AssignVariableAddresses walks the directory and gives every global, every
// function local (parameters included), and every typed function's return
// slot a virtual address. Idempotent: already-assigned entries are left
// untouched. Quadruple generation requires this pass to have run.
func AssignVariableAddresses(dir *semantics.FunctionDirectory, m *VirtualMemory) error {
	for _, info := range dir.GlobalVariables.Entries() {
		if info.VirtualAddress == semantics.NoAddress {
			address, err := m.AllocateGlobal(info.Type)
			if err != nil {
				return err
			}
			info.VirtualAddress = address
		}
	}

	for _, fn := range dir.Functions() {
		for _, info := range fn.LocalVariables.Entries() {
			if info.VirtualAddress == semantics.NoAddress {
				address, err := m.AllocateLocal(info.Type)
				if err != nil {
					return err
				}
				info.VirtualAddress = address
			}
		}

		if fn.ReturnType != semantics.VOID {
			if _, err := m.AllocateFunctionReturn(fn.Name, fn.ReturnType); err != nil {
				return err
			}
		}
	}

	return nil
}
