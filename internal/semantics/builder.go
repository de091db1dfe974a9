package semantics

import (
	perr "patito/internal/errors"
	"patito/internal/parser"
)

// SemanticBuilder runs the declaration pass: it populates the function
// directory from the parse tree. It does not emit intermediate code and does
// not type-check expressions; that happens during generation.
type SemanticBuilder struct {
	dir *FunctionDirectory
}

func NewSemanticBuilder() *SemanticBuilder {
	return &SemanticBuilder{dir: NewFunctionDirectory()}
}

// Build registers globals, then each function with its return type,
// parameters in declared order, and local variables. The first duplicate or
// invalid declaration aborts the pass.
func (b *SemanticBuilder) Build(prog *parser.Program) (*FunctionDirectory, error) {
	for _, decl := range prog.Globals {
		declType, err := typeFromName(decl.Type, decl.Line)
		if err != nil {
			return nil, err
		}
		for _, name := range decl.Names {
			if err := at(b.dir.AddGlobalVariable(name, declType), decl.Line); err != nil {
				return nil, err
			}
		}
	}

	for _, fn := range prog.Functions {
		returnType, err := returnTypeFromName(fn.ReturnType, fn.Line)
		if err != nil {
			return nil, err
		}
		if _, err := b.dir.AddFunction(fn.Name, returnType); err != nil {
			return nil, at(err, fn.Line)
		}

		for _, param := range fn.Params {
			paramType, err := typeFromName(param.Type, param.Line)
			if err != nil {
				return nil, err
			}
			if err := b.dir.AddParameterTo(fn.Name, param.Name, paramType); err != nil {
				return nil, at(err, param.Line)
			}
		}

		for _, decl := range fn.Locals {
			declType, err := typeFromName(decl.Type, decl.Line)
			if err != nil {
				return nil, err
			}
			for _, name := range decl.Names {
				if err := at(b.dir.AddLocalVariableTo(fn.Name, name, declType), decl.Line); err != nil {
					return nil, err
				}
			}
		}
	}

	return b.dir, nil
}

func typeFromName(name string, line int) (Type, error) {
	switch name {
	case parser.TypeInt:
		return INT, nil
	case parser.TypeFloat:
		return FLOAT, nil
	}
	return "", perr.NewCompile(perr.InvalidType, line, "unsupported declared type: %s", name)
}

func returnTypeFromName(name string, line int) (Type, error) {
	if name == parser.TypeVoid {
		return VOID, nil
	}
	return typeFromName(name, line)
}

// at fills in the source line on a location-less compile error.
func at(err error, line int) error {
	if ce, ok := err.(*perr.CompileError); ok && ce.Line == 0 {
		ce.Line = line
	}
	return err
}
