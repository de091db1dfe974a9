package compiler

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"patito/internal/lexer"
	"patito/internal/memory"
	"patito/internal/parser"
	"patito/internal/quads"
	"patito/internal/semantics"
)

// Artifacts is everything a successful compilation produces: the parse tree,
// the populated function directory with assigned addresses, the virtual
// memory (with the interned constant table), and the quadruple program.
type Artifacts struct {
	Tree      *parser.Program
	Directory *semantics.FunctionDirectory
	Memory    *memory.VirtualMemory
	Program   *quads.Program
}

// Pipeline runs the phases in order: scan, parse, declaration pass, address
// assignment, quadruple generation. The first failing phase aborts the run.
type Pipeline struct {
	log hclog.Logger
}

func NewPipeline(log hclog.Logger) *Pipeline {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Pipeline{log: log.Named("pipeline")}
}

func (p *Pipeline) Compile(source string) (*Artifacts, error) {
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		return nil, errors.Wrap(err, "lexical analysis")
	}
	p.log.Debug("scanned source", "tokens", len(tokens))

	tree, err := parser.NewParser(tokens).Parse()
	if err != nil {
		return nil, errors.Wrap(err, "syntax analysis")
	}
	p.log.Debug("parsed program", "name", tree.Name, "functions", len(tree.Functions))

	dir, err := semantics.NewSemanticBuilder().Build(tree)
	if err != nil {
		return nil, errors.Wrap(err, "semantic analysis")
	}
	p.log.Debug("built function directory",
		"globals", dir.GlobalVariables.Len(), "functions", len(dir.Functions()))

	vmem := memory.NewVirtualMemory()
	if err := memory.AssignVariableAddresses(dir, vmem); err != nil {
		return nil, errors.Wrap(err, "address assignment")
	}

	program, err := NewGenerator(dir, vmem, p.log).Generate(tree)
	if err != nil {
		return nil, errors.Wrap(err, "intermediate code generation")
	}
	p.log.Debug("generated intermediate code", "quadruples", program.Len())

	return &Artifacts{Tree: tree, Directory: dir, Memory: vmem, Program: program}, nil
}

// Compile runs the whole pipeline with logging disabled.
func Compile(source string) (*Artifacts, error) {
	return NewPipeline(nil).Compile(source)
}
