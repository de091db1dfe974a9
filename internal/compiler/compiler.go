// internal/compiler/compiler.go
package compiler

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	perr "patito/internal/errors"
	"patito/internal/memory"
	"patito/internal/parser"
	"patito/internal/quads"
	"patito/internal/semantics"
)

// exprResult is the outcome of lowering a subexpression: the virtual address
// holding the value and its type.
type exprResult struct {
	address int
	typ     semantics.Type
}

// Generator walks the parse tree and emits the quadruple program. It reads
// the function directory only; every declaration and address assignment must
// already have happened.
type Generator struct {
	dir  *semantics.FunctionDirectory
	vmem *memory.VirtualMemory
	ctx  *quads.Context
	log  hclog.Logger

	// "" while lowering the main body.
	currentFunction string

	// First executable quadruple of each generated function body, for
	// resolving GOSUB targets.
	functionStarts map[string]int

	// GOTOs emitted by return statements, patched to the function's
	// ENDFUNC once its body is complete.
	pendingReturnGotos map[string][]int

	// GOSUBs that jumped to a function generated later, patched when its
	// BEGINFUNC is emitted.
	pendingGosubFixups map[string][]int
}

func NewGenerator(dir *semantics.FunctionDirectory, vmem *memory.VirtualMemory, log hclog.Logger) *Generator {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Generator{
		dir:                dir,
		vmem:               vmem,
		ctx:                quads.NewContext(),
		log:                log.Named("quads"),
		functionStarts:     make(map[string]int),
		pendingReturnGotos: make(map[string][]int),
		pendingGosubFixups: make(map[string][]int),
	}
}

// genError carries a generation failure up to Generate through panicking
// visitors, since the visitor contract returns plain values.
type genError struct {
	err error
}

func (g *Generator) fail(err error) {
	panic(genError{err: err})
}

func (g *Generator) check(err error) {
	if err != nil {
		g.fail(err)
	}
}

// checkAt fills in the source line on a location-less compile error before
// failing.
func (g *Generator) checkAt(err error, line int) {
	if err == nil {
		return
	}
	if ce, ok := err.(*perr.CompileError); ok && ce.Line == 0 {
		ce.Line = line
	}
	g.fail(err)
}

// Generate lowers every function body and then the main body into one
// quadruple program. On failure no partial program is returned.
func (g *Generator) Generate(prog *parser.Program) (result *quads.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			ge, ok := r.(genError)
			if !ok {
				panic(r)
			}
			result, err = nil, ge.err
		}
	}()

	for _, fn := range prog.Functions {
		g.genFunction(fn)
	}

	g.currentFunction = ""
	for _, stmt := range prog.Main {
		stmt.Accept(g)
	}

	g.log.Debug("generation complete", "quadruples", g.ctx.Quadruples.Len(),
		"constants", g.vmem.Constants().Len())
	return g.ctx.Quadruples, nil
}

func (g *Generator) emit(q quads.Quadruple) int {
	index := g.ctx.Quadruples.Append(q)
	g.log.Trace("emit", "index", index, "quad", q.String())
	return index
}

func (g *Generator) patch(index, target int) {
	g.check(g.ctx.Quadruples.PatchResult(index, target))
}

// expr lowers an expression node and returns its address and type.
func (g *Generator) expr(e parser.Expr) exprResult {
	value := e.Accept(g)
	result, ok := value.(exprResult)
	if !ok {
		g.fail(fmt.Errorf("expression lowering produced %T", value))
	}
	return result
}

// genFunction emits BEGINFUNC, the body, and ENDFUNC, then resolves the
// function's pending return GOTOs and any forward GOSUBs that were waiting
// for its start index.
func (g *Generator) genFunction(fn *parser.FuncDecl) {
	previous := g.currentFunction
	g.currentFunction = fn.Name
	g.pendingReturnGotos[fn.Name] = nil

	beginIndex := g.emit(quads.Quadruple{Op: quads.OpBeginFunc, Left: quads.Name(fn.Name), Right: quads.None(), Result: quads.None()})
	g.functionStarts[fn.Name] = beginIndex + 1

	for _, gosubIndex := range g.pendingGosubFixups[fn.Name] {
		g.patch(gosubIndex, beginIndex+1)
	}
	delete(g.pendingGosubFixups, fn.Name)

	for _, stmt := range fn.Body {
		stmt.Accept(g)
	}

	endIndex := g.emit(quads.Quadruple{Op: quads.OpEndFunc, Left: quads.Name(fn.Name), Right: quads.None(), Result: quads.None()})

	for _, gotoIndex := range g.pendingReturnGotos[fn.Name] {
		g.patch(gotoIndex, endIndex)
	}

	g.currentFunction = previous
}

// lookup resolves an identifier to a variable with an assigned address.
func (g *Generator) lookup(name string, line int) *semantics.VariableInfo {
	info, err := g.dir.LookupVariable(name, g.currentFunction)
	g.checkAt(err, line)
	if info.VirtualAddress == semantics.NoAddress {
		g.fail(fmt.Errorf("variable '%s' has no virtual address assigned", name))
	}
	return info
}

// emitBinary runs one step of the classical stack algorithm: push both
// operands and the operator, pop them back, consult the cube, allocate the
// result temporary, and emit the quadruple.
func (g *Generator) emitBinary(op quads.Op, left, right exprResult, line int) exprResult {
	g.ctx.PushOperand(left.address, left.typ)
	g.ctx.PushOperand(right.address, right.typ)
	g.ctx.PushOperator(op)

	operator, err := g.ctx.PopOperator()
	g.check(err)
	rightAddress, rightType, err := g.ctx.PopOperand()
	g.check(err)
	leftAddress, leftType, err := g.ctx.PopOperand()
	g.check(err)

	resultType, err := semantics.ResultType(string(operator), leftType, rightType, line)
	g.check(err)

	temp, err := g.vmem.AllocateTemporary(resultType)
	g.check(err)

	g.emit(quads.Quadruple{
		Op:     operator,
		Left:   quads.Address(leftAddress),
		Right:  quads.Address(rightAddress),
		Result: quads.Address(temp),
	})

	g.ctx.PushOperand(temp, resultType)
	address, resultType, err := g.ctx.PopOperand()
	g.check(err)
	return exprResult{address: address, typ: resultType}
}
