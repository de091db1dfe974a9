// internal/compiler/stmt_compiler.go
package compiler

import (
	"fmt"

	perr "patito/internal/errors"
	"patito/internal/memory"
	"patito/internal/parser"
	"patito/internal/quads"
	"patito/internal/semantics"
)

func (g *Generator) VisitAssignStmt(stmt *parser.AssignStmt) interface{} {
	info := g.lookup(stmt.Name, stmt.Line)
	value := g.expr(stmt.Value)

	g.checkAt(semantics.AssertAssign(info.Type, value.typ, "assignment", stmt.Line), stmt.Line)

	g.emit(quads.Quadruple{
		Op:     quads.OpAssign,
		Left:   quads.Address(value.address),
		Right:  quads.None(),
		Result: quads.Address(info.VirtualAddress),
	})
	return nil
}

// VisitPrintStmt emits one PRINT per argument, left to right. String
// arguments are interned into the CONSTANT/STRING range.
func (g *Generator) VisitPrintStmt(stmt *parser.PrintStmt) interface{} {
	for _, arg := range stmt.Args {
		if lit, ok := arg.(*parser.StringLit); ok {
			address, err := g.vmem.AllocateConstant(lit.Value, memory.KindString)
			g.check(err)
			g.emit(quads.Quadruple{Op: quads.OpPrint, Left: quads.Address(address), Right: quads.None(), Result: quads.None()})
			continue
		}
		value := g.expr(arg)
		g.emit(quads.Quadruple{Op: quads.OpPrint, Left: quads.Address(value.address), Right: quads.None(), Result: quads.None()})
	}
	return nil
}

func (g *Generator) VisitIfStmt(stmt *parser.IfStmt) interface{} {
	condition := g.expr(stmt.Condition)
	g.checkAt(semantics.EnsureBool(condition.typ, "if", stmt.Line), stmt.Line)

	gotofIndex := g.emit(quads.Quadruple{Op: quads.OpGotoF, Left: quads.Address(condition.address), Right: quads.None(), Result: quads.None()})

	for _, s := range stmt.Then {
		s.Accept(g)
	}

	if stmt.Else != nil {
		gotoEndIndex := g.emit(quads.Quadruple{Op: quads.OpGoto, Left: quads.None(), Right: quads.None(), Result: quads.None()})
		g.patch(gotofIndex, g.ctx.Quadruples.Len())
		for _, s := range stmt.Else {
			s.Accept(g)
		}
		g.patch(gotoEndIndex, g.ctx.Quadruples.Len())
	} else {
		g.patch(gotofIndex, g.ctx.Quadruples.Len())
	}
	return nil
}

func (g *Generator) VisitWhileStmt(stmt *parser.WhileStmt) interface{} {
	loopStart := g.ctx.Quadruples.Len()

	condition := g.expr(stmt.Condition)
	g.checkAt(semantics.EnsureBool(condition.typ, "while", stmt.Line), stmt.Line)

	gotofIndex := g.emit(quads.Quadruple{Op: quads.OpGotoF, Left: quads.Address(condition.address), Right: quads.None(), Result: quads.None()})

	for _, s := range stmt.Body {
		s.Accept(g)
	}

	g.emit(quads.Quadruple{Op: quads.OpGoto, Left: quads.None(), Right: quads.None(), Result: quads.JumpTarget(loopStart)})
	g.patch(gotofIndex, g.ctx.Quadruples.Len())
	return nil
}

func (g *Generator) VisitCallStmt(stmt *parser.CallStmt) interface{} {
	fn, args := g.prepareCall(stmt.Name, stmt.Args, stmt.Line)
	g.emitActivation(fn, args)
	return nil
}

// VisitReturnStmt validates the return against the enclosing function,
// copies the value into the function's return slot when it has one, and
// emits an exit GOTO patched to ENDFUNC at the end of the function.
func (g *Generator) VisitReturnStmt(stmt *parser.ReturnStmt) interface{} {
	if g.currentFunction == "" {
		g.fail(perr.NewCompile(perr.ReturnOutsideFunction, stmt.Line,
			"'return' can only appear inside a function"))
	}

	fn, err := g.dir.GetFunction(g.currentFunction)
	g.checkAt(err, stmt.Line)

	hasValue := stmt.Value != nil
	var value exprResult
	var valueType semantics.Type
	if hasValue {
		value = g.expr(stmt.Value)
		valueType = value.typ
	}

	g.checkAt(semantics.AssertReturn(fn, valueType, hasValue, stmt.Line), stmt.Line)

	if fn.ReturnType != semantics.VOID {
		returnSlot, err := g.vmem.GetFunctionReturnAddress(fn.Name)
		g.check(err)
		g.emit(quads.Quadruple{
			Op:     quads.OpAssign,
			Left:   quads.Address(value.address),
			Right:  quads.None(),
			Result: quads.Address(returnSlot),
		})
	}

	gotoIndex := g.emit(quads.Quadruple{Op: quads.OpGoto, Left: quads.None(), Right: quads.None(), Result: quads.None()})
	g.pendingReturnGotos[g.currentFunction] = append(g.pendingReturnGotos[g.currentFunction], gotoIndex)
	return nil
}

func (g *Generator) VisitBlockStmt(stmt *parser.BlockStmt) interface{} {
	for _, s := range stmt.Body {
		s.Accept(g)
	}
	return nil
}

// prepareCall resolves the callee, lowers the arguments in order, and checks
// count and element-wise assignability against the parameter list.
func (g *Generator) prepareCall(name string, args []parser.Expr, line int) (*semantics.FunctionInfo, []exprResult) {
	fn, err := g.dir.GetFunction(name)
	g.checkAt(err, line)

	results := make([]exprResult, 0, len(args))
	for _, arg := range args {
		results = append(results, g.expr(arg))
	}

	if len(results) != len(fn.ParameterList) {
		g.fail(perr.NewCompile(perr.WrongArgumentCount, line,
			"call to '%s' with %d arguments, expected %d", name, len(results), len(fn.ParameterList)))
	}

	for i, param := range fn.ParameterList {
		context := fmt.Sprintf("argument %d of '%s'", i+1, name)
		g.checkAt(semantics.AssertAssign(param.Type, results[i].typ, context, line), line)
	}

	return fn, results
}

// emitActivation emits the ERA / PARAM... / GOSUB protocol. Arguments were
// already lowered, so nested call sequences are complete before this frame's
// ERA appears in the instruction stream.
func (g *Generator) emitActivation(fn *semantics.FunctionInfo, args []exprResult) {
	g.emit(quads.Quadruple{Op: quads.OpEra, Left: quads.Name(fn.Name), Right: quads.None(), Result: quads.None()})

	for i, arg := range args {
		g.emit(quads.Quadruple{
			Op:     quads.OpParam,
			Left:   quads.Address(arg.address),
			Right:  quads.None(),
			Result: quads.Position(i + 1),
		})
	}

	result := quads.None()
	start, known := g.functionStarts[fn.Name]
	if known {
		result = quads.JumpTarget(start)
	}
	gosubIndex := g.emit(quads.Quadruple{Op: quads.OpGosub, Left: quads.Name(fn.Name), Right: quads.None(), Result: result})

	if !known {
		g.pendingGosubFixups[fn.Name] = append(g.pendingGosubFixups[fn.Name], gosubIndex)
	}
}
