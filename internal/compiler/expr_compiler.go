package compiler

import (
	perr "patito/internal/errors"
	"patito/internal/memory"
	"patito/internal/parser"
	"patito/internal/quads"
	"patito/internal/semantics"
)

func (g *Generator) VisitBinaryExpr(expr *parser.BinaryExpr) interface{} {
	left := g.expr(expr.Left)
	right := g.expr(expr.Right)
	return g.emitBinary(quads.Op(expr.Operator), left, right, expr.Line)
}

func (g *Generator) VisitUnaryExpr(expr *parser.UnaryExpr) interface{} {
	operand := g.expr(expr.Operand)

	// Unary plus is a no-op.
	if expr.Operator == "+" {
		return operand
	}

	temp, err := g.vmem.AllocateTemporary(operand.typ)
	g.check(err)
	g.emit(quads.Quadruple{
		Op:     quads.OpUminus,
		Left:   quads.Address(operand.address),
		Right:  quads.None(),
		Result: quads.Address(temp),
	})
	return exprResult{address: temp, typ: operand.typ}
}

func (g *Generator) VisitIntLit(expr *parser.IntLit) interface{} {
	address, err := g.vmem.AllocateConstant(expr.Lexeme, memory.KindInt)
	g.check(err)
	return exprResult{address: address, typ: semantics.INT}
}

func (g *Generator) VisitFloatLit(expr *parser.FloatLit) interface{} {
	address, err := g.vmem.AllocateConstant(expr.Lexeme, memory.KindFloat)
	g.check(err)
	return exprResult{address: address, typ: semantics.FLOAT}
}

func (g *Generator) VisitStringLit(expr *parser.StringLit) interface{} {
	// Strings live only in print arguments, which are handled by
	// VisitPrintStmt before expression lowering.
	g.fail(perr.NewCompile(perr.IncompatibleTypes, expr.Line,
		"string literal cannot appear in an expression"))
	return nil
}

func (g *Generator) VisitVarExpr(expr *parser.VarExpr) interface{} {
	info := g.lookup(expr.Name, expr.Line)
	return exprResult{address: info.VirtualAddress, typ: info.Type}
}

// VisitCallExpr lowers a function call in expression position: the callee
// must be typed, and after GOSUB its return slot is copied to a fresh
// temporary so later calls cannot clobber the value.
func (g *Generator) VisitCallExpr(expr *parser.CallExpr) interface{} {
	fn, args := g.prepareCall(expr.Name, expr.Args, expr.Line)

	if fn.ReturnType == semantics.VOID {
		g.fail(perr.NewCompile(perr.VoidFunctionInExpression, expr.Line,
			"void function '%s' cannot be used in an expression", expr.Name))
	}

	g.emitActivation(fn, args)

	returnSlot, err := g.vmem.GetFunctionReturnAddress(fn.Name)
	g.check(err)
	temp, err := g.vmem.AllocateTemporary(fn.ReturnType)
	g.check(err)
	g.emit(quads.Quadruple{
		Op:     quads.OpAssign,
		Left:   quads.Address(returnSlot),
		Right:  quads.None(),
		Result: quads.Address(temp),
	})

	return exprResult{address: temp, typ: fn.ReturnType}
}
