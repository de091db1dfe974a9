package quads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patito/internal/semantics"
)

func TestOperandStrings(t *testing.T) {
	assert.Equal(t, "-", None().String())
	assert.Equal(t, "1000", Address(1000).String())
	assert.Equal(t, "sq", Name("sq").String())
	assert.Equal(t, "2", Position(2).String())
	assert.Equal(t, "17", JumpTarget(17).String())
}

func TestQuadrupleString(t *testing.T) {
	q := Quadruple{Op: OpAdd, Left: Address(1000), Right: Address(10001), Result: Address(7000)}
	assert.Equal(t, "(+, 1000, 10001, 7000)", q.String())

	q = Quadruple{Op: OpGoto, Left: None(), Right: None(), Result: JumpTarget(4)}
	assert.Equal(t, "(GOTO, -, -, 4)", q.String())
}

func TestProgramAppendAndGet(t *testing.T) {
	p := NewProgram()
	index := p.Append(Quadruple{Op: OpPrint, Left: Address(12000), Right: None(), Result: None()})
	assert.Equal(t, 0, index)
	assert.Equal(t, 1, p.Len())

	q, err := p.Get(0)
	require.NoError(t, err)
	assert.Equal(t, OpPrint, q.Op)

	_, err = p.Get(1)
	assert.Error(t, err)
}

func TestPatchOnlyJumps(t *testing.T) {
	p := NewProgram()
	gotoIndex := p.Append(Quadruple{Op: OpGoto, Left: None(), Right: None(), Result: None()})
	assignIndex := p.Append(Quadruple{Op: OpAssign, Left: Address(1000), Right: None(), Result: Address(1001)})

	require.NoError(t, p.PatchResult(gotoIndex, 5))
	q, err := p.Get(gotoIndex)
	require.NoError(t, err)
	assert.Equal(t, OperandJumpTarget, q.Result.Kind)
	assert.Equal(t, 5, q.Result.Index)

	assert.Error(t, p.PatchResult(assignIndex, 5), "ASSIGN is not patchable")
	assert.Error(t, p.PatchResult(99, 5), "out of range")
}

func TestIsJump(t *testing.T) {
	assert.True(t, OpGoto.IsJump())
	assert.True(t, OpGotoF.IsJump())
	assert.True(t, OpGosub.IsJump())
	assert.False(t, OpAssign.IsJump())
	assert.False(t, OpBeginFunc.IsJump())
}

func TestContextStacksStayInLockstep(t *testing.T) {
	c := NewContext()
	c.PushOperand(1000, semantics.INT)
	c.PushOperand(2000, semantics.FLOAT)
	assert.Equal(t, 2, c.OperandDepth())

	address, typ, err := c.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, 2000, address)
	assert.Equal(t, semantics.FLOAT, typ)

	address, typ, err = c.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, 1000, address)
	assert.Equal(t, semantics.INT, typ)

	_, _, err = c.PopOperand()
	assert.Error(t, err)

	c.PushOperator(OpAdd)
	op, err := c.PopOperator()
	require.NoError(t, err)
	assert.Equal(t, OpAdd, op)
	_, err = c.PopOperator()
	assert.Error(t, err)
}

func TestListing(t *testing.T) {
	p := NewProgram()
	p.Append(Quadruple{Op: OpGotoF, Left: Address(9000), Right: None(), Result: JumpTarget(3)})
	listing := p.Listing()
	assert.Contains(t, listing, "0: (GOTOF, 9000, -, 3)")
}
