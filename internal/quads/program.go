package quads

import (
	"fmt"
	"strings"
)

// Program is the emitted quadruple sequence. It is append-only, except that
// the result field of a previously appended jump or call quadruple may be
// patched once its destination index becomes known.
type Program struct {
	quads []Quadruple
}

func NewProgram() *Program {
	return &Program{}
}

// Append adds a quadruple and returns its index.
func (p *Program) Append(q Quadruple) int {
	p.quads = append(p.quads, q)
	return len(p.quads) - 1
}

func (p *Program) Get(index int) (Quadruple, error) {
	if index < 0 || index >= len(p.quads) {
		return Quadruple{}, fmt.Errorf("quadruple index %d out of range [0, %d)", index, len(p.quads))
	}
	return p.quads[index], nil
}

func (p *Program) Len() int {
	return len(p.quads)
}

// PatchResult fills the result of the jump/call quadruple at index with a
// target quadruple index. Only GOTO, GOTOF, and GOSUB may be patched, and
// only while their result is still unset.
func (p *Program) PatchResult(index, target int) error {
	if index < 0 || index >= len(p.quads) {
		return fmt.Errorf("cannot patch quadruple %d: out of range [0, %d)", index, len(p.quads))
	}
	if !p.quads[index].Op.IsJump() {
		return fmt.Errorf("cannot patch quadruple %d: %s is not a jump", index, p.quads[index].Op)
	}
	if p.quads[index].Result.Kind == OperandJumpTarget {
		return fmt.Errorf("cannot patch quadruple %d: target already set", index)
	}
	p.quads[index].Result = JumpTarget(target)
	return nil
}

// Quadruples exposes the emitted sequence for execution.
func (p *Program) Quadruples() []Quadruple {
	return p.quads
}

// Listing renders the program as "index: (op, left, right, result)" rows.
func (p *Program) Listing() string {
	var sb strings.Builder
	for i, q := range p.quads {
		fmt.Fprintf(&sb, "%4d: %s\n", i, q)
	}
	return sb.String()
}
