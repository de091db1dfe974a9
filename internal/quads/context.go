package quads

import (
	"fmt"

	"patito/internal/semantics"
)

// Context groups the generator's working state: the operand, type, and
// operator stacks, and the growing quadruple program. The stacks live only
// for the duration of generation.
type Context struct {
	operands  []int
	types     []semantics.Type
	operators []Op

	Quadruples *Program
}

func NewContext() *Context {
	return &Context{Quadruples: NewProgram()}
}

// PushOperand records an operand address together with its type, keeping the
// two stacks in lockstep.
func (c *Context) PushOperand(address int, t semantics.Type) {
	c.operands = append(c.operands, address)
	c.types = append(c.types, t)
}

// PopOperand removes and returns the top operand and its type.
func (c *Context) PopOperand() (int, semantics.Type, error) {
	if len(c.operands) == 0 {
		return 0, "", fmt.Errorf("operand stack is empty")
	}
	address := c.operands[len(c.operands)-1]
	t := c.types[len(c.types)-1]
	c.operands = c.operands[:len(c.operands)-1]
	c.types = c.types[:len(c.types)-1]
	return address, t, nil
}

func (c *Context) PushOperator(op Op) {
	c.operators = append(c.operators, op)
}

func (c *Context) PopOperator() (Op, error) {
	if len(c.operators) == 0 {
		return "", fmt.Errorf("operator stack is empty")
	}
	op := c.operators[len(c.operators)-1]
	c.operators = c.operators[:len(c.operators)-1]
	return op, nil
}

// OperandDepth is the current operand-stack depth. A balanced generation
// run leaves it at zero.
func (c *Context) OperandDepth() int {
	return len(c.operands)
}
