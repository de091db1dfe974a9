package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	perr "patito/internal/errors"
	"patito/internal/memory"
	"patito/internal/quads"
	"patito/internal/semantics"
)

// VM executes a quadruple program over segmented execution memory. It is a
// plain fetch-decode-execute loop driven by an instruction pointer, a halt
// flag, and a return-address stack.
type VM struct {
	quads  []quads.Quadruple
	memory *memory.ExecutionMemory
	dir    *semantics.FunctionDirectory

	ip     int
	halted bool

	returnAddresses []int

	// Frame prepared by ERA, waiting to be activated by GOSUB. PARAM
	// writes into it while the caller's frame is still current.
	pendingFrame *memory.ActivationRecord

	output   []string
	out      io.Writer
	log      hclog.Logger
	executed uint64
}

func New(program *quads.Program, mem *memory.ExecutionMemory, dir *semantics.FunctionDirectory) *VM {
	return &VM{
		quads:  program.Quadruples(),
		memory: mem,
		dir:    dir,
		out:    os.Stdout,
		log:    hclog.NewNullLogger(),
	}
}

// SetOutput redirects PRINT emission. Output is also always captured in
// memory for inspection.
func (m *VM) SetOutput(w io.Writer) {
	m.out = w
}

func (m *VM) SetLogger(log hclog.Logger) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	m.log = log.Named("vm")
}

// Output returns a copy of everything PRINT has emitted, one entry per
// quadruple.
func (m *VM) Output() []string {
	out := make([]string, len(m.output))
	copy(out, m.output)
	return out
}

// Executed is the number of quadruples dispatched by the last Run.
func (m *VM) Executed() uint64 {
	return m.executed
}

// Run executes from quadruple 0 until the instruction pointer leaves the
// program or the machine halts.
func (m *VM) Run() error {
	m.ip = 0
	m.halted = false
	m.output = nil
	m.executed = 0

	for m.ip < len(m.quads) && !m.halted {
		quad := m.quads[m.ip]
		m.executed++
		if m.log.IsTrace() {
			m.log.Trace("exec", "ip", m.ip, "quad", quad.String(), "depth", m.memory.CallDepth())
		}
		if err := m.execute(quad); err != nil {
			return err
		}
	}
	return nil
}

func (m *VM) execute(quad quads.Quadruple) error {
	switch quad.Op {
	case quads.OpAdd, quads.OpSub, quads.OpMul, quads.OpDiv:
		return m.executeArithmetic(quad)
	case quads.OpGt, quads.OpLt, quads.OpEq, quads.OpNeq:
		return m.executeRelational(quad)
	case quads.OpAssign:
		return m.executeAssign(quad)
	case quads.OpUminus:
		return m.executeUminus(quad)
	case quads.OpPrint:
		return m.executePrint(quad)
	case quads.OpGoto:
		return m.executeGoto(quad)
	case quads.OpGotoF:
		return m.executeGotoF(quad)
	case quads.OpBeginFunc:
		return m.executeBeginFunc(quad)
	case quads.OpEndFunc:
		return m.executeEndFunc(quad)
	case quads.OpEra:
		return m.executeEra(quad)
	case quads.OpParam:
		return m.executeParam(quad)
	case quads.OpGosub:
		return m.executeGosub(quad)
	}
	return fmt.Errorf("unsupported operator %q at quadruple %d", quad.Op, m.ip)
}

func asFloat(value Value) (float64, error) {
	switch v := value.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("value %v (%T) is not numeric", value, value)
}

func (m *VM) executeArithmetic(quad quads.Quadruple) error {
	left, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}
	right, err := m.memory.Read(quad.Right.Address)
	if err != nil {
		return err
	}

	leftInt, leftIsInt := left.(int64)
	rightInt, rightIsInt := right.(int64)

	var result Value
	if quad.Op == quads.OpDiv {
		// Division always produces a floating-point result.
		lf, err := asFloat(left)
		if err != nil {
			return err
		}
		rf, err := asFloat(right)
		if err != nil {
			return err
		}
		if rf == 0 {
			return perr.NewRuntime(perr.DivisionByZero, "division by zero at quadruple %d", m.ip)
		}
		result = lf / rf
	} else if leftIsInt && rightIsInt {
		switch quad.Op {
		case quads.OpAdd:
			result = leftInt + rightInt
		case quads.OpSub:
			result = leftInt - rightInt
		case quads.OpMul:
			result = leftInt * rightInt
		}
	} else {
		lf, err := asFloat(left)
		if err != nil {
			return err
		}
		rf, err := asFloat(right)
		if err != nil {
			return err
		}
		switch quad.Op {
		case quads.OpAdd:
			result = lf + rf
		case quads.OpSub:
			result = lf - rf
		case quads.OpMul:
			result = lf * rf
		}
	}

	if err := m.memory.Write(quad.Result.Address, result); err != nil {
		return err
	}
	m.ip++
	return nil
}

func (m *VM) executeRelational(quad quads.Quadruple) error {
	left, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}
	right, err := m.memory.Read(quad.Right.Address)
	if err != nil {
		return err
	}

	lf, err := asFloat(left)
	if err != nil {
		return err
	}
	rf, err := asFloat(right)
	if err != nil {
		return err
	}

	var result bool
	switch quad.Op {
	case quads.OpGt:
		result = lf > rf
	case quads.OpLt:
		result = lf < rf
	case quads.OpEq:
		result = lf == rf
	case quads.OpNeq:
		result = lf != rf
	}

	if err := m.memory.Write(quad.Result.Address, result); err != nil {
		return err
	}
	m.ip++
	return nil
}

func (m *VM) executeAssign(quad quads.Quadruple) error {
	value, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}
	if err := m.memory.Write(quad.Result.Address, value); err != nil {
		return err
	}
	m.ip++
	return nil
}

func (m *VM) executeUminus(quad quads.Quadruple) error {
	value, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}

	var negated Value
	switch v := value.(type) {
	case int64:
		negated = -v
	case float64:
		negated = -v
	default:
		return fmt.Errorf("cannot negate %v (%T)", value, value)
	}

	if err := m.memory.Write(quad.Result.Address, negated); err != nil {
		return err
	}
	m.ip++
	return nil
}

func (m *VM) executePrint(quad quads.Quadruple) error {
	value, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}
	line := FormatValue(value)
	fmt.Fprintln(m.out, line)
	m.output = append(m.output, line)
	m.ip++
	return nil
}

func (m *VM) executeGoto(quad quads.Quadruple) error {
	if quad.Result.Kind != quads.OperandJumpTarget {
		return fmt.Errorf("GOTO at quadruple %d was never patched", m.ip)
	}
	m.ip = quad.Result.Index
	return nil
}

func isFalsy(value Value) bool {
	switch v := value.(type) {
	case bool:
		return !v
	case int64:
		return v == 0
	case float64:
		return v == 0
	}
	return false
}

func (m *VM) executeGotoF(quad quads.Quadruple) error {
	if quad.Result.Kind != quads.OperandJumpTarget {
		return fmt.Errorf("GOTOF at quadruple %d was never patched", m.ip)
	}
	condition, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}
	if isFalsy(condition) {
		m.ip = quad.Result.Index
	} else {
		m.ip++
	}
	return nil
}

// executeBeginFunc advances when the function was entered through GOSUB.
// Reached sequentially (only the main frame active), it instead scans past
// the matching ENDFUNC: function bodies sit before the main entry in the
// quadruple vector and must not run unless called.
func (m *VM) executeBeginFunc(quad quads.Quadruple) error {
	if m.memory.CallDepth() > 1 {
		m.ip++
		return nil
	}

	name := quad.Left.Name
	depth := 1
	next := m.ip + 1
	for next < len(m.quads) && depth > 0 {
		candidate := m.quads[next]
		if candidate.Op == quads.OpBeginFunc {
			depth++
		} else if candidate.Op == quads.OpEndFunc && candidate.Left.Name == name {
			depth--
			if depth == 0 {
				m.ip = next + 1
				return nil
			}
		}
		next++
	}
	return fmt.Errorf("no ENDFUNC found for function '%s'", name)
}

func (m *VM) executeEndFunc(quads.Quadruple) error {
	if _, err := m.memory.PopFrame(); err != nil {
		return err
	}
	if len(m.returnAddresses) == 0 {
		m.halted = true
		return nil
	}
	m.ip = m.returnAddresses[len(m.returnAddresses)-1]
	m.returnAddresses = m.returnAddresses[:len(m.returnAddresses)-1]
	return nil
}

// localBases computes, per kind, the lowest LOCAL offset used by the named
// function, so the frame's arrays are zero-based per type.
func (m *VM) localBases(name string) ([3]int, error) {
	var bases [3]int
	var seen [3]bool

	fn, err := m.dir.GetFunction(name)
	if err != nil {
		return bases, err
	}

	for _, info := range fn.LocalVariables.Entries() {
		if info.VirtualAddress == semantics.NoAddress {
			continue
		}
		segment, kind, offset, err := memory.Decode(info.VirtualAddress)
		if err != nil {
			return bases, err
		}
		if segment != memory.SegmentLocal {
			continue
		}
		if !seen[kind] || offset < bases[kind] {
			bases[kind] = offset
			seen[kind] = true
		}
	}

	return bases, nil
}

func (m *VM) executeEra(quad quads.Quadruple) error {
	name := quad.Left.Name
	bases, err := m.localBases(name)
	if err != nil {
		return err
	}
	m.pendingFrame = m.memory.PrepareFrame(name, bases)
	m.ip++
	return nil
}

// executeParam copies one argument value, read in the caller's context, into
// the pending frame's slot for the callee's parameter at this position,
// coerced to the parameter's declared type.
func (m *VM) executeParam(quad quads.Quadruple) error {
	if m.pendingFrame == nil {
		return perr.NewRuntime(perr.DanglingGosub, "PARAM at quadruple %d without a preceding ERA", m.ip)
	}

	fn, err := m.dir.GetFunction(m.pendingFrame.FunctionName)
	if err != nil {
		return err
	}
	position := quad.Result.Index
	if position < 1 || position > len(fn.ParameterList) {
		return fmt.Errorf("PARAM position %d out of range for function '%s'", position, fn.Name)
	}
	param := fn.ParameterList[position-1]

	value, err := m.memory.Read(quad.Left.Address)
	if err != nil {
		return err
	}

	_, kind, offset, err := memory.Decode(param.VirtualAddress)
	if err != nil {
		return err
	}
	coerced, err := memory.Coerce(kind, value)
	if err != nil {
		return err
	}
	m.pendingFrame.WriteLocal(kind, offset-m.pendingFrame.LocalBases[kind], coerced)

	m.ip++
	return nil
}

func (m *VM) executeGosub(quad quads.Quadruple) error {
	if m.pendingFrame == nil {
		return perr.NewRuntime(perr.DanglingGosub, "GOSUB at quadruple %d without a preceding ERA", m.ip)
	}
	if quad.Result.Kind != quads.OperandJumpTarget {
		return perr.NewRuntime(perr.DanglingGosub,
			"GOSUB to '%s' at quadruple %d was never patched", quad.Left.Name, m.ip)
	}

	m.returnAddresses = append(m.returnAddresses, m.ip+1)
	m.memory.PushFrame(m.pendingFrame)
	m.pendingFrame = nil
	m.ip = quad.Result.Index
	return nil
}
