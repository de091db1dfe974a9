package memory

import (
	"fmt"
	"strconv"

	perr "patito/internal/errors"
)

// ActivationRecord is the per-call storage bundle: one typed array per
// (LOCAL, kind) and (TEMP, kind) pair. ERA creates it, PARAM fills
// parameter slots, GOSUB pushes it, ENDFUNC pops it.
type ActivationRecord struct {
	FunctionName string

	// LocalBases holds, per kind, the lowest LOCAL offset used by the
	// function, so that every invocation sees zero-based arrays. TEMP
	// offsets are kept absolute; frames grow on write.
	LocalBases [3]int

	localInts   []int64
	localFloats []float64
	localBools  []bool

	tempInts   []int64
	tempFloats []float64
	tempBools  []bool
}

// WriteLocal stores a value into the frame's LOCAL array for the given kind
// at a zero-based offset, growing the array as needed. The value must
// already be coerced to the kind.
func (r *ActivationRecord) WriteLocal(kind Kind, offset int, value interface{}) {
	switch kind {
	case KindInt:
		for len(r.localInts) <= offset {
			r.localInts = append(r.localInts, 0)
		}
		r.localInts[offset] = value.(int64)
	case KindFloat:
		for len(r.localFloats) <= offset {
			r.localFloats = append(r.localFloats, 0)
		}
		r.localFloats[offset] = value.(float64)
	case KindBool:
		for len(r.localBools) <= offset {
			r.localBools = append(r.localBools, false)
		}
		r.localBools[offset] = value.(bool)
	}
}

func (r *ActivationRecord) writeTemp(kind Kind, offset int, value interface{}) {
	switch kind {
	case KindInt:
		for len(r.tempInts) <= offset {
			r.tempInts = append(r.tempInts, 0)
		}
		r.tempInts[offset] = value.(int64)
	case KindFloat:
		for len(r.tempFloats) <= offset {
			r.tempFloats = append(r.tempFloats, 0)
		}
		r.tempFloats[offset] = value.(float64)
	case KindBool:
		for len(r.tempBools) <= offset {
			r.tempBools = append(r.tempBools, false)
		}
		r.tempBools[offset] = value.(bool)
	}
}

func (r *ActivationRecord) readLocal(kind Kind, offset int) (interface{}, bool) {
	switch kind {
	case KindInt:
		if offset >= 0 && offset < len(r.localInts) {
			return r.localInts[offset], true
		}
	case KindFloat:
		if offset >= 0 && offset < len(r.localFloats) {
			return r.localFloats[offset], true
		}
	case KindBool:
		if offset >= 0 && offset < len(r.localBools) {
			return r.localBools[offset], true
		}
	}
	return nil, false
}

func (r *ActivationRecord) readTemp(kind Kind, offset int) (interface{}, bool) {
	switch kind {
	case KindInt:
		if offset >= 0 && offset < len(r.tempInts) {
			return r.tempInts[offset], true
		}
	case KindFloat:
		if offset >= 0 && offset < len(r.tempFloats) {
			return r.tempFloats[offset], true
		}
	case KindBool:
		if offset >= 0 && offset < len(r.tempBools) {
			return r.tempBools[offset], true
		}
	}
	return nil, false
}

// Coerce converts a value to the storage representation of a kind.
// Relational results arrive as booleans; promoted assignments arrive as
// INTs headed for FLOAT storage.
func Coerce(kind Kind, value interface{}) (interface{}, error) {
	switch kind {
	case KindInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case bool:
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		}
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case float64:
			return v != 0, nil
		}
	case KindString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot store %T into %s storage", value, kind)
}

// ExecutionMemory is the VM's segmented storage: GLOBAL and CONSTANT arrays
// owned by the memory itself, LOCAL and TEMP arrays owned by the activation
// record on top of the call stack.
type ExecutionMemory struct {
	globalInts   []int64
	globalFloats []float64
	globalBools  []bool

	constInts    []int64
	constFloats  []float64
	constStrings []string

	callStack []*ActivationRecord
}

// NewExecutionMemory creates the memory with the main frame already on the
// call stack. The main frame may never be popped.
func NewExecutionMemory() *ExecutionMemory {
	m := &ExecutionMemory{}
	m.callStack = append(m.callStack, &ActivationRecord{FunctionName: "main"})
	return m
}

// Read fetches the value at a virtual address. Reading an address whose
// typed array has not grown to cover it is an UninitializedRead.
func (m *ExecutionMemory) Read(address int) (interface{}, error) {
	segment, kind, offset, err := Decode(address)
	if err != nil {
		return nil, err
	}

	switch segment {
	case SegmentGlobal:
		switch kind {
		case KindInt:
			if offset < len(m.globalInts) {
				return m.globalInts[offset], nil
			}
		case KindFloat:
			if offset < len(m.globalFloats) {
				return m.globalFloats[offset], nil
			}
		case KindBool:
			if offset < len(m.globalBools) {
				return m.globalBools[offset], nil
			}
		}
	case SegmentConstant:
		switch kind {
		case KindInt:
			if offset < len(m.constInts) {
				return m.constInts[offset], nil
			}
		case KindFloat:
			if offset < len(m.constFloats) {
				return m.constFloats[offset], nil
			}
		case KindString:
			if offset < len(m.constStrings) {
				return m.constStrings[offset], nil
			}
		}
	case SegmentLocal:
		frame := m.CurrentFrame()
		if value, ok := frame.readLocal(kind, offset-frame.LocalBases[kind]); ok {
			return value, nil
		}
	case SegmentTemp:
		frame := m.CurrentFrame()
		if value, ok := frame.readTemp(kind, offset); ok {
			return value, nil
		}
	}

	return nil, perr.NewRuntime(perr.UninitializedRead,
		"read of uninitialized address %d (%s %s offset %d)", address, segment, kind, offset)
}

// Write stores a value at a virtual address, coercing it to the address's
// kind and growing the typed array as needed.
func (m *ExecutionMemory) Write(address int, value interface{}) error {
	segment, kind, offset, err := Decode(address)
	if err != nil {
		return err
	}
	coerced, err := Coerce(kind, value)
	if err != nil {
		return fmt.Errorf("write to address %d: %w", address, err)
	}

	switch segment {
	case SegmentGlobal:
		switch kind {
		case KindInt:
			for len(m.globalInts) <= offset {
				m.globalInts = append(m.globalInts, 0)
			}
			m.globalInts[offset] = coerced.(int64)
		case KindFloat:
			for len(m.globalFloats) <= offset {
				m.globalFloats = append(m.globalFloats, 0)
			}
			m.globalFloats[offset] = coerced.(float64)
		case KindBool:
			for len(m.globalBools) <= offset {
				m.globalBools = append(m.globalBools, false)
			}
			m.globalBools[offset] = coerced.(bool)
		}
	case SegmentConstant:
		switch kind {
		case KindInt:
			for len(m.constInts) <= offset {
				m.constInts = append(m.constInts, 0)
			}
			m.constInts[offset] = coerced.(int64)
		case KindFloat:
			for len(m.constFloats) <= offset {
				m.constFloats = append(m.constFloats, 0)
			}
			m.constFloats[offset] = coerced.(float64)
		case KindString:
			for len(m.constStrings) <= offset {
				m.constStrings = append(m.constStrings, "")
			}
			m.constStrings[offset] = coerced.(string)
		}
	case SegmentLocal:
		frame := m.CurrentFrame()
		frame.WriteLocal(kind, offset-frame.LocalBases[kind], coerced)
	case SegmentTemp:
		frame := m.CurrentFrame()
		frame.writeTemp(kind, offset, coerced)
	}

	return nil
}

// LoadConstants coerces each interned lexeme to its declared kind and writes
// it to its address. Must run before execution.
func (m *ExecutionMemory) LoadConstants(table *ConstantTable) error {
	for _, entry := range table.Entries() {
		var value interface{}
		switch entry.Kind {
		case KindInt:
			parsed, err := strconv.ParseInt(entry.Lexeme, 10, 64)
			if err != nil {
				return fmt.Errorf("bad INT constant %q: %w", entry.Lexeme, err)
			}
			value = parsed
		case KindFloat:
			parsed, err := strconv.ParseFloat(entry.Lexeme, 64)
			if err != nil {
				return fmt.Errorf("bad FLOAT constant %q: %w", entry.Lexeme, err)
			}
			value = parsed
		default:
			value = entry.Lexeme
		}
		if err := m.Write(entry.Address, value); err != nil {
			return err
		}
	}
	return nil
}

// PrepareFrame creates an activation record without pushing it. ERA calls
// this; the frame becomes active only at GOSUB.
func (m *ExecutionMemory) PrepareFrame(name string, localBases [3]int) *ActivationRecord {
	return &ActivationRecord{FunctionName: name, LocalBases: localBases}
}

func (m *ExecutionMemory) PushFrame(frame *ActivationRecord) {
	m.callStack = append(m.callStack, frame)
}

// PopFrame removes the top activation record. The main frame may not be
// popped.
func (m *ExecutionMemory) PopFrame() (*ActivationRecord, error) {
	if len(m.callStack) <= 1 {
		return nil, perr.NewRuntime(perr.CallStackUnderflow, "cannot pop the main frame")
	}
	frame := m.callStack[len(m.callStack)-1]
	m.callStack = m.callStack[:len(m.callStack)-1]
	return frame, nil
}

func (m *ExecutionMemory) CurrentFrame() *ActivationRecord {
	return m.callStack[len(m.callStack)-1]
}

// CallDepth is the number of frames on the call stack, main included.
func (m *ExecutionMemory) CallDepth() int {
	return len(m.callStack)
}
