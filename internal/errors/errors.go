// internal/errors/errors.go
package errors

import "fmt"

// Code identifies one entry of the error taxonomy.
type Code string

// Compile-time codes. Each one aborts the phase that raises it.
const (
	SyntaxError              Code = "SyntaxError"
	DuplicateFunction        Code = "DuplicateFunction"
	DuplicateVariable        Code = "DuplicateVariable"
	DuplicateParameter       Code = "DuplicateParameter"
	UnknownFunction          Code = "UnknownFunction"
	UnknownVariable          Code = "UnknownVariable"
	InvalidType              Code = "InvalidType"
	IncompatibleTypes        Code = "IncompatibleTypes"
	IncompatibleAssignment   Code = "IncompatibleAssignment"
	WrongArgumentCount       Code = "WrongArgumentCount"
	VoidFunctionInExpression Code = "VoidFunctionInExpression"
	ReturnOutsideFunction    Code = "ReturnOutsideFunction"
	MissingReturnValue       Code = "MissingReturnValue"
)

// Run-time codes. The virtual machine halts on any of them.
const (
	DivisionByZero     Code = "DivisionByZero"
	UninitializedRead  Code = "UninitializedRead"
	CallStackUnderflow Code = "CallStackUnderflow"
	DanglingGosub      Code = "DanglingGosub"
)

// CompileError is an error detected before execution, with the source line
// when the parse tree carries one (0 means no location).
type CompileError struct {
	Kind    Code
	Message string
	Line    int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewCompile builds a CompileError. line may be 0 when no location is known.
func NewCompile(kind Code, line int, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}

// RuntimeError is an error raised while the virtual machine executes.
type RuntimeError struct {
	Kind    Code
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewRuntime(kind Code, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCompile reports whether err (or anything it wraps) is a CompileError with
// the given code.
func IsCompile(err error, kind Code) bool {
	for err != nil {
		if ce, ok := err.(*CompileError); ok {
			return ce.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsRuntime reports whether err (or anything it wraps) is a RuntimeError with
// the given code.
func IsRuntime(err error, kind Code) bool {
	for err != nil {
		if re, ok := err.(*RuntimeError); ok {
			return re.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
