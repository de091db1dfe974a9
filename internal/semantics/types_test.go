package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "patito/internal/errors"
)

func TestCubeArithmetic(t *testing.T) {
	tests := []struct {
		op       string
		left     Type
		right    Type
		expected Type
	}{
		{"+", INT, INT, INT},
		{"+", INT, FLOAT, FLOAT},
		{"+", FLOAT, INT, FLOAT},
		{"+", FLOAT, FLOAT, FLOAT},
		{"-", INT, INT, INT},
		{"-", FLOAT, INT, FLOAT},
		{"*", INT, INT, INT},
		{"*", INT, FLOAT, FLOAT},
		// Division of two INTs yields FLOAT.
		{"/", INT, INT, FLOAT},
		{"/", FLOAT, FLOAT, FLOAT},
	}

	for _, tt := range tests {
		result, err := ResultType(tt.op, tt.left, tt.right, 0)
		require.NoError(t, err, "%s %s %s", tt.left, tt.op, tt.right)
		assert.Equal(t, tt.expected, result, "%s %s %s", tt.left, tt.op, tt.right)
	}
}

func TestCubeRelationalProducesBool(t *testing.T) {
	for _, op := range []string{">", "<", "==", "!="} {
		for _, left := range []Type{INT, FLOAT} {
			for _, right := range []Type{INT, FLOAT} {
				result, err := ResultType(op, left, right, 0)
				require.NoError(t, err)
				assert.Equal(t, BOOL, result)
			}
		}
	}
}

func TestCubeRejectsBoolAndVoidOperands(t *testing.T) {
	invalid := []struct {
		op    string
		left  Type
		right Type
	}{
		{"+", BOOL, INT},
		{"+", INT, BOOL},
		{"*", BOOL, BOOL},
		{"<", BOOL, INT},
		{"/", VOID, INT},
		{"==", INT, VOID},
	}

	for _, tt := range invalid {
		_, err := ResultType(tt.op, tt.left, tt.right, 0)
		require.Error(t, err, "%s %s %s", tt.left, tt.op, tt.right)
		assert.True(t, perr.IsCompile(err, perr.IncompatibleTypes))
	}
}

func TestCubeRejectsUnknownOperator(t *testing.T) {
	_, err := ResultType("%", INT, INT, 0)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.IncompatibleTypes))
}

func TestAssertAssign(t *testing.T) {
	assert.NoError(t, AssertAssign(INT, INT, "test", 0))
	assert.NoError(t, AssertAssign(FLOAT, INT, "test", 0))
	assert.NoError(t, AssertAssign(FLOAT, FLOAT, "test", 0))

	err := AssertAssign(INT, FLOAT, "test", 0)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.IncompatibleAssignment))

	assert.Error(t, AssertAssign(INT, BOOL, "test", 0))
	assert.Error(t, AssertAssign(BOOL, BOOL, "test", 0))
	assert.Error(t, AssertAssign(VOID, INT, "test", 0))
}

func TestEnsureBool(t *testing.T) {
	assert.NoError(t, EnsureBool(BOOL, "if", 0))

	err := EnsureBool(INT, "if", 0)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.IncompatibleTypes))
}

func TestAssertReturn(t *testing.T) {
	voidFn := &FunctionInfo{Name: "v", ReturnType: VOID}
	intFn := &FunctionInfo{Name: "i", ReturnType: INT}
	floatFn := &FunctionInfo{Name: "f", ReturnType: FLOAT}

	assert.NoError(t, AssertReturn(voidFn, "", false, 0))
	assert.Error(t, AssertReturn(voidFn, INT, true, 0))

	assert.NoError(t, AssertReturn(intFn, INT, true, 0))
	assert.NoError(t, AssertReturn(floatFn, INT, true, 0))
	assert.Error(t, AssertReturn(intFn, FLOAT, true, 0))

	err := AssertReturn(intFn, "", false, 0)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.MissingReturnValue))
}
