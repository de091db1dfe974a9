package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "patito/internal/errors"
	"patito/internal/semantics"
)

func TestGlobalReadWrite(t *testing.T) {
	m := NewExecutionMemory()

	require.NoError(t, m.Write(GlobalIntStart, int64(7)))
	value, err := m.Read(GlobalIntStart)
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)

	require.NoError(t, m.Write(GlobalFloatStart+2, 1.5))
	value, err = m.Read(GlobalFloatStart + 2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, value)
}

func TestWriteGrowsWithZeroFill(t *testing.T) {
	m := NewExecutionMemory()
	require.NoError(t, m.Write(GlobalIntStart+3, int64(9)))

	// The skipped-over slots exist and hold the zero value.
	for offset := 0; offset < 3; offset++ {
		value, err := m.Read(GlobalIntStart + offset)
		require.NoError(t, err)
		assert.Equal(t, int64(0), value)
	}
}

func TestWriteCoercesToAddressKind(t *testing.T) {
	m := NewExecutionMemory()

	// INT value into FLOAT storage is promoted.
	require.NoError(t, m.Write(GlobalFloatStart, int64(3)))
	value, err := m.Read(GlobalFloatStart)
	require.NoError(t, err)
	assert.Equal(t, 3.0, value)

	// Relational results land in BOOL storage as booleans.
	require.NoError(t, m.Write(GlobalBoolStart, true))
	value, err = m.Read(GlobalBoolStart)
	require.NoError(t, err)
	assert.Equal(t, true, value)

	// A string cannot land in INT storage.
	assert.Error(t, m.Write(GlobalIntStart, "nope"))
}

func TestUninitializedRead(t *testing.T) {
	m := NewExecutionMemory()
	_, err := m.Read(GlobalIntStart + 5)
	require.Error(t, err)
	assert.True(t, perr.IsRuntime(err, perr.UninitializedRead))
}

func TestLocalAndTempUseCurrentFrame(t *testing.T) {
	m := NewExecutionMemory()

	require.NoError(t, m.Write(LocalIntStart, int64(1)))
	require.NoError(t, m.Write(TempIntStart, int64(2)))

	frame := m.PrepareFrame("f", [3]int{})
	m.PushFrame(frame)

	// The fresh frame does not see the caller's storage.
	_, err := m.Read(LocalIntStart)
	assert.True(t, perr.IsRuntime(err, perr.UninitializedRead))

	require.NoError(t, m.Write(LocalIntStart, int64(10)))
	value, err := m.Read(LocalIntStart)
	require.NoError(t, err)
	assert.Equal(t, int64(10), value)

	_, err = m.PopFrame()
	require.NoError(t, err)

	// Back in the caller, the original values are intact.
	value, err = m.Read(LocalIntStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
	value, err = m.Read(TempIntStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)
}

func TestLocalBasesRebaseOffsets(t *testing.T) {
	m := NewExecutionMemory()

	// A frame whose lowest local INT is offset 5 sees address 4005 as its
	// slot zero.
	frame := m.PrepareFrame("f", [3]int{5, 0, 0})
	m.PushFrame(frame)

	require.NoError(t, m.Write(LocalIntStart+5, int64(42)))
	value, err := m.Read(LocalIntStart + 5)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	direct, ok := frame.readLocal(KindInt, 0)
	require.True(t, ok)
	assert.Equal(t, int64(42), direct)
}

func TestPopMainFrameFails(t *testing.T) {
	m := NewExecutionMemory()
	_, err := m.PopFrame()
	require.Error(t, err)
	assert.True(t, perr.IsRuntime(err, perr.CallStackUnderflow))
	assert.Equal(t, 1, m.CallDepth())
}

func TestLoadConstants(t *testing.T) {
	vm := NewVirtualMemory()
	intAddr, err := vm.AllocateConstant("42", KindInt)
	require.NoError(t, err)
	floatAddr, err := vm.AllocateConstant("2.5", KindFloat)
	require.NoError(t, err)
	strAddr, err := vm.AllocateConstant("hola", KindString)
	require.NoError(t, err)

	m := NewExecutionMemory()
	require.NoError(t, m.LoadConstants(vm.Constants()))

	value, err := m.Read(intAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	value, err = m.Read(floatAddr)
	require.NoError(t, err)
	assert.Equal(t, 2.5, value)

	value, err = m.Read(strAddr)
	require.NoError(t, err)
	assert.Equal(t, "hola", value)
}

func TestCoerce(t *testing.T) {
	value, err := Coerce(KindInt, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = Coerce(KindFloat, int64(4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, value)

	value, err = Coerce(KindBool, int64(0))
	require.NoError(t, err)
	assert.Equal(t, false, value)

	_, err = Coerce(KindInt, 1.5)
	assert.Error(t, err, "no implicit narrowing at the storage layer either")
}

func TestKindOf(t *testing.T) {
	kind, err := KindOf(semantics.INT)
	require.NoError(t, err)
	assert.Equal(t, KindInt, kind)

	kind, err = KindOf(semantics.BOOL)
	require.NoError(t, err)
	assert.Equal(t, KindBool, kind)

	_, err = KindOf(semantics.VOID)
	assert.Error(t, err)
}
