package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "patito/internal/errors"
	"patito/internal/lexer"
	"patito/internal/parser"
)

func buildSource(t *testing.T, source string) (*FunctionDirectory, error) {
	t.Helper()
	tokens, err := lexer.NewScanner(source).ScanTokens()
	require.NoError(t, err)
	tree, err := parser.NewParser(tokens).Parse()
	require.NoError(t, err)
	return NewSemanticBuilder().Build(tree)
}

func TestBuildDirectory(t *testing.T) {
	dir, err := buildSource(t, `
program demo;
var
  int x, y;
  float z;
int sq(int n) {
  var int t;
  return n * n;
}
void show(float v) {
  print(v);
}
main {
}
end`)
	require.NoError(t, err)

	assert.Equal(t, 3, dir.GlobalVariables.Len())
	x, err := dir.GlobalVariables.Get("x")
	require.NoError(t, err)
	assert.Equal(t, INT, x.Type)
	z, err := dir.GlobalVariables.Get("z")
	require.NoError(t, err)
	assert.Equal(t, FLOAT, z.Type)

	functions := dir.Functions()
	require.Len(t, functions, 2)
	assert.Equal(t, "sq", functions[0].Name)
	assert.Equal(t, INT, functions[0].ReturnType)
	assert.Equal(t, "show", functions[1].Name)
	assert.Equal(t, VOID, functions[1].ReturnType)

	sq := functions[0]
	require.Len(t, sq.ParameterList, 1)
	assert.Equal(t, "n", sq.ParameterList[0].Name)
	assert.True(t, sq.ParameterList[0].IsParameter)
	// Parameter plus declared local.
	assert.Equal(t, 2, sq.LocalVariables.Len())
}

func TestBuilderRejectsDuplicateGlobal(t *testing.T) {
	_, err := buildSource(t, `
program p;
var
  int x;
  float x;
main {
}
end`)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.DuplicateVariable))
}

func TestBuilderRejectsDuplicateFunction(t *testing.T) {
	_, err := buildSource(t, `
program p;
void f() { }
void f() { }
main {
}
end`)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.DuplicateFunction))
}

func TestBuilderRejectsDuplicateParameter(t *testing.T) {
	_, err := buildSource(t, `
program p;
void f(int a, int a) { }
main {
}
end`)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.DuplicateParameter))
}

func TestBuilderRejectsLocalShadowingParameter(t *testing.T) {
	_, err := buildSource(t, `
program p;
void f(int a) {
  var int a;
}
main {
}
end`)
	require.Error(t, err)
	assert.True(t, perr.IsCompile(err, perr.DuplicateVariable))
}

func TestBuilderAttachesLines(t *testing.T) {
	_, err := buildSource(t, "program p;\nvar\n  int x;\n  float x;\nmain {\n}\nend")
	require.Error(t, err)
	ce, ok := err.(*perr.CompileError)
	require.True(t, ok)
	assert.Equal(t, 4, ce.Line)
}
