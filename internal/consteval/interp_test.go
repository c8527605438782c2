package consteval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/parser"
	"github.com/bplang/bpc/internal/source"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", src)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 256)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))
	return prog
}

func TestResolveConstantArithmetic(t *testing.T) {
	prog := parseProgram(t, `const V: i32 = (2 + 3) * 4;`)
	interp := consteval.NewInterpreter(prog, 1000)
	v, err := interp.ResolveConstant("/main.bp", "V")
	require.NoError(t, err)
	require.Equal(t, ast.ConstInt, v.Kind)
	require.Equal(t, uint64(20), v.Int)
}

func TestResolveConstantIsMemoized(t *testing.T) {
	prog := parseProgram(t, `const V: i32 = 1 + 1;`)
	interp := consteval.NewInterpreter(prog, 1000)
	v1, err := interp.ResolveConstant("/main.bp", "V")
	require.NoError(t, err)
	v2, err := interp.ResolveConstant("/main.bp", "V")
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestResolveConstantDetectsSelfCycle(t *testing.T) {
	prog := parseProgram(t, `const V: i32 = V;`)
	interp := consteval.NewInterpreter(prog, 1000)
	_, err := interp.ResolveConstant("/main.bp", "V")
	require.Error(t, err)
}

func TestResolveConstantMissingIdentifier(t *testing.T) {
	prog := parseProgram(t, `const V: i32 = nope;`)
	interp := consteval.NewInterpreter(prog, 1000)
	_, err := interp.ResolveConstant("/main.bp", "V")
	require.Error(t, err)
}

func TestEvalAllConstantsDivisionByZero(t *testing.T) {
	prog := parseProgram(t, `const V: i32 = 10 / 0;`)
	interp := consteval.NewInterpreter(prog, 1000)
	err := interp.EvalAllConstants()
	require.Error(t, err)
}

func TestEvalConstBooleanLogic(t *testing.T) {
	prog := parseProgram(t, `const V: bool = true && (1 < 2);`)
	interp := consteval.NewInterpreter(prog, 1000)
	v, err := interp.ResolveConstant("/main.bp", "V")
	require.NoError(t, err)
	require.Equal(t, ast.ConstBool, v.Kind)
	require.True(t, v.Bool)
}

func TestCallConstFnEvaluatesBody(t *testing.T) {
	prog := parseProgram(t, `const fn add(a: i32, b: i32) -> i32 { a + b }`)
	interp := consteval.NewInterpreter(prog, 1000)
	idx, ok := prog.Funcs.FindByName("/main.bp", "add")
	require.True(t, ok)

	args := []ast.ConstValue{
		{Kind: ast.ConstInt, Int: 40, Type: ast.TypeI32},
		{Kind: ast.ConstInt, Int: 2, Type: ast.TypeI32},
	}
	v, err := interp.CallConstFn(idx, args)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v.Int)
}

func TestResolvePendingArrayLengthsRejectsNegative(t *testing.T) {
	prog := parseProgram(t, `type Buf = [i32; 0 - 1];`)
	interp := consteval.NewInterpreter(prog, 1000)
	err := interp.ResolvePendingArrayLengths()
	require.Error(t, err)
}

func TestResolvePendingArrayLengthsResolvesConstExpr(t *testing.T) {
	prog := parseProgram(t, `type Buf = [i32; 2 + 3];`)
	interp := consteval.NewInterpreter(prog, 1000)
	require.NoError(t, interp.ResolvePendingArrayLengths())

	arrays := prog.Types.Arrays
	require.Equal(t, 1, arrays.Len())
	a := arrays.Get(0)
	require.Equal(t, int64(5), a.Length)
}
