package typesec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/parser"
	"github.com/bplang/bpc/internal/source"
	"github.com/bplang/bpc/internal/typesec"
	"github.com/bplang/bpc/internal/validate"
)

// buildAndAssign runs a module through the full front end plus type
// assignment, returning the assembled Assigner.
func buildAndAssign(t *testing.T, src string) (*ast.Program, *typesec.Assigner) {
	t.Helper()
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", src)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 256)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))

	interp := consteval.NewInterpreter(prog, 1000)
	require.NoError(t, interp.ResolvePendingArrayLengths())
	require.NoError(t, interp.EvalAllConstants())

	specializer := consteval.NewSpecializer(prog, interp)
	require.NoError(t, validate.New(prog, interp, specializer).ValidateProgram())

	a := typesec.NewAssigner(prog)
	require.NoError(t, a.Assign())
	return prog, a
}

func TestAssign_FuncSigAssignedForMain(t *testing.T) {
	prog, a := buildAndAssign(t, `fn main() -> i32 { 42 }`)
	mainIdx, ok := prog.Funcs.FindByName("/main.bp", "main")
	require.True(t, ok)
	sig, ok := a.FuncSigOf[mainIdx]
	require.True(t, ok)
	require.Equal(t, ast.KindFuncSig, sig.Kind())
}

func TestAssign_StructReceivesTypeIndex(t *testing.T) {
	_, a := buildAndAssign(t, `
		type Point = struct { x: i32, y: i32 };
		fn main() -> i32 {
			let p = struct Point { x: 1, y: 2 };
			p.x + p.y
		}
	`)
	order := a.Ordered()
	require.NotEmpty(t, order)

	hasStruct := false
	for _, id := range order {
		if id.Kind() == ast.KindStruct {
			hasStruct = true
		}
	}
	require.True(t, hasStruct, "Point must receive a type-section index")
}

func TestAssign_SkipsConstFns(t *testing.T) {
	prog, a := buildAndAssign(t, `
		const fn add(a: i32, b: i32) -> i32 { a + b }
		const V: i32 = add(1, 2);
		fn main() -> i32 { V }
	`)
	for i := 0; i < prog.Funcs.Len(); i++ {
		idx := ast.FuncIndex(i)
		fn := prog.Funcs.Get(idx)
		if fn.Name == "add" {
			_, has := a.FuncSigOf[idx]
			require.False(t, has, "const fn must not receive a wasm type index")
		}
	}
}
