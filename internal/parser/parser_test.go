package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/parser"
	"github.com/bplang/bpc/internal/source"
)

func TestParseModuleDeclaresFunction(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `fn main() -> i32 { 42 }`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))

	idx, ok := prog.Funcs.FindByName("/main.bp", "main")
	require.True(t, ok)
	fn := prog.Funcs.Get(idx)
	require.Equal(t, "main", fn.Name)
	require.True(t, fn.Flags.Has(ast.FlagIsExported), "entry-module functions auto-export")
}

func TestParseModuleIsIdempotent(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `fn main() -> i32 { 1 }`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	p := parser.New(reg, prog)
	require.NoError(t, p.ParseModule("/main.bp"))
	require.NoError(t, p.ParseModule("/main.bp"))
	require.Equal(t, 1, prog.Funcs.Len(), "re-parsing an already-parsed module must be a no-op")
}

func TestParseModuleMissingFails(t *testing.T) {
	reg := source.NewRegistry()
	prog := ast.NewProgram("/main.bp", 64)
	err := parser.New(reg, prog).ParseModule("/main.bp")
	require.Error(t, err)
}

func TestParseModuleRecursesIntoImports(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/lib/math.bp", `const fn double(x: i32) -> i32 { x * 2 }`)
	require.NoError(t, err)
	_, err = reg.Load("/main.bp", `use "./lib/math.bp";
		fn main() -> i32 { 1 }`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))

	_, ok := prog.Funcs.FindByName("/lib/math.bp", "double")
	require.True(t, ok, "use declaration must trigger a recursive parse of the imported module")

	m, _ := reg.Lookup("/lib/math.bp")
	require.True(t, m.Parsed)
}

func TestParseModuleMissingImportFails(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `use "./missing.bp";
		fn main() -> i32 { 1 }`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	err = parser.New(reg, prog).ParseModule("/main.bp")
	require.Error(t, err)
}

func TestParseModuleRejectsGarbageTopLevel(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `42;`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	err = parser.New(reg, prog).ParseModule("/main.bp")
	require.Error(t, err)
}

func TestParseModuleConstDecl(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `const V: i32 = 1 + 2;
		fn main() -> i32 { V }`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))

	_, ok := prog.Consts.FindByName("/main.bp", "V")
	require.True(t, ok)
}

func TestParseModuleStructTypeAndLiteral(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", `
		type Point = struct { x: i32, y: i32 };
		fn main() -> i32 {
			let p = struct Point { x: 1, y: 2 };
			p.x + p.y
		}
	`)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 64)
	require.NoError(t, parser.New(reg, prog).ParseModule("/main.bp"))

	_, ok := prog.Funcs.FindByName("/main.bp", "main")
	require.True(t, ok)
}
