package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/parser"
	"github.com/bplang/bpc/internal/source"
	"github.com/bplang/bpc/internal/validate"
)

// parseAndValidate runs a module through the Parser, Const Interpreter, and
// Validator, returning the first error from any stage.
func parseAndValidate(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", src)
	require.NoError(t, err)

	prog := ast.NewProgram("/main.bp", 256)
	if err := parser.New(reg, prog).ParseModule("/main.bp"); err != nil {
		return prog, err
	}

	interp := consteval.NewInterpreter(prog, 1000)
	if err := interp.ResolvePendingArrayLengths(); err != nil {
		return prog, err
	}
	if err := interp.EvalAllConstants(); err != nil {
		return prog, err
	}

	specializer := consteval.NewSpecializer(prog, interp)
	return prog, validate.New(prog, interp, specializer).ValidateProgram()
}

func TestValidateProgram_OK(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { 42 }`)
	require.NoError(t, err)
}

func TestValidateProgram_MissingMain(t *testing.T) {
	_, err := parseAndValidate(t, `fn helper() -> i32 { 1 }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "main")
}

func TestValidateProgram_MainTakesParams(t *testing.T) {
	_, err := parseAndValidate(t, `fn main(x: i32) -> i32 { x }`)
	require.Error(t, err)
}

func TestValidateProgram_ReturnTypeMismatch(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { true }`)
	require.Error(t, err)
}

func TestValidateProgram_SpecializesConstBoolParam(t *testing.T) {
	prog, err := parseAndValidate(t, `
		fn choose(const F: bool, v: i32) -> i32 { if F { v } else { v + 10 } }
		fn main() -> i32 { choose(true, 7) + choose(true, 3) + choose(false, 5) }
	`)
	require.NoError(t, err)

	specializations := 0
	for _, fn := range prog.Funcs.All() {
		if fn.Flags.Has(ast.FlagIsSpecialization) {
			specializations++
		}
	}
	require.Equal(t, 2, specializations)
}

func TestValidateProgram_IfBranchMismatch(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { if true { 1 } else { true } }`)
	require.Error(t, err)
}

func TestValidateProgram_UndefinedIdent(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { nope }`)
	require.Error(t, err)
}

func TestValidateProgram_StringLiteralCoercesToByteArray(t *testing.T) {
	prog, err := parseAndValidate(t, `fn main() -> [u8;5] { "hello" }`)
	require.NoError(t, err)
	require.Equal(t, 1, prog.Types.Arrays.Len())
	arr := prog.Types.Arrays.Get(0)
	require.Equal(t, ast.TypeU8, arr.Elem)
	require.Equal(t, int64(5), arr.Length)
}

func TestValidateProgram_StringLiteralLengthMismatch(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> [u8;4] { "hello" }`)
	require.Error(t, err)
}

func TestValidateProgram_LenRequiresArrayOperand(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { len(42) }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "len requires an array operand")
}

func TestValidateProgram_LenOfArrayReturnsI32(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { let a = [1,2,3]; len(a) }`)
	require.NoError(t, err)
}

func TestValidateProgram_ArrayElementAssignment(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { let mut a = [1,2,3]; a[0] = 9; a[0] }`)
	require.NoError(t, err)
}

func TestValidateProgram_ArrayElementAssignmentTypeMismatch(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { let mut a = [1,2,3]; a[0] = true; a[0] }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "array element assignment type mismatch")
}

func TestValidateProgram_TupleFieldAssignment(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { let mut t = (1, 2); t.0 = 9; t.0 }`)
	require.NoError(t, err)
}

func TestValidateProgram_TupleFieldAssignmentTypeMismatch(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { let mut t = (1, 2); t.0 = true; t.0 }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tuple field assignment type mismatch")
}

func TestValidateProgram_StructFieldAssignment(t *testing.T) {
	_, err := parseAndValidate(t, `
		type Point = struct { x: i32, y: i32 };
		fn main() -> i32 { let mut p = struct Point { x: 1, y: 2 }; p.x = 9; p.x }
	`)
	require.NoError(t, err)
}

func TestValidateProgram_CannotAssignToLiteral(t *testing.T) {
	_, err := parseAndValidate(t, `fn main() -> i32 { 1 = 2; 0 }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot assign to this expression")
}
