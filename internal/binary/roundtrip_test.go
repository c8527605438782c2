//go:build amd64 && cgo

package binary_test

// Dual-oracle validation of the Emitter's output, grounded on the teacher's
// internal/integration_test/vs/wasmtime and .../vs/wasmer dual-engine
// comparison harness: rather than asserting on decoded wasm structure, feed
// the emitted bytes to two independent wasm engines and trust that a module
// both accept (and, for wasmtime, execute to the expected result) is
// actually well-formed wasm.

import (
	"bytes"
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v25"
	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/bplang/bpc"
)

func compile(t *testing.T, src string) []byte {
	t.Helper()
	c := bpc.NewCompiler(nil)
	require.NoError(t, c.LoadModuleFromSource("/main.bp", src))
	out, err := c.CompileFromPath("/main.bp")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	return out
}

// assertValidWasm runs the module through wasmer (validate + instantiate)
// as an engine independent from wasmtime, which TestScenarios additionally
// drives to a result.
func assertValidWasm(t *testing.T, wasmBytes []byte) {
	t.Helper()
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	_, err := wasmer.NewModule(store, wasmBytes)
	require.NoError(t, err, "wasmer rejected emitted module")
}

func runMain(t *testing.T, wasmBytes []byte) int32 {
	t.Helper()
	engine := wasmtime.NewEngine()
	module, err := wasmtime.NewModule(engine, wasmBytes)
	require.NoError(t, err, "wasmtime rejected emitted module")
	store := wasmtime.NewStore(engine)
	instance, err := wasmtime.NewInstance(store, module, nil)
	require.NoError(t, err)
	main := instance.GetFunc(store, "main")
	require.NotNil(t, main, "main not exported")
	ret, err := main.Call(store)
	require.NoError(t, err)
	return ret.(int32)
}

// TestScenarios reproduces spec.md §8's representative end-to-end
// scenarios 1-3 plus array, struct and tuple cases, each checked against
// both oracles.
func TestScenarios(t *testing.T) {
	for _, c := range []struct {
		name string
		src  string
		want int32
	}{
		{
			name: "literal",
			src:  `fn main() -> i32 { 42 }`,
			want: 42,
		},
		{
			name: "const_fn_call",
			src:  `const fn add(a:i32,b:i32)->i32{a+b} const V:i32=add(40,2); fn main()->i32{V}`,
			want: 42,
		},
		{
			name: "fibonacci",
			src: `fn fib(n:i32)->i32{ if n<2 { return n; } return fib(n-1)+fib(n-2); }
			      fn main()->i32{ fib(10) }`,
			want: 55,
		},
		{
			name: "array_len",
			src:  `fn main()->i32{ let a = [10,20,30]; len(a) }`,
			want: 3,
		},
		{
			name: "array_element_assign",
			src:  `fn main()->i32{ let mut a = [1,2,3]; a[1] = 99; a[1] }`,
			want: 99,
		},
		{
			name: "struct_field_assign",
			src: `type Point = struct { x: i32, y: i32 };
			      fn main()->i32{ let mut p = struct Point { x: 1, y: 2 }; p.x = 42; p.x }`,
			want: 42,
		},
		{
			name: "tuple_field_assign",
			src:  `fn main()->i32{ let mut t = (1, 2); t.0 = 42; t.0 }`,
			want: 42,
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			wasmBytes := compile(t, c.src)
			assertValidWasm(t, wasmBytes)
			require.Equal(t, c.want, runMain(t, wasmBytes))
		})
	}
}

// TestChooseSpecializationRunsToResult reproduces scenario 4: calls of
// `choose` with a bool const parameter compile to a valid module whose
// main returns 25. The clone count itself is checked in internal/validate.
func TestChooseSpecializationRunsToResult(t *testing.T) {
	src := `fn choose(const F:bool,v:i32)->i32{ if F { v } else { v+10 } }
	        fn main()->i32{ choose(true,7)+choose(true,3)+choose(false,5) }`
	wasmBytes := compile(t, src)
	assertValidWasm(t, wasmBytes)
	require.Equal(t, int32(25), runMain(t, wasmBytes))
}

// TestDivisionByZeroDiagnostic reproduces scenario 6: a const-eval division
// by zero fails the compile with a located diagnostic, never reaching the
// emitter.
func TestDivisionByZeroDiagnostic(t *testing.T) {
	c := bpc.NewCompiler(nil)
	require.NoError(t, c.LoadModuleFromSource("/main.bp", `const V:i32 = 10 % 0;`))
	_, err := c.CompileFromPath("/main.bp")
	require.Error(t, err)
	require.Contains(t, err.Error(), "/main.bp:")
}

// TestStringLiteralEmitsFixedByteArray reproduces scenario 5: a string
// literal coerced to `[u8;5]` emits the exact i32.const-per-byte then
// array.new_fixed sequence spec.md §8 names for "hello".
func TestStringLiteralEmitsFixedByteArray(t *testing.T) {
	wasmBytes := compile(t, `fn main() -> [u8;5] { "hello" }`)
	assertValidWasm(t, wasmBytes)
	want := []byte{
		0x41, 0xE8, 0x00, // i32.const 'h'
		0x41, 0xE5, 0x00, // i32.const 'e'
		0x41, 0xEC, 0x00, // i32.const 'l'
		0x41, 0xEC, 0x00, // i32.const 'l'
		0x41, 0xEF, 0x00, // i32.const 'o'
		0xFB, 0x08, 0x00, 0x05, // array.new_fixed (type 0, 5 elements)
	}
	require.True(t, bytes.Contains(wasmBytes, want), "emitted module does not contain the scenario 5 byte sequence")
}

// TestEmitIsDeterministic reproduces spec.md §8's "Deterministic emission"
// guarantee: compiling the same modules twice (in two fresh Compilers)
// produces byte-identical output. With two taken function values this would
// previously flake under map-iteration order on the element section.
func TestEmitIsDeterministic(t *testing.T) {
	src := `fn main() -> i32 {
	            let fa = fn() -> i32 { 1 };
	            let fb = fn() -> i32 { 2 };
	            let fc = fn() -> i32 { 3 };
	            let fd = fn() -> i32 { 4 };
	            0
	        }`
	first := compile(t, src)
	second := compile(t, src)
	require.Equal(t, first, second)
}
