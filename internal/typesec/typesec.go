// Package typesec assigns stable WebAssembly type-section indices to the
// array, tuple, struct, and function-signature types the validated
// program actually uses (spec.md overview: "Type Metadata Writer —
// assigns stable WebAssembly type indices to arrays, tuples, structs, and
// function signatures").
package typesec

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// Assigner computes and records WasmTypeIx/HasWasmIx on every composite
// type entry the emitter will need, plus a FuncSig index for every
// emitted function's own signature.
type Assigner struct {
	prog          *ast.Program
	visited       map[ast.TypeID]bool
	order         []ast.TypeID
	assignedCount int
	FuncSigOf     map[ast.FuncIndex]ast.TypeID
}

func NewAssigner(prog *ast.Program) *Assigner {
	return &Assigner{prog: prog, visited: map[ast.TypeID]bool{}, FuncSigOf: map[ast.FuncIndex]ast.TypeID{}}
}

// isEmitted reports whether fn is a function the emitter will produce
// code for: ordinary functions and specialization clones, but never
// const fns (compile-time only) or unspecialized generic templates
// (spec.md §4.5, §4.7).
func isEmitted(fn ast.Function) bool {
	if fn.Flags.Has(ast.FlagIsConstFn) {
		return false
	}
	if fn.Flags.Has(ast.FlagHasConstParams) && !fn.Flags.Has(ast.FlagIsSpecialization) {
		return false
	}
	return true
}

// Assign walks every emitted function's signature and body expression
// types, interns a FuncSigType for each function's own signature, and
// assigns type-section indices to every distinct composite type reached,
// in dependency order (a type's constituents always receive a lower
// index than the type itself, since GC heap-type references in this
// emitter are always backward).
func (a *Assigner) Assign() error {
	for i := 0; i < a.prog.Funcs.Len(); i++ {
		idx := ast.FuncIndex(i)
		fn := a.prog.Funcs.Get(idx)
		if !isEmitted(fn) {
			continue
		}
		sigID, err := a.prog.Types.InternFuncSig(paramTypes(fn.Params), 0, fn.ReturnType)
		if err != nil {
			return diag.At(fn.Module, fn.Line, fn.Col, err.Error())
		}
		a.FuncSigOf[idx] = sigID
		a.visit(sigID)
	}
	for i := 0; i < a.prog.Exprs.Len(); i++ {
		ex := a.prog.Exprs.Get(ast.ExprIndex(i))
		a.visit(ex.Type)
	}
	for _, id := range a.order {
		a.patch(id)
	}
	return nil
}

// Ordered returns every composite type that received an index, in
// ascending index order — the exact sequence the emitter must write the
// WebAssembly type section in.
func (a *Assigner) Ordered() []ast.TypeID { return a.order }

func paramTypes(params []ast.Param) []ast.TypeID {
	out := make([]ast.TypeID, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

func isComposite(id ast.TypeID) bool {
	switch id.Kind() {
	case ast.KindArray, ast.KindTuple, ast.KindStruct, ast.KindFuncSig, ast.KindAnonFunc:
		return true
	}
	return false
}

// visit performs a post-order DFS over id's constituent types so that
// every dependency is appended to a.order strictly before id itself.
func (a *Assigner) visit(id ast.TypeID) {
	if !isComposite(id) || a.visited[id] {
		return
	}
	a.visited[id] = true
	for _, dep := range a.deps(id) {
		a.visit(dep)
	}
	a.order = append(a.order, id)
}

func (a *Assigner) deps(id ast.TypeID) []ast.TypeID {
	switch id.Kind() {
	case ast.KindArray:
		arr := a.prog.Types.Array(id)
		return []ast.TypeID{arr.Elem}
	case ast.KindTuple:
		tup := a.prog.Types.Tuple(id)
		return tup.Fields
	case ast.KindStruct:
		st := a.prog.Types.Struct(id)
		out := make([]ast.TypeID, len(st.Fields))
		for i, f := range st.Fields {
			out[i] = f.Type
		}
		return out
	case ast.KindFuncSig, ast.KindAnonFunc:
		sig := a.prog.Types.FuncSig(id)
		return append(append([]ast.TypeID{}, sig.Params...), sig.Result)
	}
	return nil
}

// patch stamps the next sequential type-section index onto id's table
// entry.
func (a *Assigner) patch(id ast.TypeID) {
	ix := uint32(a.assignedCount)
	switch id.Kind() {
	case ast.KindArray:
		arr := a.prog.Types.Array(id)
		arr.WasmTypeIx, arr.HasWasmIx = ix, true
		a.prog.Types.Arrays.Set(id.Payload(), arr)
	case ast.KindTuple:
		tup := a.prog.Types.Tuple(id)
		tup.WasmTypeIx, tup.HasWasmIx = ix, true
		a.prog.Types.Tuples.Set(id.Payload(), tup)
	case ast.KindStruct:
		st := a.prog.Types.Struct(id)
		st.WasmTypeIx, st.HasWasmIx = ix, true
		a.prog.Types.Structs.Set(id.Payload(), st)
	case ast.KindFuncSig, ast.KindAnonFunc:
		sig := a.prog.Types.FuncSig(id)
		sig.WasmTypeIx, sig.HasWasmIx = ix, true
		a.prog.Types.FuncSigs.Set(id.Payload(), sig)
	}
	a.assignedCount++
}
