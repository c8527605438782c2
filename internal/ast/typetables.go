package ast

import (
	"github.com/bplang/bpc/internal/arena"
	"github.com/bplang/bpc/internal/diag"
)

// TypeTableCapacity bounds each composite type table, per spec.md §3 Type
// invariant: "linear search up to capacity 256 per table".
const TypeTableCapacity = 256

// TypeTables interns the composite type kinds (array/tuple/struct/
// function-signature) so that structurally equal types compare equal as
// ids (spec.md §3 Type invariant).
type TypeTables struct {
	Arrays   *arena.Table[ArrayType]
	Tuples   *arena.Table[TupleType]
	Structs  *arena.Table[StructType]
	FuncSigs *arena.Table[FuncSigType]
}

func NewTypeTables() *TypeTables {
	return &TypeTables{
		Arrays:   arena.NewTable[ArrayType]("array type table", TypeTableCapacity),
		Tuples:   arena.NewTable[TupleType]("tuple type table", TypeTableCapacity),
		Structs:  arena.NewTable[StructType]("struct type table", TypeTableCapacity),
		FuncSigs: arena.NewTable[FuncSigType]("function type table", TypeTableCapacity),
	}
}

// InternArray returns the id for an array type, reusing an existing entry
// with the same element type and length if one exists. Pending (not yet
// const-evaluated) array types are never deduplicated against each other,
// since pendingArrayKey gives each one a distinct negative length.
func (t *TypeTables) InternArray(elem TypeID, length int64) (TypeID, error) {
	for i, a := range t.Arrays.All() {
		if a.Elem == elem && a.Length == length {
			return ArrayTypeID(uint32(i)), nil
		}
	}
	idx, ok := t.Arrays.Append(ArrayType{Elem: elem, Length: length})
	if !ok {
		return 0, diag.Bare("array type table capacity exceeded")
	}
	return ArrayTypeID(idx), nil
}

// InternPendingArray records an array type whose length expression has not
// yet been const-evaluated (internal/consteval.ResolvePendingArrayLengths
// patches it once the length is known).
func (t *TypeTables) InternPendingArray(elem TypeID, lengthExpr ExprIndex, module string, pendingLength int64) (TypeID, error) {
	idx, ok := t.Arrays.Append(ArrayType{Elem: elem, Length: pendingLength, LengthExpr: lengthExpr, Module: module})
	if !ok {
		return 0, diag.Bare("array type table capacity exceeded")
	}
	return ArrayTypeID(idx), nil
}

func sameFields(a, b []TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InternTuple returns the id for a tuple type with the given field types.
func (t *TypeTables) InternTuple(fields []TypeID) (TypeID, error) {
	for i, tup := range t.Tuples.All() {
		if sameFields(tup.Fields, fields) {
			return TupleTypeID(uint32(i)), nil
		}
	}
	cp := append([]TypeID(nil), fields...)
	idx, ok := t.Tuples.Append(TupleType{Fields: cp})
	if !ok {
		return 0, diag.Bare("tuple type table capacity exceeded")
	}
	return TupleTypeID(idx), nil
}

// InternStruct returns the id for a struct type. Struct identity is by
// declared name plus owning module, matching the language's nominal (not
// structural) struct typing.
func (t *TypeTables) InternStruct(module, name string, fields []StructField) (TypeID, error) {
	for i, s := range t.Structs.All() {
		if s.Module == module && s.Name == name {
			return StructTypeID(uint32(i)), nil
		}
	}
	cp := append([]StructField(nil), fields...)
	idx, ok := t.Structs.Append(StructType{Name: name, Module: module, Fields: cp})
	if !ok {
		return 0, diag.Bare("struct type table capacity exceeded")
	}
	return StructTypeID(idx), nil
}

// InternFuncSig returns the id for a function signature (params, result,
// and which params are const).
func (t *TypeTables) InternFuncSig(params []TypeID, constBits uint64, result TypeID) (TypeID, error) {
	for i, f := range t.FuncSigs.All() {
		if f.ConstParamBit == constBits && f.Result == result && sameFields(f.Params, params) {
			return FuncSigTypeID(uint32(i)), nil
		}
	}
	cp := append([]TypeID(nil), params...)
	idx, ok := t.FuncSigs.Append(FuncSigType{Params: cp, ConstParamBit: constBits, Result: result})
	if !ok {
		return 0, diag.Bare("function type table capacity exceeded")
	}
	return FuncSigTypeID(idx), nil
}

// Array looks up an array type's payload by id.
func (t *TypeTables) Array(id TypeID) ArrayType { return t.Arrays.Get(id.Payload()) }

// Tuple looks up a tuple type's payload by id.
func (t *TypeTables) Tuple(id TypeID) TupleType { return t.Tuples.Get(id.Payload()) }

// Struct looks up a struct type's payload by id.
func (t *TypeTables) Struct(id TypeID) StructType { return t.Structs.Get(id.Payload()) }

// FuncSig looks up a function signature's payload by id.
func (t *TypeTables) FuncSig(id TypeID) FuncSigType { return t.FuncSigs.Get(id.Payload()) }
