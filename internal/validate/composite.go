package validate

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// validateIndex checks `base[index]` (spec.md §4.6: "Indexing non-array
// value", "array index requires integer indices", bounds diagnostics for
// constant indices).
func (fc *funcCtx) validateIndex(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	baseType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
	if err != nil {
		return 0, err
	}
	if baseType.Kind() != ast.KindArray {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "indexing non-array value")
	}
	indexType, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
	if err != nil {
		return 0, err
	}
	if !indexType.IsInteger() {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "array index requires integer indices")
	}
	arr := v.prog.Types.Array(baseType)
	if lit := v.prog.Exprs.Get(ast.ExprIndex(ex.B)); lit.Kind == ast.ExprIntLit {
		raw := int64(uint64(lit.A) | uint64(lit.B)<<32)
		if raw < 0 {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "array index must be non-negative")
		}
		if raw >= arr.Length {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "array index out of bounds")
		}
	}
	v.prog.Exprs.SetType(idx, arr.Elem)
	return arr.Elem, nil
}

// validateField checks `base.N` (tuple index) and `base.name` (struct
// field) accesses.
func (fc *funcCtx) validateField(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	baseType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
	if err != nil {
		return 0, err
	}
	if ex.C == 1 {
		if baseType.Kind() != ast.KindTuple {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "tuple index on non-tuple value")
		}
		tup := v.prog.Types.Tuple(baseType)
		if int(ex.B) >= len(tup.Fields) {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "tuple index out of range")
		}
		fieldType := tup.Fields[ex.B]
		v.prog.Exprs.SetType(idx, fieldType)
		return fieldType, nil
	}
	if baseType.Kind() != ast.KindStruct {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "field access on non-struct value")
	}
	fieldName := v.prog.Exprs.Name(ex.B)
	st := v.prog.Types.Struct(baseType)
	for _, f := range st.Fields {
		if f.Name == fieldName {
			v.prog.Exprs.SetType(idx, f.Type)
			return f.Type, nil
		}
	}
	return 0, diag.At(fc.path(), ex.Line, ex.Col, "unknown field %q", fieldName)
}

// validateArrayList checks `[e1, e2, ...]`: every element must share one
// type, and the list's length fixes the array type's Length.
func (fc *funcCtx) validateArrayList(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	items := v.prog.Exprs.List(ex.A, ex.B)
	if len(items) == 0 {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "empty array literal requires a known element type")
	}
	elemType, err := fc.validateExpr(items[0], sc)
	if err != nil {
		return 0, err
	}
	for _, it := range items[1:] {
		t, err := fc.validateExpr(it, sc)
		if err != nil {
			return 0, err
		}
		if t != elemType {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "array literal elements must have matching type")
		}
	}
	arrType, err := v.prog.Types.InternArray(elemType, int64(len(items)))
	if err != nil {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, err.Error())
	}
	v.prog.Exprs.SetType(idx, arrType)
	return arrType, nil
}

// validateArrayRepeat checks `[value; length]`: length must be a
// non-negative const integer.
func (fc *funcCtx) validateArrayRepeat(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	elemType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
	if err != nil {
		return 0, err
	}
	lengthVal, err := v.interp.EvalConst(ast.ExprIndex(ex.B), fc.path())
	if err != nil {
		return 0, err
	}
	n := int64(lengthVal.Int)
	if w := lengthVal.Type.BitWidth(); lengthVal.Type.IsInteger() && lengthVal.Type.IsSigned() && w < 64 {
		n = int64(lengthVal.Int<<uint(64-w)) >> uint(64-w) // sign-extend
	}
	if lengthVal.Kind != ast.ConstInt || n < 0 {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "array length must be a non-negative integer constant")
	}
	arrType, err := v.prog.Types.InternArray(elemType, n)
	if err != nil {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, err.Error())
	}
	v.prog.Exprs.SetType(idx, arrType)
	return arrType, nil
}

// validateTupleLit checks `(e1, e2, ...)`.
func (fc *funcCtx) validateTupleLit(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	items := v.prog.Exprs.List(ex.A, ex.B)
	fields := make([]ast.TypeID, len(items))
	for i, it := range items {
		t, err := fc.validateExpr(it, sc)
		if err != nil {
			return 0, err
		}
		fields[i] = t
	}
	tupType, err := v.prog.Types.InternTuple(fields)
	if err != nil {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, err.Error())
	}
	v.prog.Exprs.SetType(idx, tupType)
	return tupType, nil
}

// validateStructLit checks `struct Name { field: expr, ... }`: the
// struct must be declared, every declared field must be initialized
// exactly once, and each value's type must match its field's declared
// type.
func (fc *funcCtx) validateStructLit(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	name := v.prog.Exprs.Name(ex.A)
	structIdx := -1
	for i, s := range v.prog.Types.Structs.All() {
		if s.Module == fc.path() && s.Name == name {
			structIdx = i
			break
		}
	}
	if structIdx < 0 {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "unknown struct type %q", name)
	}
	structType := ast.StructTypeID(uint32(structIdx))
	st := v.prog.Types.Struct(structType)

	pairs := v.prog.Exprs.List(ex.B, ex.C*2)
	if len(pairs)/2 != len(st.Fields) {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "struct literal field count does not match declaration")
	}
	seen := make([]bool, len(st.Fields))
	for i := 0; i < len(pairs); i += 2 {
		fieldNameIdx := uint32(pairs[i])
		fieldName := v.prog.Exprs.Name(fieldNameIdx)
		valueExpr := pairs[i+1]
		fieldPos := -1
		for j, f := range st.Fields {
			if f.Name == fieldName {
				fieldPos = j
				break
			}
		}
		if fieldPos < 0 {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "unknown field %q", fieldName)
		}
		if seen[fieldPos] {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "duplicate field %q in struct literal", fieldName)
		}
		seen[fieldPos] = true
		valType, err := fc.validateExpr(valueExpr, sc)
		if err != nil {
			return 0, err
		}
		if valType != st.Fields[fieldPos].Type {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "field %q initializer type does not match declared type", fieldName)
		}
	}
	v.prog.Exprs.SetType(idx, structType)
	return structType, nil
}
