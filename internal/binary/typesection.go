package binary

import "github.com/bplang/bpc/internal/ast"

// typeSection encodes the WebAssembly type section body (vec of type
// defs) from the dependency-ordered composite types typesec.Assigner
// produced. Each entry is written at the index its WasmTypeIx field
// already holds, so this must be called with e.order in the same
// ascending order the assigner assigned indices in.
func (e *Emitter) typeSection() []byte {
	var body []byte
	body = AppendUint32(body, uint32(len(e.order)))
	for _, id := range e.order {
		body = e.appendTypeDef(body, id)
	}
	return body
}

func (e *Emitter) appendTypeDef(buf []byte, id ast.TypeID) []byte {
	switch id.Kind() {
	case ast.KindArray:
		arr := e.prog.Types.Array(id)
		buf = append(buf, arrayTypeForm)
		buf = e.appendFieldType(buf, arr.Elem, true, true)
		return buf
	case ast.KindStruct:
		st := e.prog.Types.Struct(id)
		buf = append(buf, structTypeForm)
		buf = AppendUint32(buf, uint32(len(st.Fields)))
		for _, f := range st.Fields {
			// Struct fields stay unpacked: genField/genStructLit read/write
			// them with plain struct.get/struct.set, which packed (i8/i16)
			// storage types do not support.
			buf = e.appendFieldType(buf, f.Type, true, false)
		}
		return buf
	case ast.KindTuple:
		// Tuples have no native wasm form; this emitter represents them as
		// anonymous structs with positional (unnamed) fields.
		tup := e.prog.Types.Tuple(id)
		buf = append(buf, structTypeForm)
		buf = AppendUint32(buf, uint32(len(tup.Fields)))
		for _, f := range tup.Fields {
			buf = e.appendFieldType(buf, f, true, false)
		}
		return buf
	case ast.KindFuncSig, ast.KindAnonFunc:
		sig := e.prog.Types.FuncSig(id)
		buf = append(buf, funcTypeForm)
		buf = e.appendValTypes(buf, sig.Params)
		results := []ast.TypeID{sig.Result}
		buf = e.appendValTypes(buf, results)
		return buf
	}
	return buf
}

// appendFieldType appends a wasm `fieldtype` (storage type + mutability
// byte). Every bp struct/array field is mutable: the source language has
// no const-field concept distinct from the whole-binding immutability
// already enforced by the validator's `mut` tracking. packed selects
// whether i8/u8/i16/u16 elements use wasm's packed storage forms, which
// is only safe where the codegen paired with this type def already reads
// and writes them with the matching packed accessors (array.get_s/get_u).
func (e *Emitter) appendFieldType(buf []byte, ty ast.TypeID, mutable, packed bool) []byte {
	if packed {
		buf = e.fieldStorageType(buf, ty)
	} else {
		buf = e.valType(buf, ty)
	}
	if mutable {
		return append(buf, fieldMutable)
	}
	return append(buf, fieldImmutable)
}
