package binary

import "github.com/bplang/bpc/internal/ast"

// WebAssembly value-type and heap-type opcodes used by this emitter
// (WebAssembly GC proposal, typed-reference encoding).
const (
	valI32 = 0x7F
	valI64 = 0x7E

	storageI8  = 0x78 // packed storage type, struct/array fields only
	storageI16 = 0x77

	funcTypeForm   = 0x60
	arrayTypeForm  = 0x5E
	structTypeForm = 0x5F

	refNull = 0x64 // (ref ht), non-nullable; (ref null ht) would be 0x63

	fieldImmutable = 0x00
	fieldMutable   = 0x01
)

// typeIndexOf returns ty's assigned WebAssembly type-section index. ty
// must already have been visited by typesec.Assigner.
func (e *Emitter) typeIndexOf(ty ast.TypeID) uint32 {
	switch ty.Kind() {
	case ast.KindArray:
		return e.prog.Types.Array(ty).WasmTypeIx
	case ast.KindTuple:
		return e.prog.Types.Tuple(ty).WasmTypeIx
	case ast.KindStruct:
		return e.prog.Types.Struct(ty).WasmTypeIx
	case ast.KindFuncSig, ast.KindAnonFunc:
		return e.prog.Types.FuncSig(ty).WasmTypeIx
	}
	return 0
}

// valType appends the WebAssembly value-type encoding of ty to buf. Every
// bp integer and bool primitive maps onto a wasm numeric type; unit
// contributes nothing (callers drop it from param/result lists); every
// composite type becomes a non-nullable reference to its type-section entry.
func (e *Emitter) valType(buf []byte, ty ast.TypeID) []byte {
	if ty.Kind() == ast.KindPrimitive {
		if ty.BitWidth() > 32 {
			return append(buf, valI64)
		}
		return append(buf, valI32) // i8/i16/i32/u8/u16/u32/bool all fit i32
	}
	buf = append(buf, refNull)
	return AppendInt32(buf, int32(e.typeIndexOf(ty)))
}

// fieldStorageType appends the WebAssembly storagetype encoding of ty, used
// only inside struct/array field defs. i8/u8/i16/u16 fields use the packed
// storage forms (spec.md §4.7); every other type falls back to valType,
// since packed storage is not a legal value type outside a field/element.
func (e *Emitter) fieldStorageType(buf []byte, ty ast.TypeID) []byte {
	if ty.IsInteger() && ty.BitWidth() == 8 {
		return append(buf, storageI8)
	}
	if ty.IsInteger() && ty.BitWidth() == 16 {
		return append(buf, storageI16)
	}
	return e.valType(buf, ty)
}

// isUnit reports whether ty is the unit type, which contributes no wasm
// value slot.
func isUnit(ty ast.TypeID) bool {
	return ty.Kind() == ast.KindPrimitive && ty.Payload() == ast.PrimUnit
}

// appendValTypes appends the wasm value-type sequence for a list of bp
// types, skipping unit entries.
func (e *Emitter) appendValTypes(buf []byte, types []ast.TypeID) []byte {
	n := 0
	for _, t := range types {
		if !isUnit(t) {
			n++
		}
	}
	buf = AppendUint32(buf, uint32(n))
	for _, t := range types {
		if !isUnit(t) {
			buf = e.valType(buf, t)
		}
	}
	return buf
}
