// Package ast holds the arena-backed tables the parser, const interpreter,
// validator, and emitter all share: types, expressions, functions,
// constants, and call-metadata. Every cross-reference between these is an
// index into one of these tables (spec.md §3, §9 "Arena + indices instead
// of pointer graphs").
package ast

// TypeID is a 32-bit interned type descriptor: a 1-byte kind tag in the
// high byte plus a kind-specific payload in the low 24 bits (spec.md §3
// "Type").
type TypeID uint32

const (
	typeKindShift = 24
	typeKindMask  = 0xFF << typeKindShift
	typePayloadMask = (1 << typeKindShift) - 1
)

// Type kinds.
const (
	KindPrimitive uint32 = iota
	KindArray
	KindTuple
	KindStruct
	KindFuncSig
	KindAnonFunc
)

// Primitive payload values (only meaningful when Kind(id) == KindPrimitive).
const (
	PrimI8 uint32 = iota
	PrimI16
	PrimI32
	PrimI64
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimBool
	PrimUnit
	PrimType // the type of a compile-time type value
)

func makeType(kind, payload uint32) TypeID {
	return TypeID((kind << typeKindShift) | (payload & typePayloadMask))
}

// Kind extracts the type kind from an id.
func (t TypeID) Kind() uint32 { return uint32(t) >> typeKindShift }

// Payload extracts the kind-specific low bits (an index into the relevant
// table for composite kinds, or a Prim* constant for primitives).
func (t TypeID) Payload() uint32 { return uint32(t) & typePayloadMask }

// Primitive type ids, constructed once.
var (
	TypeI8   = makeType(KindPrimitive, PrimI8)
	TypeI16  = makeType(KindPrimitive, PrimI16)
	TypeI32  = makeType(KindPrimitive, PrimI32)
	TypeI64  = makeType(KindPrimitive, PrimI64)
	TypeU8   = makeType(KindPrimitive, PrimU8)
	TypeU16  = makeType(KindPrimitive, PrimU16)
	TypeU32  = makeType(KindPrimitive, PrimU32)
	TypeU64  = makeType(KindPrimitive, PrimU64)
	TypeBool = makeType(KindPrimitive, PrimBool)
	TypeUnit = makeType(KindPrimitive, PrimUnit)
	TypeType = makeType(KindPrimitive, PrimType)

	// TypeInvalid is never a valid resolved type; it marks "not yet
	// resolved" in freshly-appended expression records.
	TypeInvalid = TypeID(0xFFFFFFFF)
)

func ArrayTypeID(index uint32) TypeID  { return makeType(KindArray, index) }
func TupleTypeID(index uint32) TypeID  { return makeType(KindTuple, index) }
func StructTypeID(index uint32) TypeID { return makeType(KindStruct, index) }
func FuncSigTypeID(index uint32) TypeID { return makeType(KindFuncSig, index) }
func AnonFuncTypeID(index uint32) TypeID { return makeType(KindAnonFunc, index) }

var primitiveNames = map[string]TypeID{
	"i8": TypeI8, "i16": TypeI16, "i32": TypeI32, "i64": TypeI64,
	"u8": TypeU8, "u16": TypeU16, "u32": TypeU32, "u64": TypeU64,
	"bool": TypeBool, "unit": TypeUnit, "type": TypeType,
}

// PrimitiveByName resolves a bare type-name identifier to its primitive
// TypeID, if it names one (spec.md §3 "Primitives").
func PrimitiveByName(name string) (TypeID, bool) {
	t, ok := primitiveNames[name]
	return t, ok
}

// IsInteger reports whether t is one of the eight integer primitives.
func (t TypeID) IsInteger() bool {
	if t.Kind() != KindPrimitive {
		return false
	}
	switch t.Payload() {
	case PrimI8, PrimI16, PrimI32, PrimI64, PrimU8, PrimU16, PrimU32, PrimU64:
		return true
	}
	return false
}

// IsSigned reports whether an integer primitive is signed. Only meaningful
// when IsInteger() is true.
func (t TypeID) IsSigned() bool {
	switch t.Payload() {
	case PrimI8, PrimI16, PrimI32, PrimI64:
		return true
	}
	return false
}

// BitWidth returns the width in bits of an integer primitive.
func (t TypeID) BitWidth() int {
	switch t.Payload() {
	case PrimI8, PrimU8:
		return 8
	case PrimI16, PrimU16:
		return 16
	case PrimI32, PrimU32:
		return 32
	case PrimI64, PrimU64:
		return 64
	}
	return 0
}

// ArrayType is the composite payload for KindArray.
type ArrayType struct {
	Elem       TypeID
	Length     int64 // negative (pendingArrayKey) until resolved by const-eval
	LengthExpr ExprIndex // the unevaluated length expression, while pending
	Module     string    // module the length expression's identifiers resolve in
	WasmTypeIx uint32
	HasWasmIx  bool
}

// TupleType is the composite payload for KindTuple. Capacity bound:
// spec.md §3 "≤ small fixed bound" — enforced by the table capacity below.
type TupleType struct {
	Fields     []TypeID
	WasmTypeIx uint32
	HasWasmIx  bool
}

// StructField is one named, typed field of a struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructType is the composite payload for KindStruct.
type StructType struct {
	Name       string // declared struct name, resolved at intern time
	Module     string // owning module, so same-named structs in different modules differ
	Fields     []StructField
	WasmTypeIx uint32
	HasWasmIx  bool
}

// FuncSigType is the composite payload for KindFuncSig and KindAnonFunc.
type FuncSigType struct {
	Params        []TypeID
	ConstParamBit uint64 // bit i set iff Params[i] is a const parameter
	Result        TypeID
	WasmTypeIx    uint32
	HasWasmIx     bool
}

