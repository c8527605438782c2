package consteval

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// intConst builds a ConstValue for an integer literal of type ty, masking
// to its declared width (spec.md §4.5 "the sign/width of their operand
// type").
func intConst(ty ast.TypeID, raw uint64) ast.ConstValue {
	return ast.ConstValue{Kind: ast.ConstInt, Int: mask(ty, raw), Type: ty}
}

func boolConst(b bool) ast.ConstValue {
	return ast.ConstValue{Kind: ast.ConstBool, Bool: b, Type: ast.TypeBool}
}

func mask(ty ast.TypeID, v uint64) uint64 {
	w := ty.BitWidth()
	if w == 0 || w == 64 {
		return v
	}
	return v & ((uint64(1) << w) - 1)
}

// signExtend sign-extends the low w bits of v to a full int64.
func signExtend(v uint64, w int) int64 {
	if w == 64 {
		return int64(v)
	}
	shift := 64 - w
	return int64(v<<uint(shift)) >> uint(shift)
}

func asSigned(cv ast.ConstValue) int64 {
	return signExtend(cv.Int, cv.Type.BitWidth())
}

func asUnsigned(cv ast.ConstValue) uint64 {
	return mask(cv.Type, cv.Int)
}

func evalBinary(path string, line, col int, op ast.BinOp, lhs, rhs ast.ConstValue) (ast.ConstValue, error) {
	switch op {
	case ast.OpLogAnd:
		return boolConst(lhs.Bool && rhs.Bool), nil
	case ast.OpLogOr:
		return boolConst(lhs.Bool || rhs.Bool), nil
	}
	if lhs.Kind == ast.ConstBool {
		switch op {
		case ast.OpEq:
			return boolConst(lhs.Bool == rhs.Bool), nil
		case ast.OpNe:
			return boolConst(lhs.Bool != rhs.Bool), nil
		}
	}
	ty := lhs.Type
	signed := ty.IsSigned()
	switch op {
	case ast.OpAdd:
		return intConst(ty, lhs.Int+rhs.Int), nil
	case ast.OpSub:
		return intConst(ty, lhs.Int-rhs.Int), nil
	case ast.OpMul:
		return intConst(ty, lhs.Int*rhs.Int), nil
	case ast.OpDiv:
		if rhs.Int == 0 {
			return ast.ConstValue{}, diag.At(path, line, col, "division by zero")
		}
		if signed {
			return intConst(ty, uint64(asSigned(lhs)/asSigned(rhs))), nil
		}
		return intConst(ty, asUnsigned(lhs)/asUnsigned(rhs)), nil
	case ast.OpMod:
		if rhs.Int == 0 {
			return ast.ConstValue{}, diag.At(path, line, col, "division by zero")
		}
		if signed {
			// truncated-toward-zero semantics (spec.md §4.5).
			return intConst(ty, uint64(asSigned(lhs)%asSigned(rhs))), nil
		}
		return intConst(ty, asUnsigned(lhs)%asUnsigned(rhs)), nil
	case ast.OpAnd:
		return intConst(ty, lhs.Int&rhs.Int), nil
	case ast.OpOr:
		return intConst(ty, lhs.Int|rhs.Int), nil
	case ast.OpXor:
		return intConst(ty, lhs.Int^rhs.Int), nil
	case ast.OpShl:
		return intConst(ty, lhs.Int<<uint(rhs.Int)), nil
	case ast.OpShr:
		if signed {
			return intConst(ty, uint64(asSigned(lhs)>>uint(rhs.Int))), nil
		}
		return intConst(ty, asUnsigned(lhs)>>uint(rhs.Int)), nil
	case ast.OpEq:
		return boolConst(lhs.Int == rhs.Int), nil
	case ast.OpNe:
		return boolConst(lhs.Int != rhs.Int), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		var less, equal bool
		if signed {
			a, b := asSigned(lhs), asSigned(rhs)
			less, equal = a < b, a == b
		} else {
			a, b := asUnsigned(lhs), asUnsigned(rhs)
			less, equal = a < b, a == b
		}
		switch op {
		case ast.OpLt:
			return boolConst(less), nil
		case ast.OpLe:
			return boolConst(less || equal), nil
		case ast.OpGt:
			return boolConst(!less && !equal), nil
		default: // OpGe
			return boolConst(!less), nil
		}
	}
	return ast.ConstValue{}, diag.At(path, line, col, "unsupported const operator")
}

func evalUnary(ty ast.TypeID, op ast.UnOp, v ast.ConstValue) ast.ConstValue {
	switch op {
	case ast.OpNeg:
		return intConst(ty, uint64(-asSigned(v)))
	case ast.OpNot:
		return boolConst(!v.Bool)
	}
	return v
}

// EncodeKey renders a list of const-key entries into the encoding described in
// spec.md §3 "Call-metadata" / glossary "Const-key": sorted
// (param index, value, type id) triples. Sorting by param index is free
// here since callers always build entries in declaration order.
func EncodeKey(entries []ast.ConstKeyEntry) string {
	buf := make([]byte, 0, len(entries)*16)
	for _, e := range entries {
		buf = appendU32(buf, e.ParamIndex)
		buf = appendU32(buf, uint32(e.Type))
		buf = appendU64(buf, e.Value.Int)
		if e.Value.Kind == ast.ConstBool {
			if e.Value.Bool {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
		if e.Value.Kind == ast.ConstType {
			buf = appendU32(buf, uint32(e.Value.AsType))
		}
		buf = append(buf, byte(e.Value.Kind))
	}
	return string(buf)
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
