package consteval

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// ResolvePendingArrayLengths evaluates the length expression of every
// array type the parser left pending (spec.md §4.4 "array lengths are
// parsed as expressions and resolved by the const interpreter") and
// patches the table entry in place with the resolved, non-negative
// length.
func (in *Interpreter) ResolvePendingArrayLengths() error {
	arrays := in.prog.Types.Arrays
	for i := 0; i < arrays.Len(); i++ {
		a := arrays.Get(uint32(i))
		if a.Length >= 0 {
			continue
		}
		v, err := in.EvalConst(a.LengthExpr, a.Module)
		if err != nil {
			return err
		}
		n := int64(v.Int)
		if v.Type.IsInteger() && v.Type.IsSigned() {
			n = asSigned(v)
		}
		if v.Kind != ast.ConstInt || n < 0 {
			return diag.Bare("array length must be a non-negative integer constant")
		}
		a.Length = n
		arrays.Set(uint32(i), a)
	}
	return nil
}
