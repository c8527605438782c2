package ast

// ExprKind discriminates the tagged union of expression records (spec.md
// §3 "Expression", §9 "Tagged variants instead of inheritance").
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprBoolLit
	ExprStrLit
	ExprCharLit
	ExprIdent
	ExprBinary
	ExprUnary
	ExprCall
	ExprArrayRepeat // [value; length]
	ExprArrayList   // [a, b, c]
	ExprTupleLit
	ExprStructLit
	ExprIndex
	ExprField
	ExprCast
	ExprIf
	ExprLoop
	ExprWhile
	ExprBreak
	ExprContinue
	ExprReturn
	ExprBlock
	ExprLet
	ExprAssign
	ExprAnonFunc
	ExprInlineWasm
	ExprArrayLen // len(x); rewritten in place from ExprCall by the validator
)

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd // &
	OpOr  // |
	OpXor
	OpShl
	OpShr
	OpLogAnd // &&
	OpLogOr  // ||
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// UnOp enumerates unary operators.
type UnOp uint8

const (
	OpNeg UnOp = iota // -
	OpNot             // !
)

// ExprIndex references an entry in an ExprTable.
type ExprIndex uint32

// InvalidExpr marks "no expression" (e.g. a bare `return;`).
const InvalidExpr ExprIndex = 0xFFFFFFFF

// Expr is a fixed-width record: a kind tag, up to three data words, and a
// resolved type assigned by the validator (spec.md §3 Expression
// invariant: "every expression reachable from a function body has a
// resolved type after validation").
//
// The three data words (A, B, C) are interpreted per Kind:
//
//	ExprIntLit:     A = low 32 bits of value, B = high 32 bits, Type = suffix-derived TypeID
//	ExprBoolLit:    A = 0 or 1
//	ExprStrLit:     A = string-pool index (see ExprTable.Str, not the NamePool)
//	ExprCharLit:    A = byte value
//	ExprIdent:      A = NamePool index (see Extra.Names)
//	ExprBinary:     A = BinOp, B = lhs ExprIndex, C = rhs ExprIndex
//	ExprUnary:      A = UnOp, B = operand ExprIndex
//	ExprCall:       A = CallMeta index
//	ExprArrayRepeat:A = value ExprIndex, B = length ExprIndex
//	ExprArrayList:  A = Extra.ExprList index (start), B = count
//	ExprTupleLit:   A = Extra.ExprList index (start), B = count
//	ExprStructLit:  A = NamePool index (struct name), B = Extra.ExprList index (start) of interleaved (fieldNameIdx, valueExpr) pairs, C = field count (list length is 2*C)
//	ExprIndex:      A = base ExprIndex, B = index ExprIndex
//	ExprField:      A = base ExprIndex, B = NamePool index, or tuple index if C == 1
//	ExprCast:       A = operand ExprIndex, B = target TypeID (low 32 bits)
//	ExprIf:         A = cond ExprIndex, B = then ExprIndex, C = else ExprIndex (InvalidExpr if none)
//	ExprLoop:       A = body ExprIndex
//	ExprWhile:      A = cond ExprIndex, B = body ExprIndex
//	ExprBreak:      A = value ExprIndex (InvalidExpr if bare)
//	ExprContinue:   (no payload)
//	ExprReturn:     A = value ExprIndex (InvalidExpr if bare)
//	ExprBlock:      A = Extra.ExprList index (start), B = count, C = 1 if the last item is a tail expression
//	ExprLet:        A = NamePool index (name), B = init ExprIndex, C = 1 if mut
//	ExprAssign:     A = target ExprIndex, B = value ExprIndex
//	ExprAnonFunc:   A = Extra.Functions index (the synthesized function)
//	ExprInlineWasm: A = ExprIndex of the byte array literal
//	ExprArrayLen:   A = operand ExprIndex (array value whose length is taken)
type Expr struct {
	Kind ExprKind
	A, B, C uint32
	Type TypeID
	Line, Col int
}

// ExprTable is the append-only expression arena (spec.md §3 Expression:
// "Expressions form a DAG only by reference; each node is owned by
// exactly one parent").
type ExprTable struct {
	entries []Expr
	// Lists backs variable-length children (array/tuple/struct literals,
	// blocks) as contiguous runs, referenced by (start, count) pairs.
	lists []ExprIndex
	names []string // interned identifier/field/struct-name text
	strs  []string // interned string-literal payloads
	bytes []byte   // inline_wasm literal byte payloads
}

func NewExprTable(capacity int) *ExprTable {
	return &ExprTable{entries: make([]Expr, 0, capacity)}
}

func (t *ExprTable) Len() int { return len(t.entries) }

func (t *ExprTable) Append(e Expr) ExprIndex {
	t.entries = append(t.entries, e)
	return ExprIndex(len(t.entries) - 1)
}

func (t *ExprTable) Get(i ExprIndex) Expr { return t.entries[i] }

func (t *ExprTable) Set(i ExprIndex, e Expr) { t.entries[i] = e }

func (t *ExprTable) SetType(i ExprIndex, ty TypeID) {
	e := t.entries[i]
	e.Type = ty
	t.entries[i] = e
}

// AppendList stores a run of child expression indices and returns its
// (start, count) handle.
func (t *ExprTable) AppendList(items []ExprIndex) (start, count uint32) {
	start = uint32(len(t.lists))
	t.lists = append(t.lists, items...)
	return start, uint32(len(items))
}

func (t *ExprTable) List(start, count uint32) []ExprIndex {
	return t.lists[start : start+count]
}

func (t *ExprTable) InternNamePool(s string) uint32 {
	for i, existing := range t.names {
		if existing == s {
			return uint32(i)
		}
	}
	t.names = append(t.names, s)
	return uint32(len(t.names) - 1)
}

func (t *ExprTable) Name(idx uint32) string { return t.names[idx] }

func (t *ExprTable) InternStr(s string) uint32 {
	t.strs = append(t.strs, s)
	return uint32(len(t.strs) - 1)
}

func (t *ExprTable) Str(idx uint32) string { return t.strs[idx] }

func (t *ExprTable) AppendBytes(b []byte) (start, count uint32) {
	start = uint32(len(t.bytes))
	t.bytes = append(t.bytes, b...)
	return start, uint32(len(b))
}

func (t *ExprTable) Bytes(start, count uint32) []byte {
	return t.bytes[start : start+count]
}
