package binary

import "github.com/bplang/bpc/internal/ast"

// Numeric and control opcodes this emitter produces. Named rather than
// left as bare hex at each call site.
const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0B
	opBr          = 0x0C
	opBrIf        = 0x0D
	opReturn      = 0x0F
	opCall        = 0x10
	opDrop        = 0x1A
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opLocalTee    = 0x22

	opI32Const = 0x41
	opI64Const = 0x42

	opI32Eqz = 0x45
	opI64Eqz = 0x50

	blockTypeEmpty = 0x40

	gcPrefix = 0xFB
)

const (
	gcStructNew  = 0x00
	gcArrayNew   = 0x06
	gcArrayFixed = 0x08
	gcArrayGet   = 0x0B
	gcArrayGetS  = 0x0C
	gcArrayGetU  = 0x0D
	gcArraySet   = 0x0E
	gcArrayLen   = 0x0F
	gcStructGet  = 0x02
	gcStructSet  = 0x05
)

// i32BinOp/i64BinOp map a bp BinOp (arithmetic/comparison, not logical
// and/or which short-circuit) to its wasm opcode in the i32/i64 class.
var i32BinOp = map[ast.BinOp]byte{
	ast.OpAdd: 0x6A, ast.OpSub: 0x6B, ast.OpMul: 0x6C,
	ast.OpAnd: 0x71, ast.OpOr: 0x72, ast.OpXor: 0x73,
	ast.OpShl: 0x74,
	ast.OpEq: 0x46, ast.OpNe: 0x47,
}
var i64BinOp = map[ast.BinOp]byte{
	ast.OpAdd: 0x7C, ast.OpSub: 0x7D, ast.OpMul: 0x7E,
	ast.OpAnd: 0x83, ast.OpOr: 0x84, ast.OpXor: 0x85,
	ast.OpShl: 0x86,
	ast.OpEq: 0x51, ast.OpNe: 0x52,
}

// i32SignedOp/i64SignedOp cover the ops whose opcode depends on the
// operand's signedness (div/rem/shr/relational comparisons); each entry is
// a [signed, unsigned] opcode pair.
var i32SignedOp = map[ast.BinOp][2]byte{ // [signed, unsigned]
	ast.OpDiv: {0x6D, 0x6E}, ast.OpMod: {0x6F, 0x70}, ast.OpShr: {0x75, 0x76},
	ast.OpLt: {0x48, 0x49}, ast.OpGt: {0x4A, 0x4B}, ast.OpLe: {0x4C, 0x4D}, ast.OpGe: {0x4E, 0x4F},
}
var i64SignedOp = map[ast.BinOp][2]byte{
	ast.OpDiv: {0x7F, 0x80}, ast.OpMod: {0x81, 0x82}, ast.OpShr: {0x87, 0x88},
	ast.OpLt: {0x53, 0x54}, ast.OpGt: {0x55, 0x56}, ast.OpLe: {0x57, 0x58}, ast.OpGe: {0x59, 0x5A},
}

// funcGen holds the per-function codegen state: accumulated instruction
// bytes, the locals declared so far (beyond the parameters, which are
// already part of the function's wasm type), the active lexical scope,
// and the active loop stack for break/continue resolution.
type funcGen struct {
	e          *Emitter
	fn         ast.Function
	buf        []byte
	locals     []ast.TypeID // additional declared locals, indices start at paramSlots
	paramSlots int
	scope      *genScope
	loops      []loopCtx
	depth      int // number of currently open block/loop/if constructs
}

// newLocal allocates a fresh local slot of type ty and returns its wasm
// local index.
func (g *funcGen) newLocal(ty ast.TypeID) int {
	idx := g.paramSlots + len(g.locals)
	g.locals = append(g.locals, ty)
	return idx
}

func (g *funcGen) emit(b ...byte) { g.buf = append(g.buf, b...) }

func (g *funcGen) emitU32(v uint32) { g.buf = AppendUint32(g.buf, v) }
func (g *funcGen) emitS32(v int32)  { g.buf = AppendInt32(g.buf, v) }

// genFunc generates fn's code-section entry: the compressed locals vector
// followed by the instruction stream and a trailing end opcode.
func (e *Emitter) genFunc(fn ast.Function) []byte {
	g := &funcGen{e: e, fn: fn, scope: newGenScope(nil)}
	slot := 0
	for _, p := range fn.Params {
		if isUnit(p.Type) {
			g.scope.define(p.Name, -1, p.Type)
			continue
		}
		g.scope.define(p.Name, slot, p.Type)
		slot++
	}
	g.paramSlots = slot

	// The body's tail value falls through as the function's result; wasm
	// functions return whatever is left on the stack at the final `end`.
	g.genExprValue(fn.Body)
	g.emit(opEnd)

	var out []byte
	out = e.appendLocalsVec(out, g.locals)
	out = append(out, g.buf...)
	return out
}

// appendLocalsVec writes the wasm compressed-locals encoding: a vector of
// (count, valtype) runs. Consecutive same-type locals are merged into one
// run, matching how most hand-written wasm encoders behave.
func (e *Emitter) appendLocalsVec(buf []byte, locals []ast.TypeID) []byte {
	type run struct {
		ty    ast.TypeID
		count uint32
	}
	var runs []run
	for _, t := range locals {
		if len(runs) > 0 && runs[len(runs)-1].ty == t {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, run{ty: t, count: 1})
	}
	buf = AppendUint32(buf, uint32(len(runs)))
	for _, r := range runs {
		buf = AppendUint32(buf, r.count)
		buf = e.valType(buf, r.ty)
	}
	return buf
}

// genStatement generates idx for its side effects, discarding any value
// it produces (wasm requires the stack to balance at block/function end).
func (g *funcGen) genStatement(idx ast.ExprIndex) {
	ty := g.genExprValue(idx)
	if !isUnit(ty) {
		g.emit(opDrop)
	}
}

// genExprValue generates idx and returns its bp type. Exactly one wasm
// value is left on the stack unless ty is unit, in which case nothing is.
func (g *funcGen) genExprValue(idx ast.ExprIndex) ast.TypeID {
	ex := g.e.prog.Exprs.Get(idx)
	switch ex.Kind {
	case ast.ExprIntLit:
		raw := int64(uint64(ex.A) | uint64(ex.B)<<32)
		if ex.Type.BitWidth() > 32 {
			g.emit(opI64Const)
			g.buf = AppendInt64(g.buf, raw)
		} else {
			g.emit(opI32Const)
			g.buf = AppendInt32(g.buf, int32(raw))
		}
		return ex.Type

	case ast.ExprBoolLit:
		g.emit(opI32Const)
		g.buf = AppendInt32(g.buf, int32(ex.A))
		return ast.TypeBool

	case ast.ExprCharLit:
		g.emit(opI32Const)
		g.buf = AppendInt32(g.buf, int32(ex.A))
		return ast.TypeU8

	case ast.ExprStrLit:
		return g.genStrLit(ex)

	case ast.ExprArrayLen:
		return g.genArrayLen(ex)

	case ast.ExprIdent:
		return g.genIdent(ex)

	case ast.ExprBinary:
		return g.genBinary(ex)

	case ast.ExprUnary:
		return g.genUnary(ex)

	case ast.ExprCast:
		return g.genCast(ex)

	case ast.ExprBlock:
		return g.genBlock(ex)

	case ast.ExprLet:
		return g.genLet(ex)

	case ast.ExprAssign:
		return g.genAssign(ex)

	case ast.ExprIf:
		return g.genIf(ex, idx)

	case ast.ExprLoop:
		return g.genLoop(ex, idx)

	case ast.ExprWhile:
		return g.genWhile(ex)

	case ast.ExprBreak:
		return g.genBreak(ex)

	case ast.ExprContinue:
		g.genContinue()
		return ast.TypeUnit

	case ast.ExprReturn:
		return g.genReturn(ex)

	case ast.ExprCall:
		return g.genCall(ex)

	case ast.ExprIndex:
		return g.genIndex(ex)

	case ast.ExprField:
		return g.genField(ex)

	case ast.ExprArrayList:
		return g.genArrayList(ex)

	case ast.ExprArrayRepeat:
		return g.genArrayRepeat(ex)

	case ast.ExprTupleLit:
		return g.genTupleLit(ex)

	case ast.ExprStructLit:
		return g.genStructLit(ex)

	case ast.ExprInlineWasm:
		g.genInlineWasm(ex)
		return ast.TypeUnit

	case ast.ExprAnonFunc:
		// Anonymous functions are emitted as their own top-level code-section
		// entries (Emitter.Emit walks every emitted Function, including ones
		// synthesized for ExprAnonFunc); referencing one as a value pushes a
		// funcref via ref.func.
		fnIdx := ast.FuncIndex(ex.A)
		wix := g.e.wasmFuncIndex[fnIdx]
		g.e.declaredFuncRefs[wix] = true
		g.emit(0xD2) // ref.func
		g.emitU32(wix)
		return ex.Type

	default:
		return ast.TypeUnit
	}
}

func (g *funcGen) genIdent(ex ast.Expr) ast.TypeID {
	name := g.e.prog.Exprs.Name(ex.A)
	if b, ok := g.scope.lookup(name); ok {
		if b.localIdx < 0 {
			return ast.TypeUnit
		}
		g.emit(opLocalGet)
		g.emitU32(uint32(b.localIdx))
		return b.typ
	}
	// A module-level constant: resolved once by const-eval, spliced in as
	// a literal at every use site (spec.md §4.4 "constants are values, not
	// storage").
	v, err := g.e.interp.ResolveConstant(g.fn.Module, name)
	if err != nil {
		return ast.TypeUnit
	}
	return g.genConstLiteral(v)
}

func (g *funcGen) genConstLiteral(v ast.ConstValue) ast.TypeID {
	switch v.Kind {
	case ast.ConstBool:
		g.emit(opI32Const)
		if v.Bool {
			g.emitS32(1)
		} else {
			g.emitS32(0)
		}
		return ast.TypeBool
	case ast.ConstInt:
		if v.Type.BitWidth() > 32 {
			g.emit(opI64Const)
			g.buf = AppendInt64(g.buf, int64(v.Int))
		} else {
			g.emit(opI32Const)
			g.emitS32(int32(v.Int))
		}
		return v.Type
	default:
		return ast.TypeUnit
	}
}

func (g *funcGen) genBinary(ex ast.Expr) ast.TypeID {
	op := ast.BinOp(ex.A)
	lhs, rhs := ast.ExprIndex(ex.B), ast.ExprIndex(ex.C)
	if op == ast.OpLogAnd {
		g.genExprValue(lhs)
		g.emit(opIf, blockTypeEmpty)
		g.depth++
		g.genExprValue(rhs)
		g.emit(opElse)
		g.emit(opI32Const)
		g.emitS32(0)
		g.emit(opEnd)
		g.depth--
		return ast.TypeBool
	}
	if op == ast.OpLogOr {
		g.genExprValue(lhs)
		g.emit(opIf, blockTypeEmpty)
		g.depth++
		g.emit(opI32Const)
		g.emitS32(1)
		g.emit(opElse)
		g.genExprValue(rhs)
		g.emit(opEnd)
		g.depth--
		return ast.TypeBool
	}
	lt := g.genExprValue(lhs)
	g.genExprValue(rhs)
	is64 := lt.BitWidth() > 32
	if b, ok := i32BinOp[op]; ok && !is64 {
		g.emit(b)
	} else if b, ok := i64BinOp[op]; ok && is64 {
		g.emit(b)
	} else if pair, ok := i32SignedOp[op]; ok && !is64 {
		if lt.IsSigned() {
			g.emit(pair[0])
		} else {
			g.emit(pair[1])
		}
	} else if pair, ok := i64SignedOp[op]; ok && is64 {
		if lt.IsSigned() {
			g.emit(pair[0])
		} else {
			g.emit(pair[1])
		}
	}
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return ast.TypeBool
	default:
		return lt
	}
}

func (g *funcGen) genUnary(ex ast.Expr) ast.TypeID {
	t := g.genExprValue(ast.ExprIndex(ex.B))
	switch ast.UnOp(ex.A) {
	case ast.OpNot:
		g.emit(opI32Eqz)
		return ast.TypeBool
	case ast.OpNeg:
		// bp has no dedicated negate opcode target; synthesize 0 - v by
		// reordering: push 0 first is not possible post-hoc, so instead
		// multiply by -1 is avoided and a sub sequence is built directly
		// by the caller pushing operand then negating via a swap-free
		// i32.const 0 / i32.sub pair emitted around the already-pushed
		// value using a temp local.
		tmp := g.newLocal(t)
		g.emit(opLocalSet)
		g.emitU32(uint32(tmp))
		if t.BitWidth() > 32 {
			g.emit(opI64Const)
			g.buf = AppendInt64(g.buf, 0)
			g.emit(opLocalGet)
			g.emitU32(uint32(tmp))
			g.emit(i64BinOp[ast.OpSub])
		} else {
			g.emit(opI32Const)
			g.emitS32(0)
			g.emit(opLocalGet)
			g.emitU32(uint32(tmp))
			g.emit(i32BinOp[ast.OpSub])
		}
		return t
	}
	return t
}

func (g *funcGen) genCast(ex ast.Expr) ast.TypeID {
	src := g.genExprValue(ast.ExprIndex(ex.A))
	target := ast.TypeID(ex.B)
	srcWide, dstWide := src.BitWidth() > 32, target.BitWidth() > 32
	switch {
	case !srcWide && dstWide:
		if src.IsSigned() {
			g.emit(0xAC) // i64.extend_i32_s
		} else {
			g.emit(0xAD) // i64.extend_i32_u
		}
	case srcWide && !dstWide:
		g.emit(0xA7) // i32.wrap_i64
	}
	switch target.BitWidth() {
	case 8:
		g.maskTo(0xFF, dstWide)
		if target.IsSigned() {
			g.emit(0xC0) // i32.extend8_s
		}
	case 16:
		g.maskTo(0xFFFF, dstWide)
		if target.IsSigned() {
			g.emit(0xC1) // i32.extend16_s
		}
	}
	return target
}

func (g *funcGen) maskTo(mask int32, wide bool) {
	if wide {
		g.emit(opI64Const)
		g.buf = AppendInt64(g.buf, int64(mask))
		g.emit(i64BinOp[ast.OpAnd])
		return
	}
	g.emit(opI32Const)
	g.emitS32(mask)
	g.emit(i32BinOp[ast.OpAnd])
}

func (g *funcGen) genBlock(ex ast.Expr) ast.TypeID {
	inner := &funcGen{e: g.e, fn: g.fn, buf: g.buf, locals: g.locals, paramSlots: g.paramSlots,
		scope: newGenScope(g.scope), loops: g.loops, depth: g.depth}
	items := g.e.prog.Exprs.List(ex.A, ex.B)
	var last ast.TypeID = ast.TypeUnit
	for i, it := range items {
		if i == len(items)-1 {
			last = inner.genExprValue(it)
		} else {
			inner.genStatement(it)
		}
	}
	g.buf = inner.buf
	g.locals = inner.locals
	return last
}

func (g *funcGen) genLet(ex ast.Expr) ast.TypeID {
	initType := g.genExprValue(ast.ExprIndex(ex.B))
	name := g.e.prog.Exprs.Name(ex.A)
	if isUnit(initType) {
		g.scope.define(name, -1, initType)
		return ast.TypeUnit
	}
	idx := g.newLocal(initType)
	g.emit(opLocalSet)
	g.emitU32(uint32(idx))
	g.scope.define(name, idx, initType)
	return ast.TypeUnit
}

func (g *funcGen) genAssign(ex ast.Expr) ast.TypeID {
	target := g.e.prog.Exprs.Get(ast.ExprIndex(ex.A))
	switch target.Kind {
	case ast.ExprIndex:
		baseType := g.genExprValue(ast.ExprIndex(target.A))
		idxType := g.genExprValue(ast.ExprIndex(target.B))
		if idxType.BitWidth() > 32 {
			g.emit(0xA7) // i32.wrap_i64
		}
		g.genExprValue(ast.ExprIndex(ex.B))
		g.emit(gcPrefix, gcArraySet)
		g.emitU32(g.e.typeIndexOf(baseType))
		return ast.TypeUnit

	case ast.ExprField:
		baseType := g.genExprValue(ast.ExprIndex(target.A))
		g.genExprValue(ast.ExprIndex(ex.B))
		g.emit(gcPrefix, gcStructSet)
		g.emitU32(g.e.typeIndexOf(baseType))
		if target.C == 1 {
			g.emitU32(target.B)
			return ast.TypeUnit
		}
		name := g.e.prog.Exprs.Name(target.B)
		st := g.e.prog.Types.Struct(baseType)
		for i, f := range st.Fields {
			if f.Name == name {
				g.emitU32(uint32(i))
				break
			}
		}
		return ast.TypeUnit

	default:
		name := g.e.prog.Exprs.Name(target.A)
		b, _ := g.scope.lookup(name)
		g.genExprValue(ast.ExprIndex(ex.B))
		if b.localIdx >= 0 {
			g.emit(opLocalSet)
			g.emitU32(uint32(b.localIdx))
		}
		return ast.TypeUnit
	}
}

// genStrLit generates a string literal as a fixed `[u8;N]` array, pushing
// each byte as an i32 constant before the array.new_fixed tail (spec.md
// §4.6: string literals coerce to a byte array of their own length).
func (g *funcGen) genStrLit(ex ast.Expr) ast.TypeID {
	s := g.e.prog.Exprs.Str(ex.A)
	for i := 0; i < len(s); i++ {
		g.emit(opI32Const)
		g.buf = AppendInt32(g.buf, int32(s[i]))
	}
	arrType := ex.Type
	g.emit(gcPrefix, gcArrayFixed)
	g.emitU32(g.e.typeIndexOf(arrType))
	g.emitU32(uint32(len(s)))
	return arrType
}

// genArrayLen generates `len(x)`: array.len takes no type immediate, just
// the arrayref on the stack.
func (g *funcGen) genArrayLen(ex ast.Expr) ast.TypeID {
	g.genExprValue(ast.ExprIndex(ex.A))
	g.emit(gcPrefix, gcArrayLen)
	return ast.TypeI32
}

func (g *funcGen) genIf(ex ast.Expr, idx ast.ExprIndex) ast.TypeID {
	resultType := g.e.prog.Exprs.Get(idx).Type
	var tmp int = -1
	if !isUnit(resultType) {
		tmp = g.newLocal(resultType)
	}
	g.genExprValue(ast.ExprIndex(ex.A)) // cond
	g.emit(opIf, blockTypeEmpty)
	g.depth++
	g.genBranchArm(ast.ExprIndex(ex.B), tmp)
	if ast.ExprIndex(ex.C) != ast.InvalidExpr {
		g.emit(opElse)
		g.genBranchArm(ast.ExprIndex(ex.C), tmp)
	}
	g.emit(opEnd)
	g.depth--
	if tmp >= 0 {
		g.emit(opLocalGet)
		g.emitU32(uint32(tmp))
	}
	return resultType
}

// genBranchArm generates a branch body that either stores its value into
// tmp (when the if as a whole produces a value) or runs purely for effect.
func (g *funcGen) genBranchArm(idx ast.ExprIndex, tmp int) {
	t := g.genExprValue(idx)
	if tmp >= 0 && !isUnit(t) {
		g.emit(opLocalSet)
		g.emitU32(uint32(tmp))
	} else if tmp < 0 && !isUnit(t) {
		g.emit(opDrop)
	}
}

func (g *funcGen) genLoop(ex ast.Expr, idx ast.ExprIndex) ast.TypeID {
	resultType := g.e.prog.Exprs.Get(idx).Type
	tmp := -1
	if !isUnit(resultType) {
		tmp = g.newLocal(resultType)
	}
	g.emit(opBlock, blockTypeEmpty)
	g.depth++
	blockDepth := g.depth
	g.emit(opLoop, blockTypeEmpty)
	g.depth++
	loopDepth := g.depth
	g.loops = append(g.loops, loopCtx{blockDepth: blockDepth, loopDepth: loopDepth, resultTemp: tmp})

	g.genStatement(ast.ExprIndex(ex.A))
	g.emit(opBr)
	g.emitU32(uint32(g.depth - loopDepth))

	g.loops = g.loops[:len(g.loops)-1]
	g.emit(opEnd)
	g.depth--
	g.emit(opEnd)
	g.depth--
	if tmp >= 0 {
		g.emit(opLocalGet)
		g.emitU32(uint32(tmp))
	}
	return resultType
}

func (g *funcGen) genWhile(ex ast.Expr) ast.TypeID {
	g.emit(opBlock, blockTypeEmpty)
	g.depth++
	blockDepth := g.depth
	g.emit(opLoop, blockTypeEmpty)
	g.depth++
	loopDepth := g.depth
	g.loops = append(g.loops, loopCtx{blockDepth: blockDepth, loopDepth: loopDepth, resultTemp: -1})

	g.genExprValue(ast.ExprIndex(ex.A))
	g.emit(opI32Eqz)
	g.emit(opBrIf)
	g.emitU32(uint32(g.depth - blockDepth))
	g.genStatement(ast.ExprIndex(ex.B))
	g.emit(opBr)
	g.emitU32(uint32(g.depth - loopDepth))

	g.loops = g.loops[:len(g.loops)-1]
	g.emit(opEnd)
	g.depth--
	g.emit(opEnd)
	g.depth--
	return ast.TypeUnit
}

func (g *funcGen) currentLoop() *loopCtx {
	if len(g.loops) == 0 {
		return nil
	}
	return &g.loops[len(g.loops)-1]
}

func (g *funcGen) genBreak(ex ast.Expr) ast.TypeID {
	lp := g.currentLoop()
	if ast.ExprIndex(ex.A) != ast.InvalidExpr {
		g.genExprValue(ast.ExprIndex(ex.A))
		if lp.resultTemp >= 0 {
			g.emit(opLocalSet)
			g.emitU32(uint32(lp.resultTemp))
		}
	}
	g.emit(opBr)
	g.emitU32(uint32(g.depth - lp.blockDepth))
	return ast.TypeUnit
}

func (g *funcGen) genContinue() {
	lp := g.currentLoop()
	g.emit(opBr)
	g.emitU32(uint32(g.depth - lp.loopDepth))
}

func (g *funcGen) genReturn(ex ast.Expr) ast.TypeID {
	if ast.ExprIndex(ex.A) != ast.InvalidExpr {
		g.genExprValue(ast.ExprIndex(ex.A))
	}
	g.emit(opReturn)
	return ast.TypeUnit
}

func (g *funcGen) genCall(ex ast.Expr) ast.TypeID {
	call := g.e.prog.Calls.Get(ex.A)
	for _, a := range call.Args {
		g.genExprValue(a)
	}
	g.emit(opCall)
	g.emitU32(g.e.wasmFuncIndex[call.Callee])
	callee := g.e.prog.Funcs.Get(call.Callee)
	return callee.ReturnType
}

func (g *funcGen) genIndex(ex ast.Expr) ast.TypeID {
	baseType := g.genExprValue(ast.ExprIndex(ex.A))
	idxType := g.genExprValue(ast.ExprIndex(ex.B))
	if idxType.BitWidth() > 32 {
		g.emit(0xA7) // i32.wrap_i64: array.get/set always take an i32 index
	}
	elem := g.e.prog.Types.Array(baseType).Elem
	g.emit(gcPrefix, arrayGetOp(elem))
	g.emitU32(g.e.typeIndexOf(baseType))
	return elem
}

// arrayGetOp picks the array.get variant for elem's storage representation:
// i8/u8/i16/u16 arrays are packed and must be read with the sign- or
// zero-extending get_s/get_u, never the plain get (spec.md §4.7).
func arrayGetOp(elem ast.TypeID) byte {
	if elem.IsInteger() && elem.BitWidth() <= 16 {
		if elem.IsSigned() {
			return gcArrayGetS
		}
		return gcArrayGetU
	}
	return gcArrayGet
}

func (g *funcGen) genField(ex ast.Expr) ast.TypeID {
	baseType := g.genExprValue(ast.ExprIndex(ex.A))
	g.emit(gcPrefix, gcStructGet)
	g.emitU32(g.e.typeIndexOf(baseType))
	if ex.C == 1 {
		g.emitU32(ex.B)
		return g.e.prog.Types.Tuple(baseType).Fields[ex.B]
	}
	name := g.e.prog.Exprs.Name(ex.B)
	st := g.e.prog.Types.Struct(baseType)
	for i, f := range st.Fields {
		if f.Name == name {
			g.emitU32(uint32(i))
			return f.Type
		}
	}
	return ast.TypeUnit
}

func (g *funcGen) genArrayList(ex ast.Expr) ast.TypeID {
	items := g.e.prog.Exprs.List(ex.A, ex.B)
	for _, it := range items {
		g.genExprValue(it)
	}
	arrType := ex.Type // stamped by the validator (internal/validate.validateArrayList)
	g.emit(gcPrefix, gcArrayFixed)
	g.emitU32(g.e.typeIndexOf(arrType))
	g.emitU32(uint32(len(items)))
	return arrType
}

func (g *funcGen) genArrayRepeat(ex ast.Expr) ast.TypeID {
	g.genExprValue(ast.ExprIndex(ex.A))
	lengthVal, err := g.e.interp.EvalConst(ast.ExprIndex(ex.B), g.fn.Module)
	n := int64(0)
	if err == nil {
		n = int64(lengthVal.Int)
	}
	g.emit(opI32Const)
	g.emitS32(int32(n))
	arrType := ex.Type
	g.emit(gcPrefix, gcArrayNew)
	g.emitU32(g.e.typeIndexOf(arrType))
	return arrType
}

func (g *funcGen) genTupleLit(ex ast.Expr) ast.TypeID {
	items := g.e.prog.Exprs.List(ex.A, ex.B)
	for _, it := range items {
		g.genExprValue(it)
	}
	tupType := ex.Type
	g.emit(gcPrefix, gcStructNew)
	g.emitU32(g.e.typeIndexOf(tupType))
	return tupType
}

func (g *funcGen) genStructLit(ex ast.Expr) ast.TypeID {
	structType := ex.Type
	st := g.e.prog.Types.Struct(structType)
	pairs := g.e.prog.Exprs.List(ex.B, ex.C*2)
	ordered := make([]ast.ExprIndex, len(st.Fields))
	for i := 0; i < len(pairs); i += 2 {
		fieldName := g.e.prog.Exprs.Name(pairs[i])
		for j, f := range st.Fields {
			if f.Name == fieldName {
				ordered[j] = pairs[i+1]
				break
			}
		}
	}
	for _, it := range ordered {
		g.genExprValue(it)
	}
	g.emit(gcPrefix, gcStructNew)
	g.emitU32(g.e.typeIndexOf(structType))
	return structType
}

func (g *funcGen) genInlineWasm(ex ast.Expr) {
	arr := g.e.prog.Exprs.Get(ast.ExprIndex(ex.A))
	items := g.e.prog.Exprs.List(arr.A, arr.B)
	for _, it := range items {
		b := g.e.prog.Exprs.Get(it)
		raw := int64(uint64(b.A) | uint64(b.B)<<32)
		g.buf = append(g.buf, byte(raw))
	}
}
