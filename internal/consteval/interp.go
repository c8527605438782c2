package consteval

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// signalKind distinguishes normal completion from the non-local control
// flow spec.md §4.5 requires the interpreter to handle directly:
// `break`, `continue`, and `return`.
type signalKind uint8

const (
	sigNone signalKind = iota
	sigBreak
	sigContinue
	sigReturn
)

type signal struct {
	kind  signalKind
	value ast.ConstValue
}

// Interpreter tree-walks const expressions (spec.md §4.5). It is shared
// across an entire compile so that memoized constant values persist.
type Interpreter struct {
	prog          *ast.Program
	loopBound     int
	memoized      map[string]ast.ConstValue // "module\x00name" -> evaluated constant
	evaluating    map[string]bool           // cycle guard
}

// NewInterpreter creates an Interpreter with the given safety bound on
// loop iterations (spec.md §9 Open Question (i); default supplied by the
// root package's CompilerConfig).
func NewInterpreter(prog *ast.Program, loopBound int) *Interpreter {
	return &Interpreter{prog: prog, loopBound: loopBound, memoized: map[string]ast.ConstValue{}, evaluating: map[string]bool{}}
}

// EvalConst evaluates an expression in a const context with no enclosing
// function call (used for top-level `const` declarations, array lengths,
// and call-site const-argument expressions).
func (in *Interpreter) EvalConst(e ast.ExprIndex, modPath string) (ast.ConstValue, error) {
	v, sig, err := in.eval(e, newEnv(nil), modPath)
	if err != nil {
		return ast.ConstValue{}, err
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return v, nil
}

// ResolveConstant evaluates (and memoizes) the named module-level
// constant, detecting const-eval cycles.
func (in *Interpreter) ResolveConstant(modPath, name string) (ast.ConstValue, error) {
	key := modPath + "\x00" + name
	if v, ok := in.memoized[key]; ok {
		return v, nil
	}
	if in.evaluating[key] {
		return ast.ConstValue{}, diag.Bare("const declaration %q depends on itself", name)
	}
	idx, ok := in.prog.Consts.FindByName(modPath, name)
	if !ok {
		return ast.ConstValue{}, diag.Bare("identifier not found: %s", name)
	}
	c := in.prog.Consts.Get(idx)
	in.evaluating[key] = true
	v, err := in.EvalConst(c.Expr, modPath)
	delete(in.evaluating, key)
	if err != nil {
		return ast.ConstValue{}, err
	}
	c.Value = v
	if c.Type == ast.TypeInvalid {
		c.Type = v.Type
	}
	in.prog.Consts.Set(idx, c)
	in.memoized[key] = v
	return v, nil
}

// EvalAllConstants force-evaluates every constant declared anywhere in
// the program, surfacing the first error encountered (spec.md §7
// "Propagation policy").
func (in *Interpreter) EvalAllConstants() error {
	for _, c := range in.prog.Consts.All() {
		if _, err := in.ResolveConstant(c.Module, c.Name); err != nil {
			return err
		}
	}
	return nil
}

// CallConstFn interprets a call to a const fn with already-evaluated
// argument values (spec.md §4.5 "Specialization protocol" step 1, and
// "const fn may only call other const fn").
func (in *Interpreter) CallConstFn(fnIdx ast.FuncIndex, args []ast.ConstValue) (ast.ConstValue, error) {
	fn := in.prog.Funcs.Get(fnIdx)
	if !fn.Flags.Has(ast.FlagIsConstFn) {
		return ast.ConstValue{}, diag.At(fn.Module, fn.Line, fn.Col, "const functions may only call const functions")
	}
	if len(args) != len(fn.Params) {
		return ast.ConstValue{}, diag.At(fn.Module, fn.Line, fn.Col, "argument count mismatch calling %s", fn.Name)
	}
	e := newEnv(nil)
	for i, p := range fn.Params {
		e.define(p.Name, args[i], false)
	}
	v, sig, err := in.eval(fn.Body, e, fn.Module)
	if err != nil {
		return ast.ConstValue{}, err
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return v, nil
}

func (in *Interpreter) evalList(items []ast.ExprIndex, e *env, modPath string) ([]ast.ConstValue, signal, error) {
	out := make([]ast.ConstValue, 0, len(items))
	for _, it := range items {
		v, sig, err := in.eval(it, e, modPath)
		if err != nil || sig.kind != sigNone {
			return nil, sig, err
		}
		out = append(out, v)
	}
	return out, signal{}, nil
}

// eval walks one expression. It returns a non-sigNone signal when the
// expression's evaluation triggers non-local control flow that must
// propagate to an enclosing loop/function.
func (in *Interpreter) eval(idx ast.ExprIndex, e *env, modPath string) (ast.ConstValue, signal, error) {
	ex := in.prog.Exprs.Get(idx)
	switch ex.Kind {
	case ast.ExprIntLit:
		raw := uint64(ex.A) | uint64(ex.B)<<32
		return intConst(ex.Type, raw), signal{}, nil
	case ast.ExprBoolLit:
		return boolConst(ex.A != 0), signal{}, nil
	case ast.ExprCharLit:
		return intConst(ast.TypeU8, uint64(ex.A)), signal{}, nil
	case ast.ExprStrLit:
		// Strings are not a pure const value kind on their own in this
		// interpreter; they only appear as array-of-u8 literals, handled
		// by the validator/emitter directly. In a pure const-eval
		// position (e.g. as an array length) a string is a type error
		// the validator reports; here we surface it as unsupported.
		return ast.ConstValue{}, signal{}, diag.Bare("string literal is not a constant value in this context")
	case ast.ExprIdent:
		name := in.prog.Exprs.Name(ex.A)
		if b, ok := e.lookup(name); ok {
			return b.value, signal{}, nil
		}
		v, err := in.ResolveConstant(modPath, name)
		return v, signal{}, err
	case ast.ExprBinary:
		lhs, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return lhs, sig, err
		}
		op := ast.BinOp(ex.A)
		if op == ast.OpLogAnd && !lhs.Bool {
			return boolConst(false), signal{}, nil
		}
		if op == ast.OpLogOr && lhs.Bool {
			return boolConst(true), signal{}, nil
		}
		rhs, sig, err := in.eval(ast.ExprIndex(ex.C), e, modPath)
		if err != nil || sig.kind != sigNone {
			return rhs, sig, err
		}
		v, err := evalBinary(modPath, ex.Line, ex.Col, op, lhs, rhs)
		return v, signal{}, err
	case ast.ExprUnary:
		v, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		return evalUnary(ex.Type, ast.UnOp(ex.A), v), signal{}, nil
	case ast.ExprCast:
		v, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		target := ast.TypeID(ex.B)
		if v.Kind == ast.ConstInt {
			return intConst(target, v.Int), signal{}, nil
		}
		return v, signal{}, nil
	case ast.ExprBlock:
		return in.evalBlock(ex, e, modPath)
	case ast.ExprLet:
		name := in.prog.Exprs.Name(ex.A)
		v, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		e.define(name, v, ex.C != 0)
		return ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}, signal{}, nil
	case ast.ExprAssign:
		target := in.prog.Exprs.Get(ast.ExprIndex(ex.A))
		if target.Kind != ast.ExprIdent {
			return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "cannot assign to this expression in a const context")
		}
		name := in.prog.Exprs.Name(target.A)
		v, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		if !e.assign(name, v) {
			return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "cannot assign to immutable local")
		}
		return ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}, signal{}, nil
	case ast.ExprIf:
		cond, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return cond, sig, err
		}
		if cond.Bool {
			return in.eval(ast.ExprIndex(ex.B), newEnv(e), modPath)
		}
		if ast.ExprIndex(ex.C) != ast.InvalidExpr {
			return in.eval(ast.ExprIndex(ex.C), newEnv(e), modPath)
		}
		return ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}, signal{}, nil
	case ast.ExprWhile:
		for i := 0; i < in.loopBound; i++ {
			cond, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
			if err != nil || sig.kind != sigNone {
				return cond, sig, err
			}
			if !cond.Bool {
				break
			}
			_, sig, err = in.eval(ast.ExprIndex(ex.B), newEnv(e), modPath)
			if err != nil {
				return ast.ConstValue{}, signal{}, err
			}
			if sig.kind == sigBreak {
				break
			}
			if sig.kind == sigReturn {
				return ast.ConstValue{}, sig, nil
			}
			if i == in.loopBound-1 {
				return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "const evaluation exceeded iteration bound")
			}
		}
		return ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}, signal{}, nil
	case ast.ExprLoop:
		for i := 0; i < in.loopBound; i++ {
			v, sig, err := in.eval(ast.ExprIndex(ex.A), newEnv(e), modPath)
			if err != nil {
				return ast.ConstValue{}, signal{}, err
			}
			if sig.kind == sigBreak {
				return sig.value, signal{}, nil
			}
			if sig.kind == sigReturn {
				return v, sig, nil
			}
			if i == in.loopBound-1 {
				return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "const evaluation exceeded iteration bound")
			}
		}
		return ast.ConstValue{}, signal{}, nil
	case ast.ExprBreak:
		if ast.ExprIndex(ex.A) == ast.InvalidExpr {
			return ast.ConstValue{}, signal{kind: sigBreak}, nil
		}
		v, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		return ast.ConstValue{}, signal{kind: sigBreak, value: v}, nil
	case ast.ExprContinue:
		return ast.ConstValue{}, signal{kind: sigContinue}, nil
	case ast.ExprReturn:
		if ast.ExprIndex(ex.A) == ast.InvalidExpr {
			return ast.ConstValue{}, signal{kind: sigReturn, value: ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}}, nil
		}
		v, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		return ast.ConstValue{}, signal{kind: sigReturn, value: v}, nil
	case ast.ExprCall:
		return in.evalCall(ex, e, modPath)
	case ast.ExprArrayList:
		items := in.prog.Exprs.List(ex.A, ex.B)
		vals, sig, err := in.evalList(items, e, modPath)
		if err != nil || sig.kind != sigNone {
			return ast.ConstValue{}, sig, err
		}
		composite := in.prog.Composites.Append(ast.Composite{Elems: vals})
		return ast.ConstValue{Kind: ast.ConstComposite, Composite: composite, Type: ex.Type}, signal{}, nil
	case ast.ExprArrayRepeat:
		v, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		lenV, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return lenV, sig, err
		}
		n := int64(lenV.Int)
		if lenV.Type.IsInteger() && lenV.Type.IsSigned() {
			n = asSigned(lenV)
		}
		if n < 0 {
			return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "array length must be non-negative")
		}
		elems := make([]ast.ConstValue, n)
		for i := range elems {
			elems[i] = v
		}
		composite := in.prog.Composites.Append(ast.Composite{Elems: elems})
		return ast.ConstValue{Kind: ast.ConstComposite, Composite: composite, Type: ex.Type}, signal{}, nil
	case ast.ExprTupleLit:
		items := in.prog.Exprs.List(ex.A, ex.B)
		vals, sig, err := in.evalList(items, e, modPath)
		if err != nil || sig.kind != sigNone {
			return ast.ConstValue{}, sig, err
		}
		composite := in.prog.Composites.Append(ast.Composite{Elems: vals})
		return ast.ConstValue{Kind: ast.ConstComposite, Composite: composite, Type: ex.Type}, signal{}, nil
	case ast.ExprIndex:
		base, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return base, sig, err
		}
		iv, sig, err := in.eval(ast.ExprIndex(ex.B), e, modPath)
		if err != nil || sig.kind != sigNone {
			return iv, sig, err
		}
		comp := in.prog.Composites.Get(base.Composite)
		i := int64(iv.Int)
		if i < 0 || i >= int64(len(comp.Elems)) {
			return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "array index out of bounds")
		}
		return comp.Elems[i], signal{}, nil
	case ast.ExprField:
		base, sig, err := in.eval(ast.ExprIndex(ex.A), e, modPath)
		if err != nil || sig.kind != sigNone {
			return base, sig, err
		}
		comp := in.prog.Composites.Get(base.Composite)
		if ex.C == 1 {
			if int(ex.B) >= len(comp.Elems) {
				return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "tuple index out of range")
			}
			return comp.Elems[ex.B], signal{}, nil
		}
		fieldName := in.prog.Exprs.Name(ex.B)
		st := in.prog.Types.Struct(base.Type)
		for i, f := range st.Fields {
			if f.Name == fieldName {
				return comp.Elems[i], signal{}, nil
			}
		}
		return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "unknown field %q", fieldName)
	case ast.ExprStructLit:
		return in.evalStructLit(ex, e, modPath)
	case ast.ExprAnonFunc:
		return ast.ConstValue{Kind: ast.ConstFunc, Func: ast.FuncIndex(ex.A), Type: ex.Type}, signal{}, nil
	default:
		return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "expression is not valid in a const context")
	}
}

func (in *Interpreter) evalBlock(ex ast.Expr, e *env, modPath string) (ast.ConstValue, signal, error) {
	inner := newEnv(e)
	items := in.prog.Exprs.List(ex.A, ex.B)
	var last ast.ConstValue
	for _, it := range items {
		v, sig, err := in.eval(it, inner, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		last = v
	}
	if ex.C == 0 {
		return ast.ConstValue{Kind: ast.ConstInt, Type: ast.TypeUnit}, signal{}, nil
	}
	return last, signal{}, nil
}

// evalStructLit evaluates `struct Name { field: expr, ... }`, reordering
// the literal's (possibly out-of-order) fields to match the struct's
// declared field order so ConstValue.Composite.Elems lines up positionally
// with ast.StructType.Fields everywhere else in the pipeline.
func (in *Interpreter) evalStructLit(ex ast.Expr, e *env, modPath string) (ast.ConstValue, signal, error) {
	name := in.prog.Exprs.Name(ex.A)
	structType := ast.TypeID(0)
	found := false
	for i, s := range in.prog.Types.Structs.All() {
		if s.Module == modPath && s.Name == name {
			structType = ast.StructTypeID(uint32(i))
			found = true
			break
		}
	}
	if !found {
		return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "unknown struct type %q", name)
	}
	st := in.prog.Types.Struct(structType)
	pairs := in.prog.Exprs.List(ex.B, ex.C*2)
	elems := make([]ast.ConstValue, len(st.Fields))
	for i := 0; i < len(pairs); i += 2 {
		fieldName := in.prog.Exprs.Name(uint32(pairs[i]))
		v, sig, err := in.eval(pairs[i+1], e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		for j, f := range st.Fields {
			if f.Name == fieldName {
				elems[j] = v
				break
			}
		}
	}
	composite := in.prog.Composites.Append(ast.Composite{Elems: elems})
	return ast.ConstValue{Kind: ast.ConstComposite, Composite: composite, Type: structType}, signal{}, nil
}

func (in *Interpreter) evalCall(ex ast.Expr, e *env, modPath string) (ast.ConstValue, signal, error) {
	call := in.prog.Calls.Get(ex.A)
	fnIdx, ok := in.prog.Funcs.FindByName(modPath, call.CalleeName)
	if !ok {
		return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "identifier not found")
	}
	fn := in.prog.Funcs.Get(fnIdx)
	if !fn.Flags.Has(ast.FlagIsConstFn) {
		return ast.ConstValue{}, signal{}, diag.At(modPath, ex.Line, ex.Col, "const functions may only call const functions")
	}
	args := make([]ast.ConstValue, 0, len(call.Args))
	for _, a := range call.Args {
		v, sig, err := in.eval(a, e, modPath)
		if err != nil || sig.kind != sigNone {
			return v, sig, err
		}
		args = append(args, v)
	}
	v, err := in.CallConstFn(fnIdx, args)
	return v, signal{}, err
}
