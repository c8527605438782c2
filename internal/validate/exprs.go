package validate

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// isDivergentExpr reports whether idx never produces a value in the
// normal flow (it always returns/breaks/continues), so it can stand in
// for any expected type at a type-matching site (if/else branches, loop
// results, block tails). There is no explicit "never" TypeID in this
// compiler's type system; this check substitutes for one.
func (fc *funcCtx) isDivergentExpr(idx ast.ExprIndex) bool {
	ex := fc.v.prog.Exprs.Get(idx)
	switch ex.Kind {
	case ast.ExprReturn, ast.ExprBreak, ast.ExprContinue:
		return true
	case ast.ExprBlock:
		if ex.C == 0 {
			return false
		}
		items := fc.v.prog.Exprs.List(ex.A, ex.B)
		return fc.isDivergentExpr(items[len(items)-1])
	case ast.ExprIf:
		if ast.ExprIndex(ex.C) == ast.InvalidExpr {
			return false
		}
		return fc.isDivergentExpr(ast.ExprIndex(ex.B)) && fc.isDivergentExpr(ast.ExprIndex(ex.C))
	}
	return false
}

func (fc *funcCtx) path() string { return fc.fn.Module }

func (fc *funcCtx) currentLoop() *loopFrame {
	if len(fc.loop) == 0 {
		return nil
	}
	return fc.loop[len(fc.loop)-1]
}

// validateExpr resolves identifiers, assigns a type to idx (and every
// reachable subexpression), and returns that type.
func (fc *funcCtx) validateExpr(idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	ex := v.prog.Exprs.Get(idx)
	switch ex.Kind {
	case ast.ExprIntLit, ast.ExprBoolLit, ast.ExprCharLit:
		return ex.Type, nil

	case ast.ExprStrLit:
		s := v.prog.Exprs.Str(ex.A)
		arrType, err := v.prog.Types.InternArray(ast.TypeU8, int64(len(s)))
		if err != nil {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, err.Error())
		}
		v.prog.Exprs.SetType(idx, arrType)
		return arrType, nil

	case ast.ExprIdent:
		name := v.prog.Exprs.Name(ex.A)
		if b, ok := sc.lookup(name); ok {
			v.prog.Exprs.SetType(idx, b.typ)
			return b.typ, nil
		}
		if cidx, ok := v.prog.Consts.FindByName(fc.path(), name); ok {
			c := v.prog.Consts.Get(cidx)
			v.prog.Exprs.SetType(idx, c.Type)
			return c.Type, nil
		}
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "identifier not found")

	case ast.ExprBinary:
		lt, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
		if err != nil {
			return 0, err
		}
		rt, err := fc.validateExpr(ast.ExprIndex(ex.C), sc)
		if err != nil {
			return 0, err
		}
		op := ast.BinOp(ex.A)
		switch op {
		case ast.OpLogAnd, ast.OpLogOr:
			if lt != ast.TypeBool || rt != ast.TypeBool {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "logical operator operands must be bool")
			}
			v.prog.Exprs.SetType(idx, ast.TypeBool)
			return ast.TypeBool, nil
		case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
			if lt != rt {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "binary operator operands must have matching type")
			}
			v.prog.Exprs.SetType(idx, ast.TypeBool)
			return ast.TypeBool, nil
		default:
			if lt != rt {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "binary operator operands must have matching type")
			}
			if !lt.IsInteger() {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "arithmetic operands must be integers")
			}
			v.prog.Exprs.SetType(idx, lt)
			return lt, nil
		}

	case ast.ExprUnary:
		t, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
		if err != nil {
			return 0, err
		}
		if ast.UnOp(ex.A) == ast.OpNot && t != ast.TypeBool {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "logical not operand must be bool")
		}
		if ast.UnOp(ex.A) == ast.OpNeg && (!t.IsInteger() || !t.IsSigned()) {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "negation operand must be a signed integer")
		}
		v.prog.Exprs.SetType(idx, t)
		return t, nil

	case ast.ExprCast:
		if _, err := fc.validateExpr(ast.ExprIndex(ex.A), sc); err != nil {
			return 0, err
		}
		target := ast.TypeID(ex.B)
		v.prog.Exprs.SetType(idx, target)
		return target, nil

	case ast.ExprBlock:
		return fc.validateBlock(ex, idx, sc)

	case ast.ExprLet:
		initType, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
		if err != nil {
			return 0, err
		}
		name := v.prog.Exprs.Name(ex.A)
		sc.define(name, initType, ex.C != 0)
		v.prog.Exprs.SetType(idx, ast.TypeUnit)
		return ast.TypeUnit, nil

	case ast.ExprAssign:
		target := v.prog.Exprs.Get(ast.ExprIndex(ex.A))
		switch target.Kind {
		case ast.ExprIdent:
			name := v.prog.Exprs.Name(target.A)
			b, ok := sc.lookup(name)
			if !ok {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "identifier not found")
			}
			if !b.mut {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "cannot assign to immutable local")
			}
			rt, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
			if err != nil {
				return 0, err
			}
			if rt != b.typ {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "assignment value type does not match local type")
			}
			v.prog.Exprs.Set(ast.ExprIndex(ex.A), ast.Expr{Kind: ast.ExprIdent, A: target.A, Type: b.typ, Line: target.Line, Col: target.Col})

		case ast.ExprIndex:
			targetType, err := fc.validateIndex(target, ast.ExprIndex(ex.A), sc)
			if err != nil {
				return 0, err
			}
			rt, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
			if err != nil {
				return 0, err
			}
			if rt != targetType {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "array element assignment type mismatch")
			}

		case ast.ExprField:
			targetType, err := fc.validateField(target, ast.ExprIndex(ex.A), sc)
			if err != nil {
				return 0, err
			}
			rt, err := fc.validateExpr(ast.ExprIndex(ex.B), sc)
			if err != nil {
				return 0, err
			}
			if rt != targetType {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "tuple field assignment type mismatch")
			}

		default:
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "cannot assign to this expression")
		}
		v.prog.Exprs.SetType(idx, ast.TypeUnit)
		return ast.TypeUnit, nil

	case ast.ExprIf:
		condType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
		if err != nil {
			return 0, err
		}
		if condType != ast.TypeBool {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "if condition must be bool")
		}
		thenType, err := fc.validateExpr(ast.ExprIndex(ex.B), newScope(sc))
		if err != nil {
			return 0, err
		}
		if ast.ExprIndex(ex.C) == ast.InvalidExpr {
			v.prog.Exprs.SetType(idx, ast.TypeUnit)
			return ast.TypeUnit, nil
		}
		elseType, err := fc.validateExpr(ast.ExprIndex(ex.C), newScope(sc))
		if err != nil {
			return 0, err
		}
		resultType, err := fc.unify(thenType, ast.ExprIndex(ex.B), elseType, ast.ExprIndex(ex.C), ex.Line, ex.Col, "if branches must have matching type")
		if err != nil {
			return 0, err
		}
		v.prog.Exprs.SetType(idx, resultType)
		return resultType, nil

	case ast.ExprWhile:
		condType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
		if err != nil {
			return 0, err
		}
		if condType != ast.TypeBool {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "while condition must be bool")
		}
		frame := &loopFrame{kind: loopKindWhile, breakType: ast.TypeInvalid}
		fc.loop = append(fc.loop, frame)
		_, err = fc.validateExpr(ast.ExprIndex(ex.B), newScope(sc))
		fc.loop = fc.loop[:len(fc.loop)-1]
		if err != nil {
			return 0, err
		}
		v.prog.Exprs.SetType(idx, ast.TypeUnit)
		return ast.TypeUnit, nil

	case ast.ExprLoop:
		frame := &loopFrame{kind: loopKindLoop, breakType: ast.TypeInvalid}
		fc.loop = append(fc.loop, frame)
		_, err := fc.validateExpr(ast.ExprIndex(ex.A), newScope(sc))
		fc.loop = fc.loop[:len(fc.loop)-1]
		if err != nil {
			return 0, err
		}
		result := frame.breakType
		if result == ast.TypeInvalid {
			result = fc.fn.ReturnType // an infinite loop diverges via `return` only
		}
		v.prog.Exprs.SetType(idx, result)
		return result, nil

	case ast.ExprBreak:
		frame := fc.currentLoop()
		if frame == nil {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "break must be inside a loop")
		}
		if ast.ExprIndex(ex.A) == ast.InvalidExpr {
			v.prog.Exprs.SetType(idx, ast.TypeUnit)
			return ast.TypeUnit, nil
		}
		if frame.kind == loopKindWhile {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "while loops cannot break with values")
		}
		valType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
		if err != nil {
			return 0, err
		}
		if frame.breakType == ast.TypeInvalid {
			frame.breakType = valType
		} else if frame.breakType != valType {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "loop break values must have matching type")
		}
		v.prog.Exprs.SetType(idx, ast.TypeUnit)
		return ast.TypeUnit, nil

	case ast.ExprContinue:
		if fc.currentLoop() == nil {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "continue must be inside a loop")
		}
		return ast.TypeUnit, nil

	case ast.ExprReturn:
		if ast.ExprIndex(ex.A) == ast.InvalidExpr {
			if fc.fn.ReturnType != ast.TypeUnit {
				return 0, diag.At(fc.path(), ex.Line, ex.Col, "bare return requires unit return type")
			}
			return ast.TypeUnit, nil
		}
		valType, err := fc.validateExpr(ast.ExprIndex(ex.A), sc)
		if err != nil {
			return 0, err
		}
		if valType != fc.fn.ReturnType {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "return value type does not match declared return type")
		}
		return ast.TypeUnit, nil

	case ast.ExprCall:
		return fc.validateCall(ex, idx, sc)

	case ast.ExprIndex:
		return fc.validateIndex(ex, idx, sc)

	case ast.ExprField:
		return fc.validateField(ex, idx, sc)

	case ast.ExprArrayList:
		return fc.validateArrayList(ex, idx, sc)

	case ast.ExprArrayRepeat:
		return fc.validateArrayRepeat(ex, idx, sc)

	case ast.ExprTupleLit:
		return fc.validateTupleLit(ex, idx, sc)

	case ast.ExprStructLit:
		return fc.validateStructLit(ex, idx, sc)

	case ast.ExprAnonFunc:
		fnIdx := ast.FuncIndex(ex.A)
		fn := v.prog.Funcs.Get(fnIdx)
		sigType, err := v.prog.Types.InternFuncSig(paramTypes(fn.Params), 0, fn.ReturnType)
		if err != nil {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, err.Error())
		}
		inner := &funcCtx{v: v, fn: fn}
		innerScope := newScope(nil)
		for _, p := range fn.Params {
			innerScope.define(p.Name, p.Type, false)
		}
		if _, err := inner.validateExpr(fn.Body, innerScope); err != nil {
			return 0, err
		}
		v.prog.Exprs.SetType(idx, sigType)
		return sigType, nil

	case ast.ExprInlineWasm:
		if _, err := fc.validateExpr(ast.ExprIndex(ex.A), sc); err != nil {
			return 0, err
		}
		v.prog.Exprs.SetType(idx, ast.TypeUnit)
		return ast.TypeUnit, nil

	default:
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "unsupported expression")
	}
}

func (fc *funcCtx) unify(aType ast.TypeID, aIdx ast.ExprIndex, bType ast.TypeID, bIdx ast.ExprIndex, line, col int, msg string) (ast.TypeID, error) {
	aDiv, bDiv := fc.isDivergentExpr(aIdx), fc.isDivergentExpr(bIdx)
	switch {
	case aDiv && bDiv:
		return ast.TypeUnit, nil
	case aDiv:
		return bType, nil
	case bDiv:
		return aType, nil
	case aType != bType:
		return 0, diag.At(fc.path(), line, col, msg)
	default:
		return aType, nil
	}
}

func (fc *funcCtx) validateBlock(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	inner := newScope(sc)
	items := fc.v.prog.Exprs.List(ex.A, ex.B)
	var last ast.TypeID = ast.TypeUnit
	for _, it := range items {
		t, err := fc.validateExpr(it, inner)
		if err != nil {
			return 0, err
		}
		last = t
	}
	if ex.C == 0 {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "block must end with expression")
	}
	fc.v.prog.Exprs.SetType(idx, last)
	return last, nil
}

func paramTypes(params []ast.Param) []ast.TypeID {
	out := make([]ast.TypeID, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}
