package validate

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// validateCall resolves the callee, binds const-parameter call sites to a
// (possibly freshly specialized) concrete function via the specializer,
// type-checks the remaining runtime arguments against the bound
// function's runtime parameters, and rewrites the call-site metadata so
// the emitter only ever sees concrete function indices and runtime args
// (spec.md §4.5 "Specialization protocol", §4.6 "binding calls to
// concrete function indices").
func (fc *funcCtx) validateCall(ex ast.Expr, idx ast.ExprIndex, sc *scope) (ast.TypeID, error) {
	v := fc.v
	call := v.prog.Calls.Get(ex.A)

	if call.CalleeName == "len" {
		return fc.validateLenIntrinsic(ex, idx, call, sc)
	}

	calleeIdx, ok := v.prog.Funcs.FindByName(fc.path(), call.CalleeName)
	if !ok {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "identifier not found")
	}

	boundIdx, runtimeArgExprs, err := v.specializer.BindCall(fc.path(), call, calleeIdx)
	if err != nil {
		return 0, err
	}
	bound := v.prog.Funcs.Get(boundIdx)

	if len(runtimeArgExprs) != len(bound.Params) {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "argument count mismatch calling %s", bound.Name)
	}
	for i, a := range runtimeArgExprs {
		at, err := fc.validateExpr(a, sc)
		if err != nil {
			return 0, err
		}
		if at != bound.Params[i].Type {
			return 0, diag.At(fc.path(), ex.Line, ex.Col, "argument %d type does not match parameter type calling %s", i, bound.Name)
		}
	}

	call.Callee = boundIdx
	call.HasCallee = true
	call.Args = runtimeArgExprs
	v.prog.Calls.Set(ex.A, call)

	v.prog.Exprs.SetType(idx, bound.ReturnType)
	return bound.ReturnType, nil
}

// validateLenIntrinsic handles `len(x)` (spec.md §4.6: "len(x) requires an
// array operand"). It is recognized by name rather than routed through the
// specializer/FindByName machinery, since it binds to no declared function;
// on success the ExprCall node is rewritten in place to ast.ExprArrayLen so
// the emitter never has to special-case a "len" call.
func (fc *funcCtx) validateLenIntrinsic(ex ast.Expr, idx ast.ExprIndex, call ast.CallMeta, sc *scope) (ast.TypeID, error) {
	if len(call.Args) != 1 {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "len requires exactly one argument")
	}
	operandType, err := fc.validateExpr(call.Args[0], sc)
	if err != nil {
		return 0, err
	}
	if operandType.Kind() != ast.KindArray {
		return 0, diag.At(fc.path(), ex.Line, ex.Col, "len requires an array operand")
	}
	fc.v.prog.Exprs.Set(idx, ast.Expr{Kind: ast.ExprArrayLen, A: uint32(call.Args[0]), Type: ast.TypeI32, Line: ex.Line, Col: ex.Col})
	return ast.TypeI32, nil
}
