package consteval

import "github.com/bplang/bpc/internal/ast"

// cloner deep-copies a function body's expression subtree into fresh
// ExprTable entries, substituting references to const parameters with
// literal nodes built from their bound values (spec.md §4.5
// "Specialization protocol" step 2: "the function body is cloned with
// const parameter references replaced by literals").
//
// Cloning is required because ExprTable entries are shared/global: two
// specializations of the same generic function cannot point at the same
// body entries once one of them starts rewriting identifier references.
type cloner struct {
	prog    *ast.Program
	subst   map[string]ast.ConstValue
	modPath string
}

// CloneBody clones fn's body expression, substituting any identifier
// named in subst with a literal expression built from its ConstValue.
// It returns the index of the new, independent body expression.
func CloneBody(prog *ast.Program, fn ast.Function, subst map[string]ast.ConstValue) ast.ExprIndex {
	c := &cloner{prog: prog, subst: subst, modPath: fn.Module}
	return c.clone(fn.Body)
}

func (c *cloner) clone(idx ast.ExprIndex) ast.ExprIndex {
	if idx == ast.InvalidExpr {
		return ast.InvalidExpr
	}
	ex := c.prog.Exprs.Get(idx)
	switch ex.Kind {
	case ast.ExprIdent:
		name := c.prog.Exprs.Name(ex.A)
		if v, ok := c.subst[name]; ok {
			return c.literal(v, ex.Line, ex.Col)
		}
		return c.append(ex)

	case ast.ExprIntLit, ast.ExprBoolLit, ast.ExprCharLit, ast.ExprStrLit, ast.ExprContinue:
		return c.append(ex)

	case ast.ExprBinary:
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		ex.C = uint32(c.clone(ast.ExprIndex(ex.C)))
		return c.append(ex)

	case ast.ExprUnary:
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprCast:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		return c.append(ex)

	case ast.ExprBlock:
		items := c.prog.Exprs.List(ex.A, ex.B)
		cloned := make([]ast.ExprIndex, len(items))
		for i, it := range items {
			cloned[i] = c.clone(it)
		}
		start, count := c.prog.Exprs.AppendList(cloned)
		ex.A, ex.B = start, count
		return c.append(ex)

	case ast.ExprLet:
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprAssign:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprIf:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		if ast.ExprIndex(ex.C) != ast.InvalidExpr {
			ex.C = uint32(c.clone(ast.ExprIndex(ex.C)))
		}
		return c.append(ex)

	case ast.ExprWhile:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprLoop:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		return c.append(ex)

	case ast.ExprBreak, ast.ExprReturn:
		if ast.ExprIndex(ex.A) != ast.InvalidExpr {
			ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		}
		return c.append(ex)

	case ast.ExprCall:
		call := c.prog.Calls.Get(ex.A)
		newArgs := make([]ast.ExprIndex, len(call.Args))
		for i, a := range call.Args {
			newArgs[i] = c.clone(a)
		}
		call.Args = newArgs
		ex.A = c.prog.Calls.Append(call)
		return c.append(ex)

	case ast.ExprArrayList, ast.ExprTupleLit:
		items := c.prog.Exprs.List(ex.A, ex.B)
		cloned := make([]ast.ExprIndex, len(items))
		for i, it := range items {
			cloned[i] = c.clone(it)
		}
		start, count := c.prog.Exprs.AppendList(cloned)
		ex.A, ex.B = start, count
		return c.append(ex)

	case ast.ExprArrayRepeat:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprIndex:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		ex.B = uint32(c.clone(ast.ExprIndex(ex.B)))
		return c.append(ex)

	case ast.ExprField:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		return c.append(ex)

	case ast.ExprStructLit:
		pairs := c.prog.Exprs.List(ex.B, ex.C*2)
		cloned := make([]ast.ExprIndex, len(pairs))
		for i := 0; i < len(pairs); i += 2 {
			cloned[i] = pairs[i] // field-name handle, not an expression; carried as-is
			cloned[i+1] = c.clone(pairs[i+1])
		}
		start, _ := c.prog.Exprs.AppendList(cloned)
		ex.B = start
		return c.append(ex)

	case ast.ExprInlineWasm:
		ex.A = uint32(c.clone(ast.ExprIndex(ex.A)))
		return c.append(ex)

	case ast.ExprAnonFunc:
		// Anonymous function literals do not close over const parameters
		// in this language (spec.md §3 "no closures over mutable
		// state"); their body is specialized independently if the
		// anonymous function itself later takes const parameters.
		return c.append(ex)

	default:
		return c.append(ex)
	}
}

func (c *cloner) append(ex ast.Expr) ast.ExprIndex {
	return c.prog.Exprs.Append(ex)
}

// literal builds a literal expression node for a previously evaluated
// const value, used to inline a const parameter's bound value into a
// cloned specialization body.
func (c *cloner) literal(v ast.ConstValue, line, col int) ast.ExprIndex {
	switch v.Kind {
	case ast.ConstBool:
		val := uint32(0)
		if v.Bool {
			val = 1
		}
		return c.append(ast.Expr{Kind: ast.ExprBoolLit, A: val, Type: ast.TypeBool, Line: line, Col: col})
	case ast.ConstInt:
		return c.append(ast.Expr{Kind: ast.ExprIntLit, A: uint32(v.Int), B: uint32(v.Int >> 32), Type: v.Type, Line: line, Col: col})
	case ast.ConstType:
		// Type-valued const parameters are resolved directly by the
		// validator/specializer from ConstKeyEntry.Value.AsType; they
		// never appear as an evaluable expression in a cloned body.
		return c.append(ast.Expr{Kind: ast.ExprInvalid, Type: ast.TypeType, Line: line, Col: col})
	case ast.ConstComposite:
		comp := c.prog.Composites.Get(v.Composite)
		items := make([]ast.ExprIndex, len(comp.Elems))
		for i, e := range comp.Elems {
			items[i] = c.literal(e, line, col)
		}
		start, count := c.prog.Exprs.AppendList(items)
		return c.append(ast.Expr{Kind: ast.ExprArrayList, A: start, B: count, Type: v.Type, Line: line, Col: col})
	default:
		return c.append(ast.Expr{Kind: ast.ExprInvalid, Line: line, Col: col})
	}
}
