package parser

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/lexer"
)

// parseBlock parses `{ stmt* tailExpr? }` (spec.md §4.4 primary grammar;
// §4.6 "Blocks must end with a tail expression").
func (p *Parser) parseBlock() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if _, err := p.expect(lexer.LBrace); err != nil {
		return 0, err
	}
	var items []ast.ExprIndex
	hasTail := false
	for p.cur.Kind != lexer.RBrace {
		if p.cur.Kind == lexer.KwLet {
			e, err := p.parseLet()
			if err != nil {
				return 0, err
			}
			if _, err := p.expect(lexer.Semi); err != nil {
				return 0, err
			}
			items = append(items, e)
			hasTail = false
			continue
		}
		e, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		items = append(items, e)
		if ok, err := p.accept(lexer.Semi); err != nil {
			return 0, err
		} else if ok {
			hasTail = false
			continue
		}
		hasTail = true
		break
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return 0, err
	}
	start, count := p.prog.Exprs.AppendList(items)
	c := uint32(0)
	if hasTail {
		c = 1
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprBlock, A: start, B: count, C: c, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseLet() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'let'
		return 0, err
	}
	isMut, err := p.accept(lexer.KwMut)
	if err != nil {
		return 0, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return 0, err
	}
	if ok, err := p.accept(lexer.Colon); err != nil {
		return 0, err
	} else if ok {
		// optional type annotation; parsed and discarded here since the
		// validator re-derives/cross-checks the type from the init
		// expression (kept simple: the annotation's sole job per spec.md
		// is to catch "type annotations require const type values").
		if _, err := p.parseType(); err != nil {
			return 0, err
		}
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return 0, err
	}
	initExpr, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	nameIdx := p.prog.Exprs.InternNamePool(nameTok.Text)
	mut := uint32(0)
	if isMut {
		mut = 1
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprLet, A: nameIdx, B: uint32(initExpr), C: mut, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

// parseExpr parses a full expression starting at the lowest-precedence
// level (assignment), per spec.md §4.4.
func (p *Parser) parseExpr() (ast.ExprIndex, error) {
	return p.parseAssign()
}

func (p *Parser) parseAssign() (ast.ExprIndex, error) {
	lhs, err := p.parseLogOr()
	if err != nil {
		return 0, err
	}
	if p.cur.Kind == lexer.Eq {
		line, col := p.cur.Line, p.cur.Col
		if err := p.next(); err != nil {
			return 0, err
		}
		rhs, err := p.parseAssign()
		if err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprAssign, A: uint32(lhs), B: uint32(rhs), Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	return lhs, nil
}

type binLevel struct {
	toks []lexer.Kind
	ops  []ast.BinOp
}

func (p *Parser) parseBinaryLevel(next func() (ast.ExprIndex, error), lvl binLevel) (ast.ExprIndex, error) {
	lhs, err := next()
	if err != nil {
		return 0, err
	}
	for {
		matched := -1
		for i, k := range lvl.toks {
			if p.cur.Kind == k {
				matched = i
				break
			}
		}
		if matched < 0 {
			return lhs, nil
		}
		line, col := p.cur.Line, p.cur.Col
		if err := p.next(); err != nil {
			return 0, err
		}
		rhs, err := next()
		if err != nil {
			return 0, err
		}
		lhs = p.prog.Exprs.Append(ast.Expr{
			Kind: ast.ExprBinary, A: uint32(lvl.ops[matched]), B: uint32(lhs), C: uint32(rhs),
			Type: ast.TypeInvalid, Line: line, Col: col,
		})
	}
}

func (p *Parser) parseLogOr() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseLogAnd, binLevel{[]lexer.Kind{lexer.PipePipe}, []ast.BinOp{ast.OpLogOr}})
}

func (p *Parser) parseLogAnd() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseCompare, binLevel{[]lexer.Kind{lexer.AmpAmp}, []ast.BinOp{ast.OpLogAnd}})
}

func (p *Parser) parseCompare() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseBitwise, binLevel{
		[]lexer.Kind{lexer.EqEq, lexer.Ne, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge},
		[]ast.BinOp{ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe},
	})
}

func (p *Parser) parseBitwise() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseShift, binLevel{
		[]lexer.Kind{lexer.Pipe, lexer.Caret, lexer.Amp},
		[]ast.BinOp{ast.OpOr, ast.OpXor, ast.OpAnd},
	})
}

func (p *Parser) parseShift() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseAdditive, binLevel{[]lexer.Kind{lexer.Shl, lexer.Shr}, []ast.BinOp{ast.OpShl, ast.OpShr}})
}

func (p *Parser) parseAdditive() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, binLevel{[]lexer.Kind{lexer.Plus, lexer.Minus}, []ast.BinOp{ast.OpAdd, ast.OpSub}})
}

func (p *Parser) parseMultiplicative() (ast.ExprIndex, error) {
	return p.parseBinaryLevel(p.parseUnary, binLevel{[]lexer.Kind{lexer.Star, lexer.Slash, lexer.Percent}, []ast.BinOp{ast.OpMul, ast.OpDiv, ast.OpMod}})
}

func (p *Parser) parseUnary() (ast.ExprIndex, error) {
	if p.cur.Kind == lexer.Minus || p.cur.Kind == lexer.Bang {
		line, col := p.cur.Line, p.cur.Col
		op := ast.OpNeg
		if p.cur.Kind == lexer.Bang {
			op = ast.OpNot
		}
		if err := p.next(); err != nil {
			return 0, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprUnary, A: uint32(op), B: uint32(operand), Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	return p.parseCast()
}

func (p *Parser) parseCast() (ast.ExprIndex, error) {
	e, err := p.parsePostfix()
	if err != nil {
		return 0, err
	}
	for p.cur.Kind == lexer.KwAs {
		line, col := p.cur.Line, p.cur.Col
		if err := p.next(); err != nil {
			return 0, err
		}
		target, err := p.parseType()
		if err != nil {
			return 0, err
		}
		e = p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprCast, A: uint32(e), B: uint32(target), Type: ast.TypeInvalid, Line: line, Col: col})
	}
	return e, nil
}

func (p *Parser) parsePostfix() (ast.ExprIndex, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.cur.Kind {
		case lexer.LParen:
			e, err = p.parseCallTail(e)
		case lexer.LBracket:
			e, err = p.parseIndexTail(e)
		case lexer.Dot:
			e, err = p.parseFieldTail(e)
		default:
			return e, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (p *Parser) parseCallTail(callee ast.ExprIndex) (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	calleeExpr := p.prog.Exprs.Get(callee)
	if calleeExpr.Kind != ast.ExprIdent {
		return 0, diag.At(p.path, line, col, "call target must be a plain identifier")
	}
	calleeName := p.prog.Exprs.Name(calleeExpr.A)
	if err := p.next(); err != nil { // '('
		return 0, err
	}
	var args []ast.ExprIndex
	for p.cur.Kind != lexer.RParen {
		a, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		args = append(args, a)
		if ok, err := p.accept(lexer.Comma); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, err
	}
	callIdx := p.prog.Calls.Append(ast.CallMeta{CalleeName: calleeName, Args: args, Line: line, Col: col})
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprCall, A: callIdx, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseIndexTail(base ast.ExprIndex) (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // '['
		return 0, err
	}
	idxExpr, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return 0, err
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprIndex, A: uint32(base), B: uint32(idxExpr), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseFieldTail(base ast.ExprIndex) (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // '.'
		return 0, err
	}
	if p.cur.Kind == lexer.Int {
		idx := uint32(p.cur.IntValue)
		if err := p.next(); err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprField, A: uint32(base), B: idx, C: 1, Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return 0, err
	}
	nameIdx := p.prog.Exprs.InternNamePool(nameTok.Text)
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprField, A: uint32(base), B: nameIdx, C: 0, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}
