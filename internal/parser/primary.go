package parser

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/lexer"
)

func (p *Parser) parsePrimary() (ast.ExprIndex, error) {
	tok := p.cur
	switch tok.Kind {
	case lexer.Int:
		if err := p.next(); err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{
			Kind: ast.ExprIntLit, A: uint32(tok.IntValue), B: uint32(tok.IntValue >> 32),
			Type: intLitType(tok.IntSuffix), Line: tok.Line, Col: tok.Col,
		}), nil
	case lexer.KwTrue, lexer.KwFalse:
		if err := p.next(); err != nil {
			return 0, err
		}
		v := uint32(0)
		if tok.Kind == lexer.KwTrue {
			v = 1
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprBoolLit, A: v, Type: ast.TypeBool, Line: tok.Line, Col: tok.Col}), nil
	case lexer.Str:
		if err := p.next(); err != nil {
			return 0, err
		}
		idx := p.prog.Exprs.InternStr(tok.StrValue)
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprStrLit, A: idx, Type: ast.TypeInvalid, Line: tok.Line, Col: tok.Col}), nil
	case lexer.Char:
		if err := p.next(); err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprCharLit, A: uint32(tok.CharValue), Type: ast.TypeU8, Line: tok.Line, Col: tok.Col}), nil
	case lexer.Ident:
		if tok.Text == "inline_wasm" {
			return p.parseInlineWasm()
		}
		if err := p.next(); err != nil {
			return 0, err
		}
		nameIdx := p.prog.Exprs.InternNamePool(tok.Text)
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprIdent, A: nameIdx, Type: ast.TypeInvalid, Line: tok.Line, Col: tok.Col}), nil
	case lexer.LParen:
		return p.parseParenOrTuple()
	case lexer.LBracket:
		return p.parseArrayLit()
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.KwStruct:
		return p.parseStructLit()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwLoop:
		return p.parseLoop()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwBreak:
		return p.parseBreak()
	case lexer.KwContinue:
		if err := p.next(); err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprContinue, Type: ast.TypeUnit, Line: tok.Line, Col: tok.Col}), nil
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwFn:
		return p.parseAnonFunc()
	default:
		return 0, diag.At(p.path, tok.Line, tok.Col, "expected an expression, found %s", tok.Kind)
	}
}

func intLitType(suffix string) ast.TypeID {
	if t, ok := ast.PrimitiveByName(suffix); ok && t.IsInteger() {
		return t
	}
	return ast.TypeI32 // default integer literal type; the validator keeps it as is
}

// parseStructLit parses `struct Name { field: expr, ... }` (spec.md §3
// Expression "struct literal"). The leading `struct` keyword sidesteps the
// `Ident { ... }` ambiguity with a block in statement position.
func (p *Parser) parseStructLit() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'struct'
		return 0, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return 0, err
	}
	nameIdx := p.prog.Exprs.InternNamePool(nameTok.Text)
	var fieldNames []ast.ExprIndex
	var fieldValues []ast.ExprIndex
	for p.cur.Kind != lexer.RBrace {
		fieldTok, err := p.expect(lexer.Ident)
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return 0, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		fIdx := p.prog.Exprs.InternNamePool(fieldTok.Text)
		fieldNames = append(fieldNames, ast.ExprIndex(fIdx))
		fieldValues = append(fieldValues, v)
		if ok, err := p.accept(lexer.Comma); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return 0, err
	}
	// Interleave name/value pairs into one list so a single (start,count)
	// handle carries both, matching the table's list-of-ExprIndex shape.
	interleaved := make([]ast.ExprIndex, 0, len(fieldNames)*2)
	for i := range fieldNames {
		interleaved = append(interleaved, fieldNames[i], fieldValues[i])
	}
	start, count := p.prog.Exprs.AppendList(interleaved)
	return p.prog.Exprs.Append(ast.Expr{
		Kind: ast.ExprStructLit, A: nameIdx, B: start, C: count / 2,
		Type: ast.TypeInvalid, Line: line, Col: col,
	}), nil
}

// parseParenOrTuple parses `(expr)` or `(e1, e2, ...)` — the latter is a
// tuple literal (spec.md §3 Expression "tuple literal").
func (p *Parser) parseParenOrTuple() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // '('
		return 0, err
	}
	if p.cur.Kind == lexer.RParen {
		if err := p.next(); err != nil {
			return 0, err
		}
		start, count := p.prog.Exprs.AppendList(nil)
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprTupleLit, A: start, B: count, Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.cur.Kind != lexer.Comma {
		_, err := p.expect(lexer.RParen)
		return first, err
	}
	items := []ast.ExprIndex{first}
	for p.cur.Kind == lexer.Comma {
		if err := p.next(); err != nil {
			return 0, err
		}
		if p.cur.Kind == lexer.RParen {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		items = append(items, e)
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, err
	}
	start, count := p.prog.Exprs.AppendList(items)
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprTupleLit, A: start, B: count, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

// parseArrayLit parses `[value; length]` (repeat form) or
// `[e1, e2, ...]` (list form) (spec.md §3 Expression).
func (p *Parser) parseArrayLit() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // '['
		return 0, err
	}
	if p.cur.Kind == lexer.RBracket {
		if err := p.next(); err != nil {
			return 0, err
		}
		start, count := p.prog.Exprs.AppendList(nil)
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprArrayList, A: start, B: count, Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.cur.Kind == lexer.Semi {
		if err := p.next(); err != nil {
			return 0, err
		}
		length, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return 0, err
		}
		return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprArrayRepeat, A: uint32(first), B: uint32(length), Type: ast.TypeInvalid, Line: line, Col: col}), nil
	}
	items := []ast.ExprIndex{first}
	for p.cur.Kind == lexer.Comma {
		if err := p.next(); err != nil {
			return 0, err
		}
		if p.cur.Kind == lexer.RBracket {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		items = append(items, e)
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return 0, err
	}
	start, count := p.prog.Exprs.AppendList(items)
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprArrayList, A: start, B: count, Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseIf() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'if'
		return 0, err
	}
	cond, err := p.parseExprNoStructLit()
	if err != nil {
		return 0, diag.At(p.path, line, col, "if expression condition parse failed")
	}
	thenExpr, err := p.parseBlock()
	if err != nil {
		return 0, err
	}
	elseExpr := ast.InvalidExpr
	if ok, err := p.accept(lexer.KwElse); err != nil {
		return 0, err
	} else if ok {
		if p.cur.Kind == lexer.KwIf {
			elseExpr, err = p.parseIf()
		} else {
			elseExpr, err = p.parseBlock()
		}
		if err != nil {
			return 0, err
		}
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprIf, A: uint32(cond), B: uint32(thenExpr), C: uint32(elseExpr), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

// parseExprNoStructLit is an alias for parseExpr; kept distinct so the
// `if`/`while` condition grammar can later restrict brace-ambiguous forms
// without touching call sites, matching the defensive style of keeping
// condition parsing separate from general expression parsing.
func (p *Parser) parseExprNoStructLit() (ast.ExprIndex, error) { return p.parseExpr() }

func (p *Parser) parseLoop() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'loop'
		return 0, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return 0, err
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprLoop, A: uint32(body), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseWhile() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'while'
		return 0, err
	}
	cond, err := p.parseExprNoStructLit()
	if err != nil {
		return 0, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return 0, err
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprWhile, A: uint32(cond), B: uint32(body), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseBreak() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'break'
		return 0, err
	}
	value := ast.InvalidExpr
	if !p.atExprBoundary() {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		value = v
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprBreak, A: uint32(value), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func (p *Parser) parseReturn() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'return'
		return 0, err
	}
	value := ast.InvalidExpr
	if !p.atExprBoundary() {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		value = v
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprReturn, A: uint32(value), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

// atExprBoundary reports whether the current token can only end a
// statement/expression list (`;`, `}`, `)`, `,`), meaning a bare
// `break`/`return` has no trailing value.
func (p *Parser) atExprBoundary() bool {
	switch p.cur.Kind {
	case lexer.Semi, lexer.RBrace, lexer.RParen, lexer.RBracket, lexer.Comma:
		return true
	}
	return false
}

func (p *Parser) parseAnonFunc() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'fn'
		return 0, err
	}
	params, err := p.parseParams()
	if err != nil {
		return 0, err
	}
	ret := ast.TypeUnit
	if ok, err := p.accept(lexer.Arrow); err != nil {
		return 0, err
	} else if ok {
		ret, err = p.parseType()
		if err != nil {
			return 0, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return 0, err
	}
	name := anonFuncName(p.prog.Funcs.Len())
	fn := ast.Function{
		Name: name, Module: p.path, Params: params, ReturnType: ret, Body: body,
		Line: line, Col: col,
	}
	idx, ok := p.prog.Funcs.Append(fn)
	if !ok {
		return 0, diag.At(p.path, line, col, "function limit exceeded")
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprAnonFunc, A: uint32(idx), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}

func anonFuncName(n int) string {
	const hexDigits = "0123456789abcdef"
	var b [8]byte
	for i := range b {
		b[7-i] = hexDigits[(n>>(4*i))&0xF]
	}
	return "<anon$" + string(b[:]) + ">"
}

// parseInlineWasm parses `inline_wasm([b0, b1, ...])`, a single u8 array
// literal argument whose elements must each be a compile-time constant
// (spec.md §4.7 "inline_wasm").
func (p *Parser) parseInlineWasm() (ast.ExprIndex, error) {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'inline_wasm'
		return 0, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return 0, err
	}
	if p.cur.Kind != lexer.LBracket {
		return 0, diag.At(p.path, p.cur.Line, p.cur.Col, "inline_wasm argument must be an array literal of u8 values")
	}
	arrExpr, err := p.parseArrayLit()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, err
	}
	return p.prog.Exprs.Append(ast.Expr{Kind: ast.ExprInlineWasm, A: uint32(arrExpr), Type: ast.TypeInvalid, Line: line, Col: col}), nil
}
