package parser

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/lexer"
)

func (p *Parser) parseParams() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var params []ast.Param
	seen := map[string]bool{}
	for p.cur.Kind != lexer.RParen {
		isConst, err := p.accept(lexer.KwConst)
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if seen[nameTok.Text] {
			return nil, diagAt(p, nameTok, "duplicate parameter name")
		}
		seen[nameTok.Text] = true
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nameTok.Text, Type: ty, IsConst: isConst})
		if ok, err := p.accept(lexer.Comma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	_, err := p.expect(lexer.RParen)
	return params, err
}

// parseFnDecl parses `fn name(params) -> ret { body }`. isConstFn is true
// when called from a `const fn` declaration.
func (p *Parser) parseFnDecl(isConstFn bool) (ast.FuncIndex, error) {
	startLine, startCol := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // 'fn'
		return 0, err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return 0, err
	}
	if _, ok := p.prog.Funcs.FindByName(p.path, nameTok.Text); ok {
		return 0, diagAt(p, nameTok, "duplicate function declaration")
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
	var flags ast.FuncFlags
	hasConst := false
	for _, prm := range params {
		if prm.IsConst {
			hasConst = true
			break
		}
	}
	if hasConst {
		flags |= ast.FlagHasConstParams
	}
	if isConstFn {
		flags |= ast.FlagIsConstFn
	}
	// All non-private functions declared in the entry module are export
	// candidates; const fns are interpreted at compile time and never
	// emitted at all, so they never carry this flag. A function with
	// const parameters carries it too, but it is never emitted itself,
	// and its specializations are created without the flag, so no
	// function with const parameters appears in the export section.
	if p.path == p.prog.EntryModule && !isConstFn {
		flags |= ast.FlagIsExported
	}
	fn := ast.Function{
		Name: nameTok.Text, Module: p.path, Params: params,
		ReturnType: ret, Body: body, Flags: flags,
		Line: startLine, Col: startCol,
	}
	idx, ok := p.prog.Funcs.Append(fn)
	if !ok {
		return 0, diagAt(p, nameTok, "function limit exceeded")
	}
	return idx, nil
}

func (p *Parser) parseConstDecl() error {
	if err := p.next(); err != nil { // 'const'
		return err
	}
	if p.cur.Kind == lexer.KwFn {
		_, err := p.parseFnDecl(true)
		return err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return err
	}
	if _, ok := p.prog.Consts.FindByName(p.path, nameTok.Text); ok {
		return diagAt(p, nameTok, "duplicate constant declaration")
	}
	ty := ast.TypeID(ast.TypeInvalid)
	if ok, err := p.accept(lexer.Colon); err != nil {
		return err
	} else if ok {
		ty, err = p.parseType()
		if err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return err
	}
	valueExpr, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return err
	}
	c := ast.Constant{
		Name: nameTok.Text, Module: p.path, Type: ty, Expr: valueExpr,
		Line: nameTok.Line, Col: nameTok.Col,
	}
	_, ok := p.prog.Consts.Append(c)
	if !ok {
		return diagAt(p, nameTok, "constant table capacity exceeded")
	}
	return nil
}

func diagAt(p *Parser, tok lexer.Token, format string, args ...any) error {
	return diag.At(p.path, tok.Line, tok.Col, format, args...)
}
