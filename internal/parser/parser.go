// Package parser implements the recursive-descent/precedence-climbing
// parser described in spec.md §4.4: it consumes tokens from internal/lexer
// and appends records into the shared internal/ast tables, eagerly
// recursing into internal/source for `use` declarations.
package parser

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/lexer"
	"github.com/bplang/bpc/internal/source"
)

// Parser parses one module at a time but shares ast.Program tables across
// every module in a compile, so that functions/constants/types declared
// anywhere are visible by (module, name) lookup once parsed.
type Parser struct {
	reg  *source.Registry
	prog *ast.Program

	path string
	src  string
	lex  *lexer.Lexer
	cur  lexer.Token

	// typeAliases maps "module\x00name" -> resolved TypeID for plain
	// `type Name = <Type>;` aliases (struct aliases instead live directly
	// in the struct type table).
	typeAliases map[string]ast.TypeID
}

func (p *Parser) aliases() map[string]ast.TypeID {
	if p.typeAliases == nil {
		p.typeAliases = make(map[string]ast.TypeID)
	}
	return p.typeAliases
}

// New creates a Parser sharing prog across every module it (recursively)
// parses out of reg.
func New(reg *source.Registry, prog *ast.Program) *Parser {
	return &Parser{reg: reg, prog: prog}
}

// ParseModule parses the module at path if it has not already been
// parsed, recursing into imported modules first (spec.md §4.4: "use
// declaration (eagerly triggers Module Registry lookup + recursive parse
// if not yet parsed)").
func (p *Parser) ParseModule(path string) error {
	mod, ok := p.reg.Lookup(path)
	if !ok {
		return diag.Bare("module not loaded: %s", path)
	}
	if mod.Parsed {
		return nil
	}
	saved := p.saveState()
	p.path = path
	p.src = mod.Source
	p.lex = lexer.New(path, mod.Source)
	if err := p.next(); err != nil {
		return err
	}
	err := p.parseItems()
	p.restoreState(saved)
	if err != nil {
		return err
	}
	p.reg.MarkParsed(path)
	return nil
}

type parserState struct {
	path string
	src  string
	lex  *lexer.Lexer
	cur  lexer.Token
}

func (p *Parser) saveState() parserState {
	return parserState{path: p.path, src: p.src, lex: p.lex, cur: p.cur}
}

func (p *Parser) restoreState(s parserState) {
	p.path, p.src, p.lex, p.cur = s.path, s.src, s.lex, s.cur
}

func (p *Parser) next() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) errf(format string, args ...any) error {
	return diag.At(p.path, p.cur.Line, p.cur.Col, format, args...)
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errf("expected %s, found %s", k, p.cur.Kind)
	}
	t := p.cur
	err := p.next()
	return t, err
}

func (p *Parser) accept(k lexer.Kind) (bool, error) {
	if p.cur.Kind != k {
		return false, nil
	}
	return true, p.next()
}

func (p *Parser) parseItems() error {
	for p.cur.Kind != lexer.EOF {
		if err := p.parseItem(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseItem() error {
	switch p.cur.Kind {
	case lexer.KwUse:
		return p.parseUse()
	case lexer.KwConst:
		return p.parseConstDecl()
	case lexer.KwFn:
		_, err := p.parseFnDecl(false)
		return err
	case lexer.KwType:
		return p.parseTypeAlias()
	default:
		return p.errf("expected a top-level declaration, found %s", p.cur.Kind)
	}
}

func (p *Parser) parseUse() error {
	line, col := p.cur.Line, p.cur.Col
	if err := p.next(); err != nil { // consume 'use'
		return err
	}
	tok, err := p.expect(lexer.Str)
	if err != nil {
		return err
	}
	if _, err := p.accept(lexer.Semi); err != nil {
		return err
	}
	resolved := source.Resolve(p.path, tok.StrValue)
	target, ok := p.reg.Lookup(resolved)
	if !ok {
		return diag.At(p.path, line, col, "module import not found")
	}
	if !target.Parsed {
		return p.ParseModule(resolved)
	}
	return nil
}
