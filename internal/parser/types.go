package parser

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/lexer"
)

// parseType parses a type expression (spec.md §3 "Type"). Array lengths
// are parsed as expressions and resolved later by the const interpreter
// (spec.md §4.5); until then an array's Length is a negative placeholder
// (see pendingArrayKey).
func (p *Parser) parseType() (ast.TypeID, error) {
	switch p.cur.Kind {
	case lexer.LBracket:
		return p.parseArrayType()
	case lexer.LParen:
		return p.parseTupleType()
	case lexer.KwFn:
		return p.parseFuncSigType()
	case lexer.Ident:
		name := p.cur.Text
		if err := p.next(); err != nil {
			return 0, err
		}
		if prim, ok := ast.PrimitiveByName(name); ok {
			return prim, nil
		}
		if idx := indexOfStruct(p.prog, p.path, name); idx >= 0 {
			return ast.StructTypeID(uint32(idx)), nil
		}
		if t, ok := p.aliases()[p.path+"\x00"+name]; ok {
			return t, nil
		}
		return 0, p.errf("unknown type %q", name)
	default:
		return 0, p.errf("expected a type, found %s", p.cur.Kind)
	}
}

func indexOfStruct(prog *ast.Program, module, name string) int {
	for i, s := range prog.Types.Structs.All() {
		if s.Module == module && s.Name == name {
			return i
		}
	}
	return -1
}

func (p *Parser) parseArrayType() (ast.TypeID, error) {
	if err := p.next(); err != nil { // '['
		return 0, err
	}
	elem, err := p.parseType()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return 0, err
	}
	lengthExpr, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return 0, err
	}
	// The length is only known once const-eval runs; record a pending
	// array type carrying the raw length expression and owning module so
	// const-eval can find and patch it (internal/consteval).
	return p.prog.Types.InternPendingArray(elem, lengthExpr, p.path, pendingArrayKey(lengthExpr))
}

// pendingArrayKey gives each not-yet-evaluated array type a distinct
// negative "length" so structurally different (unevaluated) array types
// don't collapse into the same interned entry before const-eval runs.
// Const-eval replaces these with the real non-negative length once the
// length expression has been evaluated (internal/consteval).
func pendingArrayKey(e ast.ExprIndex) int64 {
	return -1 - int64(e)
}

func (p *Parser) parseTupleType() (ast.TypeID, error) {
	if err := p.next(); err != nil { // '('
		return 0, err
	}
	var fields []ast.TypeID
	for p.cur.Kind != lexer.RParen {
		t, err := p.parseType()
		if err != nil {
			return 0, err
		}
		fields = append(fields, t)
		if ok, err := p.accept(lexer.Comma); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, err
	}
	return p.prog.Types.InternTuple(fields)
}

func (p *Parser) parseFuncSigType() (ast.TypeID, error) {
	if err := p.next(); err != nil { // 'fn'
		return 0, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return 0, err
	}
	var params []ast.TypeID
	var constBits uint64
	idx := uint32(0)
	for p.cur.Kind != lexer.RParen {
		isConst, err := p.accept(lexer.KwConst)
		if err != nil {
			return 0, err
		}
		t, err := p.parseType()
		if err != nil {
			return 0, err
		}
		params = append(params, t)
		if isConst {
			constBits |= 1 << idx
		}
		idx++
		if ok, err := p.accept(lexer.Comma); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return 0, err
	}
	result := ast.TypeUnit
	if ok, err := p.accept(lexer.Arrow); err != nil {
		return 0, err
	} else if ok {
		result, err = p.parseType()
		if err != nil {
			return 0, err
		}
	}
	return p.prog.Types.InternFuncSig(params, constBits, result)
}

func (p *Parser) parseTypeAlias() error {
	if err := p.next(); err != nil { // 'type'
		return err
	}
	nameTok, err := p.expect(lexer.Ident)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return err
	}
	if p.cur.Kind == lexer.KwStruct {
		if err := p.next(); err != nil {
			return err
		}
		if _, err := p.expect(lexer.LBrace); err != nil {
			return err
		}
		var fields []ast.StructField
		for p.cur.Kind != lexer.RBrace {
			fieldName, err := p.expect(lexer.Ident)
			if err != nil {
				return err
			}
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			ft, err := p.parseType()
			if err != nil {
				return err
			}
			fields = append(fields, ast.StructField{
				Name: fieldName.Text,
				Type: ft,
			})
			if ok, err := p.accept(lexer.Comma); err != nil {
				return err
			} else if !ok {
				break
			}
		}
		if _, err := p.expect(lexer.RBrace); err != nil {
			return err
		}
		if _, err := p.prog.Types.InternStruct(p.path, nameTok.Text, fields); err != nil {
			return diag.At(p.path, nameTok.Line, nameTok.Col, err.Error())
		}
		_, err = p.accept(lexer.Semi)
		return err
	}
	// Plain alias: `type Name = <Type>;` — recorded as a 0-field struct
	// intern is wrong; instead alias to the same TypeID by registering a
	// lookup entry. Simpler: re-resolve on every use by remembering the
	// aliased type under the same name as a struct-table passthrough is
	// not accurate, so plain aliases are stored in the parser's alias map.
	aliased, err := p.parseType()
	if err != nil {
		return err
	}
	p.aliases()[p.path+"\x00"+nameTok.Text] = aliased
	_, err = p.accept(lexer.Semi)
	return err
}

