// Package validate implements the post-parse, post-const-eval semantic
// pass from spec.md §4.6: it resolves every identifier, assigns each
// expression its resolved type, checks control-flow invariants, and
// binds call sites to concrete (possibly specialized) function indices.
package validate

import "github.com/bplang/bpc/internal/ast"

// scope is a chain of lexical variable bindings for one function body
// walk. Unlike consteval's env (which carries values), this carries
// static types and mutability only.
type scope struct {
	parent *scope
	vars   map[string]localBinding
}

type localBinding struct {
	typ ast.TypeID
	mut bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]localBinding)}
}

func (s *scope) lookup(name string) (localBinding, bool) {
	for c := s; c != nil; c = c.parent {
		if b, ok := c.vars[name]; ok {
			return b, true
		}
	}
	return localBinding{}, false
}

func (s *scope) define(name string, typ ast.TypeID, mut bool) {
	s.vars[name] = localBinding{typ: typ, mut: mut}
}

// loopKind distinguishes `loop` (break may carry a value) from `while`
// (break must be bare), per spec.md §4.6 "while loops cannot break with
// values".
type loopKind uint8

const (
	loopKindLoop loopKind = iota
	loopKindWhile
)
