// Package consteval implements the const interpreter and specializer from
// spec.md §4.5: it evaluates `const` declarations, `const fn` calls, and
// array-length/type-level expressions, and produces monomorphized clones
// for functions with `const` parameters.
package consteval

import "github.com/bplang/bpc/internal/ast"

// env is a chain of lexical scopes used while interpreting a const
// expression tree. Calls push a fresh, non-nested environment (spec.md
// §4.5 "Calls nest environments; no cross-call aliasing").
type env struct {
	parent *env
	vars   map[string]binding
}

type binding struct {
	value ast.ConstValue
	mut   bool
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vars: make(map[string]binding)}
}

func (e *env) lookup(name string) (binding, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (e *env) define(name string, v ast.ConstValue, mut bool) {
	e.vars[name] = binding{value: v, mut: mut}
}

// assign updates an existing binding in whichever scope defines it.
// Returns false if name is undefined anywhere in the chain.
func (e *env) assign(name string, v ast.ConstValue) bool {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			b.value = v
			s.vars[name] = b
			return true
		}
	}
	return false
}
