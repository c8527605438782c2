package binary

import "github.com/bplang/bpc/internal/ast"

// genBinding records where a named local lives: its wasm local index and
// its bp type. localIdx is -1 for unit-typed bindings, which occupy no
// wasm local slot.
type genBinding struct {
	localIdx int
	typ      ast.TypeID
}

// genScope is the codegen-time mirror of validate.scope: a parent-chained
// lexical scope used to resolve identifiers to wasm local indices.
type genScope struct {
	parent *genScope
	vars   map[string]genBinding
}

func newGenScope(parent *genScope) *genScope {
	return &genScope{parent: parent, vars: map[string]genBinding{}}
}

func (s *genScope) lookup(name string) (genBinding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return genBinding{}, false
}

func (s *genScope) define(name string, localIdx int, typ ast.TypeID) {
	s.vars[name] = genBinding{localIdx: localIdx, typ: typ}
}

// loopCtx tracks the branch depths a break/continue inside the loop must
// target, plus the temp local (if any) a break-with-value must store into
// before branching out.
type loopCtx struct {
	blockDepth int // br (depth-this) exits the loop (break)
	loopDepth  int // br (depth-this) continues the loop (continue)
	resultTemp int // -1 if the loop produces no value
}
