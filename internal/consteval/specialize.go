package consteval

import (
	"fmt"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/diag"
)

// Specializer binds call sites against functions with const parameters,
// producing (and caching) monomorphized clones (spec.md §4.5
// "Specialization protocol", glossary "Specialization cache").
type Specializer struct {
	prog   *ast.Program
	interp *Interpreter
	cache  map[string]ast.FuncIndex
}

func NewSpecializer(prog *ast.Program, interp *Interpreter) *Specializer {
	return &Specializer{prog: prog, interp: interp, cache: map[string]ast.FuncIndex{}}
}

// BindCall resolves a call site against calleeIdx. If the callee has no
// const parameters the callee index is returned unchanged. Otherwise the
// call's const-parameter argument expressions are evaluated, a
// specialization key is computed, and the (possibly newly-cloned)
// specialized function index is returned along with the remaining
// runtime argument expressions (const-parameter arguments are consumed
// at compile time and do not appear in the emitted call).
func (s *Specializer) BindCall(callerModule string, call ast.CallMeta, calleeIdx ast.FuncIndex) (ast.FuncIndex, []ast.ExprIndex, error) {
	fn := s.prog.Funcs.Get(calleeIdx)
	if !fn.Flags.Has(ast.FlagHasConstParams) {
		return calleeIdx, call.Args, nil
	}
	if len(call.Args) != len(fn.Params) {
		return 0, nil, diag.At(callerModule, call.Line, call.Col, "argument count mismatch calling %s", fn.Name)
	}

	var entries []ast.ConstKeyEntry
	subst := map[string]ast.ConstValue{}
	var runtimeArgs []ast.ExprIndex

	for i, p := range fn.Params {
		if !p.IsConst {
			runtimeArgs = append(runtimeArgs, call.Args[i])
			continue
		}
		v, err := s.interp.EvalConst(call.Args[i], callerModule)
		if err != nil {
			return 0, nil, err
		}
		entries = append(entries, ast.ConstKeyEntry{ParamIndex: uint32(i), Value: v, Type: p.Type})
		subst[p.Name] = v
	}

	key := fmt.Sprintf("%d:%s", calleeIdx, EncodeKey(entries))
	if specIdx, ok := s.cache[key]; ok {
		return specIdx, runtimeArgs, nil
	}

	specIdx, err := s.specialize(fn, calleeIdx, subst, key)
	if err != nil {
		return 0, nil, err
	}
	s.cache[key] = specIdx
	return specIdx, runtimeArgs, nil
}

func (s *Specializer) specialize(fn ast.Function, origin ast.FuncIndex, subst map[string]ast.ConstValue, key string) (ast.FuncIndex, error) {
	var runtimeParams []ast.Param
	for _, p := range fn.Params {
		if !p.IsConst {
			runtimeParams = append(runtimeParams, p)
		}
	}
	newBody := CloneBody(s.prog, fn, subst)
	flags := ast.FlagIsSpecialization // clones are never exported
	clone := ast.Function{
		Name:       fn.Name,
		Module:     fn.Module,
		Params:     runtimeParams,
		ReturnType: fn.ReturnType,
		Body:       newBody,
		Flags:      flags,
		OriginFunc: origin,
		ConstKey:   key,
		Line:       fn.Line,
		Col:        fn.Col,
	}
	idx, ok := s.prog.Funcs.Append(clone)
	if !ok {
		return 0, diag.At(fn.Module, fn.Line, fn.Col, "function limit exceeded specializing %s", fn.Name)
	}
	return idx, nil
}
