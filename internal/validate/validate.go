package validate

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/diag"
)

// Validator walks every declared (non-const, non-specialization-template)
// function body, assigning types and binding identifiers and call sites
// (spec.md §4.6).
type Validator struct {
	prog         *ast.Program
	specializer  *consteval.Specializer
	interp       *consteval.Interpreter
}

func New(prog *ast.Program, interp *consteval.Interpreter, specializer *consteval.Specializer) *Validator {
	return &Validator{prog: prog, interp: interp, specializer: specializer}
}

// ValidateProgram type-checks every function body in the program and
// enforces the main-function rules (spec.md §4.6 "Main-function rules").
// It returns the first error encountered (spec.md §7 "first error
// terminates the pipeline").
func (v *Validator) ValidateProgram() error {
	if err := v.checkMain(); err != nil {
		return err
	}
	// Re-read the table length on every iteration: validating a call site
	// may append new specialization clones to the function table, and each
	// clone's body is walked like any other function so that its
	// expressions receive types and its own call sites are bound.
	for i := 0; i < v.prog.Funcs.Len(); i++ {
		idx := ast.FuncIndex(i)
		fn := v.prog.Funcs.Get(idx)
		if fn.Flags.Has(ast.FlagIsConstFn) {
			continue // interpreted only; never type-checked as runtime code
		}
		if fn.Flags.Has(ast.FlagHasConstParams) {
			continue // generic template; only its specializations are validated
		}
		if err := v.validateFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkMain() error {
	var found int
	var mainFn ast.Function
	for _, fn := range v.prog.Funcs.All() {
		if fn.Flags.Has(ast.FlagIsSpecialization) {
			continue
		}
		if fn.Module == v.prog.EntryModule && fn.Name == "main" {
			found++
			mainFn = fn
		}
	}
	if found == 0 {
		return diag.Bare("entry module must declare a function named main")
	}
	if found > 1 {
		return diag.At(v.prog.EntryModule, mainFn.Line, mainFn.Col, "main must be unique")
	}
	if len(mainFn.Params) != 0 {
		return diag.At(v.prog.EntryModule, mainFn.Line, mainFn.Col, "main must take no parameters")
	}
	return nil
}

func (v *Validator) validateFunc(fn ast.Function) error {
	sc := newScope(nil)
	for _, p := range fn.Params {
		sc.define(p.Name, p.Type, false)
	}
	fc := &funcCtx{v: v, fn: fn}
	bodyType, err := fc.validateExpr(fn.Body, sc)
	if err != nil {
		return err
	}
	if !fc.isDivergentExpr(fn.Body) && bodyType != fn.ReturnType && fn.ReturnType != ast.TypeInvalid {
		body := v.prog.Exprs.Get(fn.Body)
		return diag.At(fn.Module, body.Line, body.Col, "function body type does not match declared return type")
	}
	return nil
}

// funcCtx carries the per-function state the expression walker needs:
// which function we're inside (for `return` type checks) and the active
// loop-nesting stack (for `break`/`continue` legality and loop result
// type unification).
type funcCtx struct {
	v    *Validator
	fn   ast.Function
	loop []*loopFrame
}

type loopFrame struct {
	kind      loopKind
	breakType ast.TypeID
}
