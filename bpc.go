// Package bpc is a self-hosted, ahead-of-time compiler for the bp source
// language: it translates bp source into WebAssembly modules that exercise
// the typed-reference / GC proposal (spec.md §1).
//
// A Compiler exposes the two entry points spec.md §1 and §6 name:
// LoadModuleFromSource and CompileFromPath. Everything else in this module
// is pipeline machinery those two methods drive: internal/source (Module
// Registry), internal/lexer and internal/parser (Lexer/Parser),
// internal/consteval (Const Interpreter/Specializer), internal/validate
// (Validator), internal/typesec (Type Metadata Writer), and internal/binary
// (Emitter).
package bpc

import (
	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/binary"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/diag"
	"github.com/bplang/bpc/internal/parser"
	"github.com/bplang/bpc/internal/source"
	"github.com/bplang/bpc/internal/trace"
	"github.com/bplang/bpc/internal/typesec"
	"github.com/bplang/bpc/internal/validate"
)

// defaultExprCapacity sizes the initial expression arena allocation; it is
// only a capacity hint for Go's append, not a hard limit (spec.md §3 places
// no cap on expression count).
const defaultExprCapacity = 4096

// Compiler is one compiler instance: a Module Registry plus the config that
// governs every pipeline stage a compile runs through. A single Compiler
// may service any number of LoadModuleFromSource/CompileFromPath calls, in
// the calling pattern spec.md §5 describes: any number of loads, then one
// compile per produced artifact.
//
// Compiler is not safe for concurrent use — spec.md §5 specifies a
// single-threaded, synchronous core.
type Compiler struct {
	cfg    *CompilerConfig
	reg    *source.Registry
	tracer *trace.Tracer
}

// NewCompiler creates a Compiler. A nil cfg uses NewCompilerConfig().
func NewCompiler(cfg *CompilerConfig) *Compiler {
	if cfg == nil {
		cfg = NewCompilerConfig()
	}
	return &Compiler{cfg: cfg, reg: source.NewRegistry(), tracer: cfg.tracer()}
}

// LoadModuleFromSource inserts or replaces the module stored at path,
// normalizing CRLF to LF (spec.md §4.2 Module Registry, §6 "loadModuleFromSource").
// Re-loading an already-loaded path fully supersedes its prior content;
// the supersession is not observed until the next CompileFromPath.
func (c *Compiler) LoadModuleFromSource(path, content string) error {
	_, err := c.reg.LoadCapped(path, content, c.cfg.maxModules)
	if err != nil {
		c.tracer.Event(trace.ScopeLexer, "load failed", map[string]any{"path": path, "error": err.Error()})
		return err
	}
	c.tracer.Event(trace.ScopeLexer, "module loaded", map[string]any{"path": path, "bytes": len(content)})
	return nil
}

// CompileFromPath runs the full pipeline against the module at path —
// parse, const-eval, specialize, validate, assign type metadata, emit —
// and returns the produced .wasm bytes (spec.md §6 "compileFromPath").
// Compile-local state (the parsed AST, const-eval memoization, type
// assignment) is rebuilt from scratch on every call; the Module Registry's
// loaded source text is the only state that survives across calls.
func (c *Compiler) CompileFromPath(path string) ([]byte, error) {
	if _, ok := c.reg.Lookup(path); !ok {
		return nil, diag.Bare("module not loaded: %s", path)
	}
	c.reg.ResetParsed()

	prog := ast.NewProgram(path, defaultExprCapacity)

	c.tracer.Event(trace.ScopeParser, "parse begin", map[string]any{"entry": path})
	p := parser.New(c.reg, prog)
	if err := p.ParseModule(path); err != nil {
		return nil, err
	}
	c.tracer.Event(trace.ScopeParser, "parse done", map[string]any{"modules": c.reg.Len()})

	interp := consteval.NewInterpreter(prog, c.cfg.constLoopBound)
	if err := interp.ResolvePendingArrayLengths(); err != nil {
		return nil, err
	}
	if err := interp.EvalAllConstants(); err != nil {
		return nil, err
	}
	c.tracer.Event(trace.ScopeConstEval, "const eval done", nil)

	specializer := consteval.NewSpecializer(prog, interp)

	if err := validate.New(prog, interp, specializer).ValidateProgram(); err != nil {
		return nil, err
	}
	c.tracer.Event(trace.ScopeValidate, "validate done", nil)

	assigner := typesec.NewAssigner(prog)
	if err := assigner.Assign(); err != nil {
		return nil, err
	}
	c.tracer.Event(trace.ScopeTypeSec, "type assignment done", map[string]any{"types": len(assigner.Ordered())})

	emitter := binary.NewEmitter(prog, assigner, interp).WithMemoryMinPages(c.cfg.memoryMinPages)
	out := emitter.Emit()
	c.tracer.Event(trace.ScopeEmit, "emit done", map[string]any{"bytes": len(out)})
	return out, nil
}

// LoadedModules reports every module path this Compiler has loaded, in load
// order (spec.md §3 Module, "Ordering guarantees").
func (c *Compiler) LoadedModules() []string {
	return c.reg.Paths()
}
