package binary

import (
	"sort"

	"github.com/bplang/bpc/internal/ast"
	"github.com/bplang/bpc/internal/consteval"
	"github.com/bplang/bpc/internal/typesec"
)

// WebAssembly section ids this emitter writes, in the order spec.md §4.7
// requires: Type (1), Function (3), Memory (5), Export (7), Element (9,
// only when a function value is taken), Code (10).
const (
	secType    = 1
	secFunc    = 3
	secMemory  = 5
	secExport  = 7
	secElement = 9
	secCode    = 10
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// MemoryMinPages is the module's declared lower bound on linear memory, in
// 64 KiB pages (spec.md §4.7: "≥ 16 pages of 64 KiB is a safe choice").
const MemoryMinPages = 16

const memoryExportName = "memory"
const exportKindFunc = 0x00
const exportKindMemory = 0x02

// Emitter assembles a validated, type-assigned ast.Program into a
// WebAssembly binary module (spec.md §4.7 "Emitter").
type Emitter struct {
	prog   *ast.Program
	order  []ast.TypeID // typesec.Assigner.Ordered(), in ascending type-index order
	interp *consteval.Interpreter

	emittedFuncs     []ast.FuncIndex
	wasmFuncIndex    map[ast.FuncIndex]uint32
	funcSigOf        map[ast.FuncIndex]ast.TypeID
	declaredFuncRefs map[uint32]bool

	memoryMinPages uint32
}

// WithMemoryMinPages overrides the declared linear-memory lower bound
// (defaults to MemoryMinPages), mirroring CompilerConfig.WithMemoryMinPages.
func (e *Emitter) WithMemoryMinPages(pages uint32) *Emitter {
	e.memoryMinPages = pages
	return e
}

// isEmitted mirrors typesec.isEmitted: ordinary functions and
// specialization clones are emitted; const fns and unspecialized generic
// templates never are.
func isEmitted(fn ast.Function) bool {
	if fn.Flags.Has(ast.FlagIsConstFn) {
		return false
	}
	if fn.Flags.Has(ast.FlagHasConstParams) && !fn.Flags.Has(ast.FlagIsSpecialization) {
		return false
	}
	return true
}

// NewEmitter builds an Emitter from a program whose types have already
// been assigned by typesec.Assigner.
func NewEmitter(prog *ast.Program, assigner *typesec.Assigner, interp *consteval.Interpreter) *Emitter {
	e := &Emitter{
		prog:             prog,
		order:            assigner.Ordered(),
		interp:           interp,
		wasmFuncIndex:    map[ast.FuncIndex]uint32{},
		funcSigOf:        assigner.FuncSigOf,
		declaredFuncRefs: map[uint32]bool{},
		memoryMinPages:   MemoryMinPages,
	}
	for i := 0; i < prog.Funcs.Len(); i++ {
		idx := ast.FuncIndex(i)
		fn := prog.Funcs.Get(idx)
		if !isEmitted(fn) {
			continue
		}
		e.wasmFuncIndex[idx] = uint32(len(e.emittedFuncs))
		e.emittedFuncs = append(e.emittedFuncs, idx)
	}
	return e
}

// Emit produces the full WebAssembly binary for the program.
func (e *Emitter) Emit() []byte {
	out := append([]byte{}, wasmMagic...)
	out = appendSection(out, secType, e.typeSection())
	out = appendSection(out, secFunc, e.functionSection())
	out = appendSection(out, secMemory, e.memorySection())
	out = appendSection(out, secExport, e.exportSection())
	if elem := e.elementSection(); elem != nil {
		out = appendSection(out, secElement, elem)
	}
	out = appendSection(out, secCode, e.codeSection())
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func (e *Emitter) functionSection() []byte {
	var body []byte
	body = AppendUint32(body, uint32(len(e.emittedFuncs)))
	for _, idx := range e.emittedFuncs {
		body = AppendUint32(body, e.typeIndexOf(e.funcSigOf[idx]))
	}
	return body
}

func (e *Emitter) memorySection() []byte {
	var body []byte
	body = AppendUint32(body, 1) // one memory
	body = append(body, 0x00)    // flags: no declared maximum
	body = AppendUint32(body, e.memoryMinPages)
	return body
}

func (e *Emitter) exportSection() []byte {
	var entries [][]byte
	for _, idx := range e.emittedFuncs {
		fn := e.prog.Funcs.Get(idx)
		if !fn.Flags.Has(ast.FlagIsExported) {
			continue
		}
		var ent []byte
		ent = appendName(ent, fn.Name)
		ent = append(ent, exportKindFunc)
		ent = AppendUint32(ent, e.wasmFuncIndex[idx])
		entries = append(entries, ent)
	}
	var memEnt []byte
	memEnt = appendName(memEnt, memoryExportName)
	memEnt = append(memEnt, exportKindMemory)
	memEnt = AppendUint32(memEnt, 0)
	entries = append(entries, memEnt)

	var body []byte
	body = AppendUint32(body, uint32(len(entries)))
	for _, ent := range entries {
		body = append(body, ent...)
	}
	return body
}

func appendName(buf []byte, s string) []byte {
	buf = AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// elementSection declares every function whose index was taken as a value
// (via ExprAnonFunc/ref.func) in a declarative element segment, as wasm
// validation requires any ref.func target to be pre-declared. Returns nil
// when no function value was ever taken, so the section is omitted.
func (e *Emitter) elementSection() []byte {
	if len(e.declaredFuncRefs) == 0 {
		return nil
	}
	var body []byte
	body = AppendUint32(body, 1) // one segment
	body = append(body, 0x03)    // declarative segment, funcref, explicit indices
	body = append(body, 0x00)    // elemkind: funcref
	ixs := make([]uint32, 0, len(e.declaredFuncRefs))
	for ix := range e.declaredFuncRefs {
		ixs = append(ixs, ix)
	}
	sort.Slice(ixs, func(i, j int) bool { return ixs[i] < ixs[j] })
	body = AppendUint32(body, uint32(len(ixs)))
	for _, ix := range ixs {
		body = AppendUint32(body, ix)
	}
	return body
}

func (e *Emitter) codeSection() []byte {
	var body []byte
	body = AppendUint32(body, uint32(len(e.emittedFuncs)))
	for _, idx := range e.emittedFuncs {
		fn := e.prog.Funcs.Get(idx)
		code := e.genFunc(fn)
		body = AppendUint32(body, uint32(len(code)))
		body = append(body, code...)
	}
	return body
}
