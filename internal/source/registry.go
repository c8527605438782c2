// Package source implements the Module Registry: a canonical-path keyed
// store of loaded source text, with POSIX-style `use` import resolution.
// See spec.md §4.2.
package source

import (
	"path"
	"strings"

	"github.com/bplang/bpc/internal/diag"
)

// MaxModules is the hard cap on concurrently loaded modules (spec.md §3
// Module invariant: "module count ≤ 256").
const MaxModules = 256

// Module is one loaded source file. Fields mirror spec.md §3 Module
// exactly: canonical path, CRLF-normalized source, and a parsed flag the
// parser flips once it has produced this module's AST.
type Module struct {
	Path   string
	Source string
	Parsed bool
}

// Registry maps canonical module paths to their Module. Re-loading a path
// fully replaces the prior entry (spec.md §3 Module lifecycle, §5
// "Ordering guarantees").
type Registry struct {
	byPath map[string]*Module
	order  []string // insertion order, for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]*Module)}
}

// Load inserts or replaces the module stored at path, normalizing CRLF to
// LF per spec.md §9 "Module path normalization". Returns a capacity
// diagnostic if the registry is already at MaxModules and path names a new
// entry.
func (r *Registry) Load(modPath, content string) (*Module, error) {
	return r.LoadCapped(modPath, content, MaxModules)
}

// LoadCapped is Load against a caller-supplied module-count cap, letting
// CompilerConfig.WithMaxModules override the spec.md default of MaxModules.
func (r *Registry) LoadCapped(modPath, content string, maxModules int) (*Module, error) {
	if modPath == "" {
		return nil, diag.Bare("module path missing")
	}
	if content == "" {
		// An empty module is legal content-wise, but the host-facing ABI
		// (spec.md §6) treats a null content pointer as an error; here we
		// only reject truly absent content, signaled by the caller passing
		// "" deliberately is allowed — callers needing the ABI's stricter
		// "content missing" must check before calling Load.
	}
	normalized := normalizeNewlines(content)
	if _, exists := r.byPath[modPath]; !exists {
		if len(r.byPath) >= maxModules {
			return nil, diag.Bare("module table capacity reached")
		}
		r.order = append(r.order, modPath)
	}
	m := &Module{Path: modPath, Source: normalized}
	r.byPath[modPath] = m
	return m, nil
}

// Lookup returns the module stored at the canonical path, if any.
func (r *Registry) Lookup(modPath string) (*Module, bool) {
	m, ok := r.byPath[modPath]
	return m, ok
}

// MarkParsed flips the parsed flag once the parser has consumed a module.
func (r *Registry) MarkParsed(modPath string) {
	if m, ok := r.byPath[modPath]; ok {
		m.Parsed = true
	}
}

// ResetParsed clears every module's parsed flag without discarding its
// stored source, so a fresh compile re-parses into a new ast.Program while
// reusing whatever loadModuleFromSource calls are already on file (spec.md
// §5 "Resetting compile-local state occurs automatically at the top of
// compileFromPath").
func (r *Registry) ResetParsed() {
	for _, m := range r.byPath {
		m.Parsed = false
	}
}

// Len returns the number of loaded modules.
func (r *Registry) Len() int { return len(r.byPath) }

// Paths returns every loaded module path in load order.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// normalizeNewlines converts CRLF and lone CR to LF so line/column
// diagnostics stay stable across hosts (spec.md §9).
func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Resolve computes the canonical path a `use "<importPath>"` declaration
// in importerPath refers to, per spec.md §4.2: absolute paths (leading
// `/`) are used as-is; relative paths resolve against the importer's
// directory, honoring `./` and `../` segments.
func Resolve(importerPath, importPath string) string {
	if strings.HasPrefix(importPath, "/") {
		return path.Clean(importPath)
	}
	dir := path.Dir(importerPath)
	return path.Clean(path.Join(dir, importPath))
}

// ResolveAndLookup resolves a `use` path relative to importerPath and
// looks it up in the registry, producing the located diagnostic spec.md
// §4.2 specifies on a missing import.
func (r *Registry) ResolveAndLookup(importerPath, importPath string, line, col int) (*Module, error) {
	resolved := Resolve(importerPath, importPath)
	m, ok := r.Lookup(resolved)
	if !ok {
		return nil, diag.At(importerPath, line, col, "module import not found")
	}
	return m, nil
}
