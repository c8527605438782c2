package bpc

import (
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/bplang/bpc/internal/binary"
	"github.com/bplang/bpc/internal/source"
	"github.com/bplang/bpc/internal/trace"
)

// CompilerConfig controls compile-time behavior, with the default
// implementation as NewCompilerConfig.
type CompilerConfig struct {
	constLoopBound int
	memoryMinPages uint32
	maxModules     int
	log            *logrus.Logger
	traceScopes    trace.Scopes
}

// envOverrides holds the CompilerConfig fields FromEnv may override.
type envOverrides struct {
	ConstLoopBound int    `envconfig:"BPC_CONST_LOOP_BOUND"`
	MemoryMinPages uint32 `envconfig:"BPC_MEMORY_MIN_PAGES"`
	MaxModules     int    `envconfig:"BPC_MAX_MODULES"`
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &CompilerConfig{
	// spec.md §9 Open Question (i): no hard bound is specified for const-eval
	// loop iterations, so a generous safety bound is the default.
	constLoopBound: 10_000_000,
	memoryMinPages: binary.MemoryMinPages,
	maxModules:     source.MaxModules,
	traceScopes:    trace.ScopeNone,
}

// NewCompilerConfig returns a CompilerConfig with spec-mandated defaults.
func NewCompilerConfig() *CompilerConfig {
	return defaultConfig.clone()
}

// clone ensures all fields are copied even if nil.
func (c *CompilerConfig) clone() *CompilerConfig {
	ret := *c
	return &ret
}

// WithConstLoopBound sets the safety bound on const-eval loop iterations
// (spec.md §9 Open Question (i)). A compile exceeding this bound fails with
// a located diagnostic instead of hanging.
func (c *CompilerConfig) WithConstLoopBound(bound int) *CompilerConfig {
	ret := c.clone()
	ret.constLoopBound = bound
	return ret
}

// WithMemoryMinPages sets the compiled module's declared lower bound on
// linear memory, in 64 KiB pages (spec.md §4.7). Defaults to
// binary.MemoryMinPages.
func (c *CompilerConfig) WithMemoryMinPages(pages uint32) *CompilerConfig {
	ret := c.clone()
	ret.memoryMinPages = pages
	return ret
}

// WithMaxModules caps the number of modules a single compile may load
// (spec.md §3 Module invariant: "module count ≤ 256"). Defaults to
// source.MaxModules.
func (c *CompilerConfig) WithMaxModules(max int) *CompilerConfig {
	ret := c.clone()
	ret.maxModules = max
	return ret
}

// WithLogger sets the logrus logger trace events are written to. A nil
// logger falls back to logrus's standard logger.
func (c *CompilerConfig) WithLogger(log *logrus.Logger) *CompilerConfig {
	ret := c.clone()
	ret.log = log
	return ret
}

// WithTraceScopes enables structured tracing for the given pipeline scopes
// (internal/trace.Scopes). Defaults to trace.ScopeNone (silent).
func (c *CompilerConfig) WithTraceScopes(scopes trace.Scopes) *CompilerConfig {
	ret := c.clone()
	ret.traceScopes = scopes
	return ret
}

// FromEnv applies BPC_CONST_LOOP_BOUND, BPC_MEMORY_MIN_PAGES, and
// BPC_MAX_MODULES overrides on top of the receiver, returning a new config.
// Unset variables leave the receiver's values in place.
func (c *CompilerConfig) FromEnv() (*CompilerConfig, error) {
	overrides := envOverrides{
		ConstLoopBound: c.constLoopBound,
		MemoryMinPages: c.memoryMinPages,
		MaxModules:     c.maxModules,
	}
	if err := envconfig.Process("", &overrides); err != nil {
		return nil, err
	}
	ret := c.clone()
	ret.constLoopBound = overrides.ConstLoopBound
	ret.memoryMinPages = overrides.MemoryMinPages
	ret.maxModules = overrides.MaxModules
	return ret, nil
}

func (c *CompilerConfig) tracer() *trace.Tracer {
	return trace.New(c.log, c.traceScopes)
}
