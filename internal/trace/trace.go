// Package trace provides scope-gated structured tracing for the compile
// pipeline, mirroring the teacher's internal/logging LogScopes bitmask
// (internal/logging/logging.go) but backed by logrus instead of a raw
// byte Writer, since this package logs compiler phase events rather than
// host function call parameters.
package trace

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Scopes is a bitmask selecting which compiler phases emit trace events.
type Scopes uint32

const (
	ScopeNone    = Scopes(0)
	ScopeLexer   Scopes = 1 << iota
	ScopeParser
	ScopeConstEval
	ScopeValidate
	ScopeTypeSec
	ScopeEmit
	ScopeAll = Scopes(0xffffffff)
)

func scopeName(s Scopes) string {
	switch s {
	case ScopeLexer:
		return "lexer"
	case ScopeParser:
		return "parser"
	case ScopeConstEval:
		return "consteval"
	case ScopeValidate:
		return "validate"
	case ScopeTypeSec:
		return "typesec"
	case ScopeEmit:
		return "emit"
	default:
		return ""
	}
}

// IsEnabled reports whether scope (or any scope in a group) is enabled.
func (f Scopes) IsEnabled(scope Scopes) bool { return f&scope != 0 }

// String implements fmt.Stringer by listing each enabled scope.
func (f Scopes) String() string {
	if f == ScopeAll {
		return "all"
	}
	var b strings.Builder
	for i := 0; i <= 31; i++ {
		target := Scopes(1 << i)
		if f.IsEnabled(target) {
			if name := scopeName(target); name != "" {
				if b.Len() > 0 {
					b.WriteByte('|')
				}
				b.WriteString(name)
			}
		}
	}
	return b.String()
}

// Tracer emits scope-gated phase events through a logrus logger.
type Tracer struct {
	log    *logrus.Logger
	scopes Scopes
}

// New builds a Tracer. A nil logger falls back to logrus's standard
// logger at its default level (silent unless the caller has configured
// one), matching how the teacher's config layer treats an unset logger.
func New(log *logrus.Logger, scopes Scopes) *Tracer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracer{log: log, scopes: scopes}
}

// Event logs msg under scope with the given fields, a no-op if scope isn't
// enabled.
func (t *Tracer) Event(scope Scopes, msg string, fields logrus.Fields) {
	if t == nil || !t.scopes.IsEnabled(scope) {
		return
	}
	t.log.WithFields(fields).WithField("scope", scopeName(scope)).Debug(msg)
}
