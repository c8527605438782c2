package trace

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestScopesString(t *testing.T) {
	require.Equal(t, "", ScopeNone.String())
	require.Equal(t, "lexer", ScopeLexer.String())
	require.Equal(t, "lexer|parser", (ScopeLexer | ScopeParser).String())
	require.Equal(t, "all", ScopeAll.String())
}

func TestScopesIsEnabled(t *testing.T) {
	f := ScopeParser | ScopeEmit
	require.True(t, f.IsEnabled(ScopeParser))
	require.True(t, f.IsEnabled(ScopeEmit))
	require.False(t, f.IsEnabled(ScopeLexer))
	require.False(t, ScopeNone.IsEnabled(ScopeParser))
}

func TestTracerGatesOnScope(t *testing.T) {
	log, hook := logrustest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	tr := New(log, ScopeValidate)

	tr.Event(ScopeLexer, "should not appear", nil)
	require.Empty(t, hook.Entries)

	tr.Event(ScopeValidate, "validate phase", logrus.Fields{"ok": true})
	require.Len(t, hook.Entries, 1)
	require.Equal(t, "validate phase", hook.Entries[0].Message)
	require.Equal(t, "validate", hook.Entries[0].Data["scope"])
	require.Equal(t, true, hook.Entries[0].Data["ok"])
}

func TestNilTracerIsNoop(t *testing.T) {
	var tr *Tracer
	require.NotPanics(t, func() { tr.Event(ScopeAll, "x", nil) })
}

func TestNewDefaultsNilLogger(t *testing.T) {
	tr := New(nil, ScopeAll)
	require.NotNil(t, tr.log)
}
