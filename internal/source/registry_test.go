package source_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/source"
)

func TestLoadRejectsEmptyPath(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("", "fn main() -> i32 { 0 }")
	require.Error(t, err)
}

func TestLoadNormalizesCRLF(t *testing.T) {
	reg := source.NewRegistry()
	m, err := reg.Load("/main.bp", "fn main()\r\n{ 0\r }")
	require.NoError(t, err)
	require.Equal(t, "fn main()\n{ 0\n }", m.Source)
}

func TestLoadReplacesExistingEntry(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", "v1")
	require.NoError(t, err)
	_, err = reg.Load("/main.bp", "v2")
	require.NoError(t, err)

	m, ok := reg.Lookup("/main.bp")
	require.True(t, ok)
	require.Equal(t, "v2", m.Source)
	require.Equal(t, 1, reg.Len(), "re-loading an existing path must not grow the table")
}

func TestLoadCappedEnforcesCapacity(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.LoadCapped("/a.bp", "a", 1)
	require.NoError(t, err)

	_, err = reg.LoadCapped("/b.bp", "b", 1)
	require.Error(t, err)

	// Re-loading an existing path at capacity is still allowed.
	_, err = reg.LoadCapped("/a.bp", "a2", 1)
	require.NoError(t, err)
}

func TestMarkParsedAndResetParsed(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", "x")
	require.NoError(t, err)

	reg.MarkParsed("/main.bp")
	m, _ := reg.Lookup("/main.bp")
	require.True(t, m.Parsed)

	reg.ResetParsed()
	m, _ = reg.Lookup("/main.bp")
	require.False(t, m.Parsed)
	require.Equal(t, "x", m.Source, "ResetParsed must not discard source text")
}

func TestPathsPreservesInsertionOrder(t *testing.T) {
	reg := source.NewRegistry()
	reg.Load("/c.bp", "c")
	reg.Load("/a.bp", "a")
	reg.Load("/b.bp", "b")
	require.Equal(t, []string{"/c.bp", "/a.bp", "/b.bp"}, reg.Paths())

	// Re-loading an existing path must not move it in load order.
	reg.Load("/c.bp", "c2")
	require.Equal(t, []string{"/c.bp", "/a.bp", "/b.bp"}, reg.Paths())
}

func TestResolveAbsoluteAndRelative(t *testing.T) {
	require.Equal(t, "/lib/math.bp", source.Resolve("/main.bp", "/lib/math.bp"))
	require.Equal(t, "/lib/math.bp", source.Resolve("/lib/app.bp", "./math.bp"))
	require.Equal(t, "/math.bp", source.Resolve("/lib/app.bp", "../math.bp"))
}

func TestResolveAndLookupMissingImport(t *testing.T) {
	reg := source.NewRegistry()
	_, err := reg.Load("/main.bp", "x")
	require.NoError(t, err)

	_, err = reg.ResolveAndLookup("/main.bp", "./missing.bp", 1, 1)
	require.Error(t, err)
}

func TestResolveAndLookupFindsLoadedModule(t *testing.T) {
	reg := source.NewRegistry()
	reg.Load("/lib/math.bp", "const PI: i32 = 3;")
	reg.Load("/main.bp", "use \"./lib/math.bp\";")

	m, err := reg.ResolveAndLookup("/main.bp", "./lib/math.bp", 1, 1)
	require.NoError(t, err)
	require.Equal(t, "/lib/math.bp", m.Path)
}
