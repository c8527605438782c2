package diag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/diag"
)

func TestAtFormatsLocatedDiagnostic(t *testing.T) {
	err := diag.At("/main.bp", 3, 7, "unexpected %q", "+")
	require.Equal(t, `/main.bp:3:7: unexpected "+"`, err.Error())
}

func TestBareHasNoLocation(t *testing.T) {
	err := diag.Bare("module table capacity reached")
	require.Equal(t, "module table capacity reached", err.Error())
	path, line, col, ok := err.Location()
	require.False(t, ok)
	require.Empty(t, path)
	require.Zero(t, line)
	require.Zero(t, col)
}

func TestLocationReportsPosition(t *testing.T) {
	err := diag.At("/main.bp", 1, 1, "oops")
	path, line, col, ok := err.Location()
	require.True(t, ok)
	require.Equal(t, "/main.bp", path)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := diag.Bare("wrapped").Wrap(cause)
	require.Equal(t, "wrapped", err.Error(), "Wrap must not change the rendered message")
	require.ErrorIs(t, err, cause)
}
