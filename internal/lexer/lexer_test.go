package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/lexer"
)

func scanAll(t *testing.T, src string) []lexer.Token {
	t.Helper()
	l := lexer.New("/main.bp", src)
	var toks []lexer.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF {
			return toks
		}
	}
}

func TestNextSkipsWhitespaceAndComments(t *testing.T) {
	toks := scanAll(t, "  // line comment\n /* block */ fn  \n")
	require.Len(t, toks, 2)
	require.Equal(t, lexer.KwFn, toks[0].Kind)
	require.Equal(t, lexer.EOF, toks[1].Kind)
}

func TestNextNestedBlockComment(t *testing.T) {
	toks := scanAll(t, "/* outer /* inner */ still comment */ let")
	require.Len(t, toks, 2)
	require.Equal(t, lexer.KwLet, toks[0].Kind)
}

func TestNextUnterminatedBlockComment(t *testing.T) {
	l := lexer.New("/main.bp", "/* never closed")
	_, err := l.Next()
	require.Error(t, err)
}

func TestNextIdentifierVsKeyword(t *testing.T) {
	toks := scanAll(t, "fn foo_bar")
	require.Equal(t, lexer.KwFn, toks[0].Kind)
	require.Equal(t, lexer.Ident, toks[1].Kind)
	require.Equal(t, "foo_bar", toks[1].Text)
}

func TestNextIntegerLiterals(t *testing.T) {
	toks := scanAll(t, "42 0xFF 1_000 7i8 9u32")
	require.Equal(t, uint64(42), toks[0].IntValue)
	require.False(t, toks[0].IntIsHex)

	require.Equal(t, uint64(0xFF), toks[1].IntValue)
	require.True(t, toks[1].IntIsHex)

	require.Equal(t, uint64(1000), toks[2].IntValue)

	require.Equal(t, uint64(7), toks[3].IntValue)
	require.Equal(t, "i8", toks[3].IntSuffix)

	require.Equal(t, uint64(9), toks[4].IntValue)
	require.Equal(t, "u32", toks[4].IntSuffix)
}

func TestNextInvalidIntegerLiteral(t *testing.T) {
	l := lexer.New("/main.bp", "0xZZ")
	_, err := l.Next()
	require.Error(t, err)
}

func TestNextStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\t\"c"`)
	require.Equal(t, lexer.Str, toks[0].Kind)
	require.Equal(t, "a\nb\t\"c", toks[0].StrValue)
}

func TestNextUnterminatedString(t *testing.T) {
	l := lexer.New("/main.bp", `"no closing quote`)
	_, err := l.Next()
	require.Error(t, err)
}

func TestNextCharLiteral(t *testing.T) {
	toks := scanAll(t, `'x'`)
	require.Equal(t, lexer.Char, toks[0].Kind)
	require.Equal(t, byte('x'), toks[0].CharValue)
}

func TestNextCharLiteralTooLong(t *testing.T) {
	l := lexer.New("/main.bp", `'xy'`)
	_, err := l.Next()
	require.Error(t, err)
}

func TestNextTwoByteBeforeOneByteOperators(t *testing.T) {
	toks := scanAll(t, "<= < == = -> - :: :")
	kinds := make([]lexer.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lexer.Kind{
		lexer.Le, lexer.Lt, lexer.EqEq, lexer.Eq, lexer.Arrow, lexer.Minus,
		lexer.ColonColon, lexer.Colon, lexer.EOF,
	}, kinds)
}

func TestNextUnexpectedCharacter(t *testing.T) {
	l := lexer.New("/main.bp", "@")
	_, err := l.Next()
	require.Error(t, err)
}

func TestNextTracksLineAndColumn(t *testing.T) {
	toks := scanAll(t, "fn\nlet")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 1, toks[0].Col)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 1, toks[1].Col)
}

func TestKindStringKeywordsAndPunctuation(t *testing.T) {
	require.Equal(t, "'fn'", lexer.KwFn.String())
	require.Equal(t, "'->'", lexer.Arrow.String())
	require.Equal(t, "<eof>", lexer.EOF.String())
	require.Equal(t, "identifier", lexer.Ident.String())
}
