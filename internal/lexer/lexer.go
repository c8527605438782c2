package lexer

import (
	"strconv"
	"strings"

	"github.com/bplang/bpc/internal/diag"
)

// Lexer scans a single module's source text. It holds no allocation beyond
// its own cursor — tokens reference the source buffer directly.
type Lexer struct {
	path string
	src  string
	pos  int
	line int
	col  int
}

// New creates a Lexer over src, attributing diagnostics to path.
func New(path, src string) *Lexer {
	return &Lexer{path: path, src: src, line: 1, col: 1}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) errf(format string, args ...any) error {
	return diag.At(l.path, l.line, l.col, format, args...)
}

// Next scans and returns the next token, skipping whitespace and comments.
func (l *Lexer) Next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	line, col := l.line, l.col
	if l.eof() {
		return Token{Kind: EOF, Line: line, Col: col}, nil
	}
	b := l.peekByte()
	switch {
	case isIdentStart(b):
		return l.lexIdent(line, col)
	case isDigit(b):
		return l.lexNumber(line, col)
	case b == '"':
		return l.lexString(line, col)
	case b == '\'':
		return l.lexChar(line, col)
	default:
		return l.lexPunct(line, col)
	}
}

func (l *Lexer) skipTrivia() error {
	for !l.eof() {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			l.advance()
		case b == '/' && l.peekByteAt(1) == '/':
			for !l.eof() && l.peekByte() != '\n' {
				l.advance()
			}
		case b == '/' && l.peekByteAt(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) skipBlockComment() error {
	startLine, startCol := l.line, l.col
	l.advance() // /
	l.advance() // *
	depth := 1
	for depth > 0 {
		if l.eof() {
			return diag.At(l.path, startLine, startCol, "unterminated block comment")
		}
		if l.peekByte() == '/' && l.peekByteAt(1) == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
			l.advance()
			l.advance()
			depth--
			continue
		}
		l.advance()
	}
	return nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool { return isIdentStart(b) || isDigit(b) }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *Lexer) lexIdent(line, col int) (Token, error) {
	start := l.pos
	for !l.eof() && isIdentCont(l.peekByte()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Text: text, Line: line, Col: col}, nil
	}
	return Token{Kind: Ident, Text: text, Line: line, Col: col}, nil
}

var intSuffixes = []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64"}

func (l *Lexer) lexNumber(line, col int) (Token, error) {
	start := l.pos
	isHex := false
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'x' || l.peekByteAt(1) == 'X') {
		isHex = true
		l.advance()
		l.advance()
		for !l.eof() && (isHexDigit(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
	} else {
		for !l.eof() && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
	}
	digitsEnd := l.pos
	suffix := ""
	for _, s := range intSuffixes {
		if strings.HasPrefix(l.src[l.pos:], s) && !isIdentCont(l.peekByteAt(len(s))) {
			suffix = s
			for range s {
				l.advance()
			}
			break
		}
	}
	digits := strings.ReplaceAll(l.src[start:digitsEnd], "_", "")
	var value uint64
	var err error
	if isHex {
		value, err = strconv.ParseUint(digits[2:], 16, 64)
	} else {
		value, err = strconv.ParseUint(digits, 10, 64)
	}
	if err != nil {
		return Token{}, diag.At(l.path, line, col, "invalid integer literal %q", l.src[start:l.pos])
	}
	return Token{
		Kind: Int, Text: l.src[start:l.pos], Line: line, Col: col,
		IntValue: value, IntSuffix: suffix, IntIsHex: isHex,
	}, nil
}

func (l *Lexer) unescape(quote byte, startLine, startCol int) (string, error) {
	var b strings.Builder
	for {
		if l.eof() {
			return "", diag.At(l.path, startLine, startCol, "unterminated literal")
		}
		c := l.peekByte()
		if c == quote {
			break
		}
		if c == '\n' {
			return "", diag.At(l.path, startLine, startCol, "unterminated literal")
		}
		if c == '\\' {
			l.advance()
			if l.eof() {
				return "", diag.At(l.path, startLine, startCol, "unterminated literal")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			case '0':
				b.WriteByte(0)
			default:
				return "", diag.At(l.path, l.line, l.col, "invalid escape sequence '\\%c'", esc)
			}
			continue
		}
		b.WriteByte(l.advance())
	}
	return b.String(), nil
}

func (l *Lexer) lexString(line, col int) (Token, error) {
	startLine, startCol := l.line, l.col
	l.advance() // opening quote
	value, err := l.unescape('"', startLine, startCol)
	if err != nil {
		return Token{}, err
	}
	l.advance() // closing quote
	return Token{Kind: Str, Text: l.src[0:0], Line: line, Col: col, StrValue: value}, nil
}

func (l *Lexer) lexChar(line, col int) (Token, error) {
	startLine, startCol := l.line, l.col
	l.advance() // opening quote
	value, err := l.unescape('\'', startLine, startCol)
	if err != nil {
		return Token{}, err
	}
	l.advance() // closing quote
	if len(value) != 1 {
		return Token{}, diag.At(l.path, startLine, startCol, "character literal must have one character")
	}
	return Token{Kind: Char, Line: line, Col: col, CharValue: value[0]}, nil
}

// two-byte operator table, checked before falling back to single-byte.
var twoByte = map[string]Kind{
	"<<": Shl, ">>": Shr, "&&": AmpAmp, "||": PipePipe,
	"<=": Le, ">=": Ge, "==": EqEq, "!=": Ne,
	"::": ColonColon, "..": DotDot, "->": Arrow, "=>": FatArrow,
}

var oneByte = map[byte]Kind{
	'+': Plus, '-': Minus, '*': Star, '/': Slash, '%': Percent,
	'&': Amp, '|': Pipe, '^': Caret, '!': Bang,
	'<': Lt, '>': Gt, '=': Eq,
	',': Comma, ';': Semi, ':': Colon, '.': Dot,
	'(': LParen, ')': RParen, '{': LBrace, '}': RBrace, '[': LBracket, ']': RBracket,
}

func (l *Lexer) lexPunct(line, col int) (Token, error) {
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		if k, ok := twoByte[two]; ok {
			l.advance()
			l.advance()
			return Token{Kind: k, Text: two, Line: line, Col: col}, nil
		}
	}
	b := l.peekByte()
	if k, ok := oneByte[b]; ok {
		l.advance()
		return Token{Kind: k, Text: string(b), Line: line, Col: col}, nil
	}
	return Token{}, l.errf("unexpected character %q", b)
}
