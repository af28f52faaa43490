package gml

import (
	"html"
	"strconv"
)

// source is satisfied by *mmap.ReaderAt and byteSource
type source interface {
	Len() int
	At(i int) byte
}

type byteSource []byte

func (b byteSource) Len() int      { return len(b) }
func (b byteSource) At(i int) byte { return b[i] }

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKey
	tokInt
	tokReal
	tokString
	tokOpen
	tokClose
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokKey:
		return "key"
	case tokInt:
		return "integer"
	case tokReal:
		return "real"
	case tokString:
		return "string"
	case tokOpen:
		return "'['"
	case tokClose:
		return "']'"
	default:
		return "unknown"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src  source
	pos  int
	line int
}

func newLexer(src source) *lexer {
	return &lexer{src: src, line: 1}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyByte(c byte) bool {
	return isKeyStart(c) || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E'
}

func (l *lexer) errorf(msg string) error {
	return &SyntaxError{Line: l.line, Msg: msg}
}

func (l *lexer) skipSpaceAndComments() {
	n := l.src.Len()
	for l.pos < n {
		c := l.src.At(l.pos)
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case isSpace(c):
			l.pos++
		case c == '#':
			for l.pos < n && l.src.At(l.pos) != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	n := l.src.Len()
	if l.pos >= n {
		return token{kind: tokEOF, line: l.line}, nil
	}

	start := l.pos
	c := l.src.At(l.pos)
	switch {
	case c == '[':
		l.pos++
		return token{kind: tokOpen, text: "[", line: l.line}, nil
	case c == ']':
		l.pos++
		return token{kind: tokClose, text: "]", line: l.line}, nil
	case c == '"':
		return l.lexString()
	case isKeyStart(c):
		for l.pos < n && isKeyByte(l.src.At(l.pos)) {
			l.pos++
		}
		return token{kind: tokKey, text: l.slice(start, l.pos), line: l.line}, nil
	case isNumberByte(c):
		for l.pos < n && isNumberByte(l.src.At(l.pos)) {
			l.pos++
		}
		text := l.slice(start, l.pos)
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return token{kind: tokInt, text: text, line: l.line}, nil
		}
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			return token{kind: tokReal, text: text, line: l.line}, nil
		}
		return token{}, l.errorf("malformed number " + strconv.Quote(text))
	default:
		return token{}, l.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
	}
}

func (l *lexer) lexString() (token, error) {
	n := l.src.Len()
	line := l.line
	l.pos++ // opening quote
	start := l.pos
	for l.pos < n && l.src.At(l.pos) != '"' {
		if l.src.At(l.pos) == '\n' {
			l.line++
		}
		l.pos++
	}
	if l.pos >= n {
		return token{}, &SyntaxError{Line: line, Msg: "unterminated string"}
	}
	text := html.UnescapeString(l.slice(start, l.pos))
	l.pos++ // closing quote
	return token{kind: tokString, text: text, line: line}, nil
}

func (l *lexer) slice(from, to int) string {
	buf := make([]byte, to-from)
	for i := range buf {
		buf[i] = l.src.At(from + i)
	}
	return string(buf)
}
