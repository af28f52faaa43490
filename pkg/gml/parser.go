package gml

import (
	"strconv"
)

// Pair is one key/value entry of a GML list. Value holds an int64,
// float64, string or List.
type Pair struct {
	Key   string
	Value any
}

// List is an ordered GML list; keys may repeat
type List []Pair

// Get returns the first value stored under key
func (l List) Get(key string) (any, bool) {
	for _, p := range l {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// All returns every value stored under key, in document order
func (l List) All(key string) []any {
	var out []any
	for _, p := range l {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

type parser struct {
	lex *lexer
}

// Parse reads a GML document into its top-level list
func Parse(data []byte) (List, error) {
	return parse(byteSource(data))
}

func parse(src source) (List, error) {
	p := &parser{lex: newLexer(src)}
	return p.list(false)
}

func (p *parser) next() (token, error) {
	return p.lex.next()
}

func (p *parser) list(nested bool) (List, error) {
	var out List
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokEOF:
			if nested {
				return nil, &SyntaxError{Line: t.line, Msg: "unclosed list"}
			}
			return out, nil
		case tokClose:
			if !nested {
				return nil, &SyntaxError{Line: t.line, Msg: "unexpected ']'"}
			}
			return out, nil
		case tokKey:
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			out = append(out, Pair{Key: t.text, Value: v})
		default:
			return nil, &SyntaxError{Line: t.line, Msg: "expected key, found " + t.kind.String()}
		}
	}
}

func (p *parser) value() (any, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Line: t.line, Msg: err.Error()}
		}
		return v, nil
	case tokReal:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Line: t.line, Msg: err.Error()}
		}
		return v, nil
	case tokString:
		return t.text, nil
	case tokOpen:
		return p.list(true)
	default:
		return nil, &SyntaxError{Line: t.line, Msg: "expected value, found " + t.kind.String()}
	}
}
