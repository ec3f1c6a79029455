// A recursive-descent parser for the build description literal syntax:
// mappings, lists, strings, integers, booleans and null, with # comments
// and trailing commas permitted. A build file is exactly one mapping.

package parse

import (
	"io"
	"strconv"

	"github.com/hew-build/hew/src/core"
)

type parser struct {
	l *lex
}

// ParseFile parses a single build description file into its top-level
// mapping. The lexer and parser signal errors by panicking; they are
// recovered here and returned.
func ParseFile(r io.Reader, filename string) (m *core.Map, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*ParseError); ok {
				err = e
			} else {
				panic(r)
			}
		}
	}()

	p := &parser{l: newLexer(r, filename)}
	tok := p.l.Peek()
	v := p.parseValue()
	m, ok := v.(*core.Map)
	if !ok {
		fail(tok.Pos, "A build file must contain a single mapping, not %s", v.TypeName())
	}
	p.next(EOF)
	return m, nil
}

// next consumes the next token, failing if it isn't of the expected type.
func (p *parser) next(expectedType rune) Token {
	tok := p.l.Next()
	if tok.Type != expectedType {
		fail(tok.Pos, "Unexpected token %s, expected %s", tok, reverseSymbol(expectedType))
	}
	return tok
}

// optional consumes the next token if it's of the given type.
func (p *parser) optional(option rune) bool {
	if tok := p.l.Peek(); tok.Type == option {
		p.l.Next()
		return true
	}
	return false
}

func (p *parser) parseValue() core.Value {
	tok := p.l.Next()
	switch tok.Type {
	case '{':
		return p.parseMap()
	case '[':
		return p.parseList()
	case String:
		return core.Str(tok.Value)
	case Int:
		i, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			fail(tok.Pos, "Invalid integer literal %s", tok.Value)
		}
		return core.Int(i)
	case Ident:
		switch tok.Value {
		case "true", "True":
			return core.Bool(true)
		case "false", "False":
			return core.Bool(false)
		case "null", "None":
			return core.Null{}
		}
		fail(tok.Pos, "Unexpected identifier %s; strings must be quoted", tok.Value)
	}
	fail(tok.Pos, "Unexpected token %s", tok)
	panic("unreachable")
}

// parseMap parses a mapping; the opening brace has already been consumed.
func (p *parser) parseMap() *core.Map {
	m := core.NewMap()
	for {
		if p.optional('}') {
			return m
		}
		key := p.next(String)
		p.next(':')
		m.Set(key.Value, p.parseValue())
		if !p.optional(',') {
			p.next('}')
			return m
		}
	}
}

// parseList parses a list; the opening bracket has already been consumed.
func (p *parser) parseList() *core.List {
	l := core.NewList()
	for {
		if p.optional(']') {
			return l
		}
		l.Items = append(l.Items, p.parseValue())
		if !p.optional(',') {
			p.next(']')
			return l
		}
	}
}
