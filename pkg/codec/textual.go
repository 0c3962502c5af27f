package codec

import (
	"strconv"
	"strings"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/hypergraph"
)

// TextualKey returns the canonical textual atom key (spec §4.2):
// `(TypeName "name")` for a node, `(TypeName child1 child2 …)` for a
// link, recursively over the children's own textual keys. Two
// structurally equal atoms always produce byte-identical keys.
func TextualKey(a *hypergraph.Atom) (string, error) {
	if a == nil {
		return "", atomerr.New(atomerr.BadEncoding, "textual_key", nil)
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(a.Type.Name)
	if a.IsNode() {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(a.Name))
	} else {
		for _, child := range a.Outgoing {
			childKey, err := TextualKey(child)
			if err != nil {
				return "", err
			}
			b.WriteByte(' ')
			b.WriteString(childKey)
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}

// DecodeTextualKey parses a canonical textual atom key back into an
// atom, resolving type names through registry. Round-tripping
// TextualKey then DecodeTextualKey reconstructs a structurally equal
// atom (spec §8, property 8).
func DecodeTextualKey(s string, registry *hypergraph.TypeRegistry) (*hypergraph.Atom, error) {
	p := &scanner{s: s}
	a, err := p.parseAtomKey(registry)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return nil, atomerr.New(atomerr.BadEncoding, "decode_textual_key", errTrailing)
	}
	return a, nil
}

// scanner is a minimal recursive-descent reader over a textual
// atom-key or value form, tracking balanced parentheses and quoted
// strings so that nested forms are scanned correctly.
type scanner struct {
	s   string
	pos int
}

func (p *scanner) atEnd() bool { return p.pos >= len(p.s) }

func (p *scanner) skipSpace() {
	for !p.atEnd() && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func (p *scanner) expect(c byte) error {
	if p.atEnd() || p.s[p.pos] != c {
		return atomerr.New(atomerr.BadEncoding, "scan", errExpected(c))
	}
	p.pos++
	return nil
}

// readToken reads a bare token: everything up to the next space,
// '(' or ')'.
func (p *scanner) readToken() string {
	start := p.pos
	for !p.atEnd() && !isSpace(p.s[p.pos]) && p.s[p.pos] != '(' && p.s[p.pos] != ')' {
		p.pos++
	}
	return p.s[start:p.pos]
}

// readQuoted reads a Go-quoted string starting at the current '"' and
// returns its unescaped contents.
func (p *scanner) readQuoted() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	start := p.pos - 1
	for !p.atEnd() {
		c := p.s[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
		if c == '"' {
			return strconv.Unquote(p.s[start:p.pos])
		}
	}
	return "", atomerr.New(atomerr.BadEncoding, "scan_quoted", errUnterminated)
}

// parseAtomKey parses `(TypeName "name")` or `(TypeName k1 k2 …)`.
func (p *scanner) parseAtomKey(registry *hypergraph.TypeRegistry) (*hypergraph.Atom, error) {
	p.skipSpace()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	p.skipSpace()
	typeName := p.readToken()
	if typeName == "" {
		return nil, atomerr.New(atomerr.BadEncoding, "parse_atom_key", errEmptyType)
	}
	t, ok := registry.Lookup(typeName)
	if !ok {
		return nil, atomerr.New(atomerr.BadEncoding, "parse_atom_key", errUnknownType(typeName))
	}

	p.skipSpace()
	if !p.atEnd() && p.s[p.pos] == '"' {
		name, err := p.readQuoted()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return hypergraph.NewNode(t, name), nil
	}

	var children []*hypergraph.Atom
	for {
		p.skipSpace()
		if p.atEnd() {
			return nil, atomerr.New(atomerr.BadEncoding, "parse_atom_key", errUnterminated)
		}
		if p.s[p.pos] == ')' {
			p.pos++
			break
		}
		child, err := p.parseAtomKey(registry)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return hypergraph.NewLink(t, children...), nil
}
