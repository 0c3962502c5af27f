package codec

import (
	"strconv"
	"strings"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/hypergraph"
)

const (
	tagFloatValue       = "FloatValue"
	tagStringValue      = "StringValue"
	tagLinkValue        = "LinkValue"
	tagSimpleTruthValue = "SimpleTruthValue"
)

// EncodeValue renders v as its textual value form (spec §4.2). Floats
// are encoded with strconv's shortest round-tripping representation
// (precision -1), which is exact rather than the lossy fixed-precision
// display form some paths in the original implementation used.
func EncodeValue(v hypergraph.Value) (string, error) {
	var b strings.Builder
	if err := encodeValueInto(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeValueInto(b *strings.Builder, v hypergraph.Value) error {
	switch vv := v.(type) {
	case hypergraph.FloatValue:
		b.WriteByte('(')
		b.WriteString(tagFloatValue)
		for _, f := range vv {
			b.WriteByte(' ')
			b.WriteString(formatFloat(f))
		}
		b.WriteByte(')')
		return nil
	case hypergraph.StringValue:
		b.WriteByte('(')
		b.WriteString(tagStringValue)
		for _, s := range vv {
			b.WriteByte(' ')
			b.WriteString(strconv.Quote(s))
		}
		b.WriteByte(')')
		return nil
	case hypergraph.LinkValue:
		b.WriteByte('(')
		b.WriteString(tagLinkValue)
		for _, nested := range vv {
			b.WriteByte(' ')
			if err := encodeValueInto(b, nested); err != nil {
				return err
			}
		}
		b.WriteByte(')')
		return nil
	case hypergraph.SimpleTruthValue:
		b.WriteByte('(')
		b.WriteString(tagSimpleTruthValue)
		b.WriteByte(' ')
		b.WriteString(formatFloat(vv.Strength))
		b.WriteByte(' ')
		b.WriteString(formatFloat(vv.Confidence))
		b.WriteByte(')')
		return nil
	default:
		return atomerr.New(atomerr.BadEncoding, "encode_value", errUnknownValueKind)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DecodeValue parses a textual value form back into a Value (spec §8,
// property 9). The decoder locates the form by prefix match on its
// opening tag and recursively parses nested LinkValue members using
// balanced-parenthesis scanning; malformed input fails with
// BadEncoding.
func DecodeValue(s string) (hypergraph.Value, error) {
	p := &scanner{s: s}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return nil, atomerr.New(atomerr.BadEncoding, "decode_value", errTrailing)
	}
	return v, nil
}

func (p *scanner) parseValue() (hypergraph.Value, error) {
	p.skipSpace()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	p.skipSpace()
	tag := p.readToken()

	switch tag {
	case tagFloatValue:
		floats, err := p.parseFloatList()
		if err != nil {
			return nil, err
		}
		return hypergraph.FloatValue(floats), nil
	case tagStringValue:
		var out hypergraph.StringValue
		for {
			p.skipSpace()
			if p.atEnd() {
				return nil, atomerr.New(atomerr.BadEncoding, "parse_string_value", errUnterminated)
			}
			if p.s[p.pos] == ')' {
				p.pos++
				return out, nil
			}
			s, err := p.readQuoted()
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	case tagLinkValue:
		var out hypergraph.LinkValue
		for {
			p.skipSpace()
			if p.atEnd() {
				return nil, atomerr.New(atomerr.BadEncoding, "parse_link_value", errUnterminated)
			}
			if p.s[p.pos] == ')' {
				p.pos++
				return out, nil
			}
			nested, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			out = append(out, nested)
		}
	case tagSimpleTruthValue:
		floats, err := p.parseFloatList()
		if err != nil {
			return nil, err
		}
		if len(floats) != 2 {
			return nil, atomerr.New(atomerr.BadEncoding, "parse_simple_truth_value", errTruthArity)
		}
		return hypergraph.SimpleTruthValue{Strength: floats[0], Confidence: floats[1]}, nil
	default:
		return nil, atomerr.New(atomerr.BadEncoding, "parse_value", errUnknownTag(tag))
	}
}

func (p *scanner) parseFloatList() ([]float64, error) {
	var out []float64
	for {
		p.skipSpace()
		if p.atEnd() {
			return nil, atomerr.New(atomerr.BadEncoding, "parse_float_list", errUnterminated)
		}
		if p.s[p.pos] == ')' {
			p.pos++
			return out, nil
		}
		tok := p.readToken()
		if tok == "" {
			return nil, atomerr.New(atomerr.BadEncoding, "parse_float_list", errUnterminated)
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, atomerr.New(atomerr.BadEncoding, "parse_float_list", err)
		}
		out = append(out, f)
	}
}
