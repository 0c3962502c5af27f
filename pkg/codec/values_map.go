package codec

import "github.com/cuemby/atomcas/pkg/hypergraph"

// EncodeAtomValues builds the textual values mapping for a (spec
// §4.6 step 1): for each key currently set on a, skip it if its value
// is exactly the default truth annotation, otherwise emit (textual
// key, textual value). An atom with no non-default values yields an
// empty, non-nil map.
func EncodeAtomValues(a *hypergraph.Atom) (map[string]string, error) {
	out := make(map[string]string)
	for _, key := range a.Keys() {
		v, ok := a.GetValue(key)
		if !ok {
			continue
		}
		if tv, isTruth := v.(hypergraph.SimpleTruthValue); isTruth && tv.IsDefault() {
			continue
		}
		keyText, err := TextualKey(key)
		if err != nil {
			return nil, err
		}
		valText, err := EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out[keyText] = valText
	}
	return out, nil
}

// DecodeAtomValues parses a textual values mapping back onto target,
// resolving each textual key through registry and installing the
// decoded value.
func DecodeAtomValues(values map[string]string, registry *hypergraph.TypeRegistry, target *hypergraph.Atom) error {
	for keyText, valText := range values {
		key, err := DecodeTextualKey(keyText, registry)
		if err != nil {
			return err
		}
		v, err := DecodeValue(valText)
		if err != nil {
			return err
		}
		target.SetValue(key, v)
	}
	return nil
}
