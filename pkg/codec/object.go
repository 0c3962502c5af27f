package codec

import (
	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/hypergraph"
)

// Field names used in the wire objects (spec §4.2, §6).
const (
	fieldType     = "type"
	fieldName     = "name"
	fieldOutgoing = "outgoing"
	fieldIncoming = "incoming"
	fieldValues   = "values"
)

// WireObject is the untyped shape stored in the CAS: a minimal atom
// object is a WireObject with only type/name or type/outgoing; an
// extended atom object additionally carries incoming and/or values.
type WireObject = map[string]interface{}

// ChildResolver resolves a child's GUID to its in-memory atom, used
// while decoding a link's outgoing set.
type ChildResolver func(guid cid.Cid) (*hypergraph.Atom, error)

// EncodeMinimal builds the minimal atom object for a (spec §4.2),
// given the already-published GUIDs of its children in outgoing
// order. For a node, childGUIDs is ignored.
func EncodeMinimal(a *hypergraph.Atom, childGUIDs []cid.Cid) (WireObject, error) {
	obj := WireObject{fieldType: a.Type.Name}
	if a.IsNode() {
		obj[fieldName] = a.Name
		return obj, nil
	}
	if len(childGUIDs) != len(a.Outgoing) {
		return nil, atomerr.New(atomerr.InvariantViolated, "encode_minimal", errArityMismatch)
	}
	outgoing := make([]string, len(childGUIDs))
	for i, c := range childGUIDs {
		outgoing[i] = c.String()
	}
	obj[fieldOutgoing] = outgoing
	return obj, nil
}

// EncodeExtended layers incoming and values onto a previously encoded
// minimal object, producing the object whose publication yields an
// ACID. Either slice/map may be empty, in which case the field is
// omitted entirely (spec §3 invariant 4, and an empty incoming set is
// equivalent to absence).
func EncodeExtended(minimal WireObject, incoming []cid.Cid, values map[string]string) WireObject {
	ext := make(WireObject, len(minimal)+2)
	for k, v := range minimal {
		ext[k] = v
	}
	if len(incoming) > 0 {
		ids := make([]string, len(incoming))
		for i, c := range incoming {
			ids[i] = c.String()
		}
		ext[fieldIncoming] = ids
	}
	if len(values) > 0 {
		ext[fieldValues] = values
	}
	return ext
}

// DecodeMinimal decodes a node or link from its wire object, resolving
// child GUIDs through resolveChild (spec §4.2: "either return the
// cached atom or recursively fetch and decode").
func DecodeMinimal(obj WireObject, registry *hypergraph.TypeRegistry, resolveChild ChildResolver) (*hypergraph.Atom, error) {
	typeName, ok := obj[fieldType].(string)
	if !ok || typeName == "" {
		return nil, atomerr.New(atomerr.BadEncoding, "decode_minimal", errMissingType)
	}
	t, ok := registry.Lookup(typeName)
	if !ok {
		return nil, atomerr.New(atomerr.BadEncoding, "decode_minimal", errUnknownType(typeName))
	}

	if name, ok := obj[fieldName].(string); ok {
		return hypergraph.NewNode(t, name), nil
	}
	if raw, ok := obj[fieldOutgoing]; ok {
		guidStrs, err := asStringSlice(raw)
		if err != nil {
			return nil, atomerr.New(atomerr.BadEncoding, "decode_minimal", err)
		}
		children := make([]*hypergraph.Atom, len(guidStrs))
		for i, gs := range guidStrs {
			g, err := cid.Decode(gs)
			if err != nil {
				return nil, atomerr.New(atomerr.BadEncoding, "decode_minimal", err)
			}
			child, err := resolveChild(g)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return hypergraph.NewLink(t, children...), nil
	}
	return nil, atomerr.New(atomerr.BadEncoding, "decode_minimal", errNeitherNodeNorLink)
}

// DecodeExtendedMeta extracts the incoming-GUID list and the textual
// values mapping from an extended atom object, tolerating their
// absence.
func DecodeExtendedMeta(obj WireObject) (incoming []cid.Cid, values map[string]string, err error) {
	if raw, ok := obj[fieldIncoming]; ok {
		strs, err := asStringSlice(raw)
		if err != nil {
			return nil, nil, atomerr.New(atomerr.BadEncoding, "decode_extended_meta", err)
		}
		incoming = make([]cid.Cid, len(strs))
		for i, s := range strs {
			c, err := cid.Decode(s)
			if err != nil {
				return nil, nil, atomerr.New(atomerr.BadEncoding, "decode_extended_meta", err)
			}
			incoming[i] = c
		}
	}
	if raw, ok := obj[fieldValues]; ok {
		values, err = asStringMap(raw)
		if err != nil {
			return nil, nil, atomerr.New(atomerr.BadEncoding, "decode_extended_meta", err)
		}
	}
	return incoming, values, nil
}

// StripMeta returns a copy of obj with the incoming/values fields
// removed, i.e. the minimal object implied by an extended one.
func StripMeta(obj WireObject) WireObject {
	out := make(WireObject, len(obj))
	for k, v := range obj {
		if k == fieldIncoming || k == fieldValues {
			continue
		}
		out[k] = v
	}
	return out
}

// asStringSlice tolerates both []string (objects built in-process) and
// []interface{} of strings (objects round-tripped through CBOR).
func asStringSlice(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, errNotAStringSlice
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errNotAStringSlice
	}
}

// asStringMap tolerates both map[string]string and the
// map[string]interface{} shape a CBOR round trip produces.
func asStringMap(raw interface{}) (map[string]string, error) {
	switch v := raw.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, errNotAStringMap
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, errNotAStringMap
	}
}
