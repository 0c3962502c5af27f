package hypergraph

import (
	"fmt"
	"sync"
)

// Type is a registered atom type. Parent is nil for a root type.
type Type struct {
	Name   string
	Parent *Type
}

// IsA reports whether t equals ancestor or descends from it.
func (t *Type) IsA(ancestorName string) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Name == ancestorName {
			return true
		}
	}
	return false
}

// TypeRegistry maps type names to registered Types. It plays the role the
// original implementation gave its storing_typemap/loading_typemap pair:
// a stable local mapping that a decoded "type" string must resolve
// through, so that an unrecognized type on the wire becomes a decode
// error instead of a silently wrong numeric code.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*Type)}
}

// Register adds a type with the given parent name (empty for a root
// type). Registration is idempotent for an identical parent.
func (r *TypeRegistry) Register(name, parentName string) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var parent *Type
	if parentName != "" {
		p, ok := r.types[parentName]
		if !ok {
			return nil, fmt.Errorf("hypergraph: parent type %q not registered", parentName)
		}
		parent = p
	}

	if existing, ok := r.types[name]; ok {
		if (existing.Parent == nil) != (parent == nil) ||
			(existing.Parent != nil && parent != nil && existing.Parent.Name != parent.Name) {
			return nil, fmt.Errorf("hypergraph: type %q already registered with a different parent", name)
		}
		return existing, nil
	}

	t := &Type{Name: name, Parent: parent}
	r.types[name] = t
	return t, nil
}

// Lookup returns the registered type by name.
func (r *TypeRegistry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// MustLookup registers the type as a root type if unseen, and returns it.
// Used by callers building atoms in tests where a full type hierarchy is
// not the point.
func (r *TypeRegistry) MustLookup(name string) *Type {
	if t, ok := r.Lookup(name); ok {
		return t
	}
	t, err := r.Register(name, "")
	if err != nil {
		panic(err)
	}
	return t
}

// Atom is a typed node or typed link. Equality and the canonical textual
// key (see pkg/codec) are functions solely of Type plus Name (nodes) or
// Type plus Outgoing (links) — never of Values, which mutate freely.
type Atom struct {
	Type     *Type
	Name     string  // valid only when Outgoing is nil (node kind)
	Outgoing []*Atom // valid only when non-nil (link kind)

	mu     sync.RWMutex
	values map[*Atom]Value
}

// NewNode constructs a node atom.
func NewNode(t *Type, name string) *Atom {
	return &Atom{Type: t, Name: name}
}

// NewLink constructs a link atom over the given ordered children.
func NewLink(t *Type, outgoing ...*Atom) *Atom {
	oset := make([]*Atom, len(outgoing))
	copy(oset, outgoing)
	return &Atom{Type: t, Outgoing: oset}
}

// IsNode reports whether this atom is a node (has no outgoing set).
func (a *Atom) IsNode() bool { return a.Outgoing == nil }

// IsLink reports whether this atom is a link.
func (a *Atom) IsLink() bool { return a.Outgoing != nil }

// SetValue installs or overwrites the value under key.
func (a *Atom) SetValue(key *Atom, v Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values == nil {
		a.values = make(map[*Atom]Value)
	}
	a.values[key] = v
}

// GetValue returns the value under key, if any.
func (a *Atom) GetValue(key *Atom) (Value, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[key]
	return v, ok
}

// DeleteValue removes the value under key, if present.
func (a *Atom) DeleteValue(key *Atom) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.values, key)
}

// Keys returns the atom's current value keys in no particular order.
func (a *Atom) Keys() []*Atom {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]*Atom, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	return keys
}

// StructurallyEqual reports whether two atoms have the same type and the
// same name (nodes) or the same outgoing sequence of structurally equal
// atoms (links). Values never participate in equality.
func (a *Atom) StructurallyEqual(other *Atom) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	if a.Type.Name != other.Type.Name {
		return false
	}
	if a.IsNode() != other.IsNode() {
		return false
	}
	if a.IsNode() {
		return a.Name == other.Name
	}
	if len(a.Outgoing) != len(other.Outgoing) {
		return false
	}
	for i := range a.Outgoing {
		if !a.Outgoing[i].StructurallyEqual(other.Outgoing[i]) {
			return false
		}
	}
	return true
}
