/*
Package hypergraph provides the minimal typed-node/typed-link data model
that the persistence layer (pkg/codec, pkg/atomstore, pkg/load, ...) is
specified against. It is not a reimplementation of a full AtomSpace: no
pattern matcher, no execution, no import/export format beyond what the
codec needs. Callers embedding a real hypergraph library are expected to
adapt their atoms to this shape at the boundary.

# Core Components

Type:
  - A registered type name with an optional parent, giving a single-
    inheritance chain sufficient for type-filtered incoming-set queries.

Atom:
  - Either a node (Type + Name) or a link (Type + Outgoing sequence).
  - Equality and the canonical textual key are derived solely from
    structural identity: type+name for nodes, type+outgoing for links.
  - Carries a Values map from a key atom to a Value, mutable in place.

Value:
  - One of FloatValue, StringValue, LinkValue, or SimpleTruthValue.
*/
package hypergraph
