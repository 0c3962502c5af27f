package incoming

import (
	"context"
	"testing"

	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/load"
	"github.com/cuemby/atomcas/pkg/workspace"
	"github.com/ipfs/go-cid"
)

type testFixture struct {
	ix     *Index
	loader *load.Loader
	client cas.Client
	types  *hypergraph.TypeRegistry
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")
	types.MustLookup("ListLink")

	reg := identity.New()
	ws := workspace.New(client, cid.Undef)
	return &testFixture{
		ix:     &Index{Registry: reg, Ws: ws, Client: client},
		loader: &load.Loader{Registry: reg, Ws: ws, Client: client, Types: types},
		client: client,
		types:  types,
	}
}

// publishAndAttach stores a bare node and attaches it to the
// workspace, returning its GUID.
func publishAndAttach(t *testing.T, f *testFixture, a *hypergraph.Atom) cid.Cid {
	t.Helper()
	ctx := context.Background()
	minimal, err := codec.EncodeMinimal(a, nil)
	if err != nil {
		t.Fatalf("EncodeMinimal: %v", err)
	}
	guid, err := f.client.Put(ctx, minimal)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	key, err := codec.TextualKey(a)
	if err != nil {
		t.Fatalf("TextualKey: %v", err)
	}
	if _, err := f.ix.Ws.Attach(ctx, key, guid); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	f.ix.Registry.SetGUID(a, guid)
	f.ix.Registry.SetACID(a, guid)
	f.ix.Registry.SetCachedObject(a, minimal)
	f.ix.Registry.SetAtomByGUID(guid, a)
	return guid
}

func TestAddIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	child := hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "b")
	childKey, _ := codec.TextualKey(child)
	publishAndAttach(t, f, child)

	parentGUID := publishAndAttach(t, f, hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "parent-marker"))

	if err := f.ix.Add(ctx, child, childKey, parentGUID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	firstACID, _ := f.ix.Registry.ACID(child)

	if err := f.ix.Add(ctx, child, childKey, parentGUID); err != nil {
		t.Fatalf("Add (again): %v", err)
	}
	secondACID, _ := f.ix.Registry.ACID(child)
	if firstACID != secondACID {
		t.Error("re-adding the same parent GUID should not republish")
	}

	incoming, err := f.ix.Query(ctx, child, childKey, nil, f.loader)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("expected exactly one incoming entry, got %d", len(incoming))
	}
}

func TestAddThenRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	child := hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "b")
	childKey, _ := codec.TextualKey(child)
	publishAndAttach(t, f, child)
	parentGUID := publishAndAttach(t, f, hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "parent-marker"))

	if err := f.ix.Add(ctx, child, childKey, parentGUID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := f.ix.Remove(ctx, child, childKey, parentGUID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	incoming, err := f.ix.Query(ctx, child, childKey, nil, f.loader)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(incoming) != 0 {
		t.Errorf("expected no incoming entries after Remove, got %d", len(incoming))
	}

	// Removing again is a no-op, not an error.
	if err := f.ix.Remove(ctx, child, childKey, parentGUID); err != nil {
		t.Errorf("Remove of an absent entry should be a no-op, got %v", err)
	}
}

func TestQueryWithTypeFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	child := hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "shared-child")
	childKey, _ := codec.TextualKey(child)
	publishAndAttach(t, f, child)

	concept := f.types.MustLookup("ConceptNode")
	listLink := f.types.MustLookup("ListLink")

	conceptParentGUID := publishAndAttach(t, f, hypergraph.NewNode(concept, "concept-parent"))
	linkParent := hypergraph.NewLink(listLink, child)
	linkMinimal, _ := codec.EncodeMinimal(linkParent, []cid.Cid{mustGUID(t, f, child)})
	linkGUID, err := f.client.Put(ctx, linkMinimal)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := f.ix.Add(ctx, child, childKey, conceptParentGUID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := f.ix.Add(ctx, child, childKey, linkGUID); err != nil {
		t.Fatalf("Add: %v", err)
	}

	onlyConcepts, err := f.ix.Query(ctx, child, childKey, concept, f.loader)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(onlyConcepts) != 1 {
		t.Errorf("expected exactly one ConceptNode in the filtered incoming set, got %d", len(onlyConcepts))
	}
}

func mustGUID(t *testing.T, f *testFixture, a *hypergraph.Atom) cid.Cid {
	t.Helper()
	g, ok := f.ix.Registry.GUID(a)
	if !ok {
		t.Fatalf("no GUID registered for %+v", a)
	}
	return g
}
