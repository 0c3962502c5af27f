package load

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/workspace"
)

func newTestLoader(t *testing.T) (*Loader, cas.Client, *hypergraph.TypeRegistry) {
	t.Helper()
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")
	types.MustLookup("ListLink")

	l := &Loader{
		Registry: identity.New(),
		Ws:       workspace.New(client, cid.Undef),
		Client:   client,
		Types:    types,
	}
	return l, client, types
}

func TestFetchByGUIDSimpleNode(t *testing.T) {
	l, client, types := newTestLoader(t)
	ctx := context.Background()

	obj, err := codec.EncodeMinimal(hypergraph.NewNode(types.MustLookup("ConceptNode"), "x"), nil)
	if err != nil {
		t.Fatalf("EncodeMinimal: %v", err)
	}
	g, err := client.Put(ctx, obj)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := l.FetchByGUID(ctx, g)
	if err != nil {
		t.Fatalf("FetchByGUID: %v", err)
	}
	if got.Type.Name != "ConceptNode" || got.Name != "x" {
		t.Errorf("got %+v", got)
	}

	cached, ok := l.Registry.AtomByGUID(g)
	if !ok || cached != got {
		t.Error("FetchByGUID should install the GUID->atom cache entry")
	}
}

func TestFetchByGUIDRecursesIntoLinks(t *testing.T) {
	l, client, types := newTestLoader(t)
	ctx := context.Background()

	aObj, _ := codec.EncodeMinimal(hypergraph.NewNode(types.MustLookup("ConceptNode"), "a"), nil)
	aGUID, err := client.Put(ctx, aObj)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	bObj, _ := codec.EncodeMinimal(hypergraph.NewNode(types.MustLookup("ConceptNode"), "b"), nil)
	bGUID, err := client.Put(ctx, bObj)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	linkObj := cas.Object{"type": "ListLink", "outgoing": []string{aGUID.String(), bGUID.String()}}
	linkGUID, err := client.Put(ctx, linkObj)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := l.FetchByGUID(ctx, linkGUID)
	if err != nil {
		t.Fatalf("FetchByGUID: %v", err)
	}
	if got.Type.Name != "ListLink" || len(got.Outgoing) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got.Outgoing[0].Name != "a" || got.Outgoing[1].Name != "b" {
		t.Errorf("children decoded out of order or wrong: %+v", got.Outgoing)
	}
}

func TestLoadWorkspaceReconstructsAtomsAndValues(t *testing.T) {
	l, client, types := newTestLoader(t)
	ctx := context.Background()

	concept := types.MustLookup("ConceptNode")
	predicate := types.MustLookup("PredicateNode")
	x := hypergraph.NewNode(concept, "x")
	key := hypergraph.NewNode(predicate, "k")

	minimal, err := codec.EncodeMinimal(x, nil)
	if err != nil {
		t.Fatalf("EncodeMinimal: %v", err)
	}
	keyText, err := codec.TextualKey(key)
	if err != nil {
		t.Fatalf("TextualKey: %v", err)
	}
	valText, err := codec.EncodeValue(hypergraph.FloatValue{1, 2, 3})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	extended := codec.EncodeExtended(minimal, nil, map[string]string{keyText: valText})
	acid, err := client.Put(ctx, extended)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	xKey, err := codec.TextualKey(x)
	if err != nil {
		t.Fatalf("TextualKey: %v", err)
	}
	root, err := client.PatchAddLink(ctx, cid.Undef, xKey, acid)
	if err != nil {
		t.Fatalf("PatchAddLink: %v", err)
	}

	atoms, err := l.LoadWorkspace(ctx, root.String())
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if len(atoms) != 1 {
		t.Fatalf("expected 1 atom, got %d", len(atoms))
	}
	got := atoms[0]
	if got.Name != "x" {
		t.Fatalf("got %+v", got)
	}
	v, ok := got.GetValue(key)
	if !ok {
		t.Fatal("expected a FloatValue to be installed on the loaded atom")
	}
	fv, ok := v.(hypergraph.FloatValue)
	if !ok || !hypergraph.ValuesEqual(fv, hypergraph.FloatValue{1, 2, 3}) {
		t.Errorf("got value %v", v)
	}

	if l.Ws.Current() != root {
		t.Error("LoadWorkspace should install the resolved root as the current WCID")
	}
}

func TestLoadAllMatchesLoadWorkspace(t *testing.T) {
	l, client, types := newTestLoader(t)
	ctx := context.Background()

	concept := types.MustLookup("ConceptNode")
	var root = cid.Undef
	for _, name := range []string{"a", "b", "c"} {
		n := hypergraph.NewNode(concept, name)
		obj, _ := codec.EncodeMinimal(n, nil)
		acid, err := client.Put(ctx, obj)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		key, _ := codec.TextualKey(n)
		root, err = client.PatchAddLink(ctx, root, key, acid)
		if err != nil {
			t.Fatalf("PatchAddLink: %v", err)
		}
	}

	atoms, err := l.LoadAll(ctx, root.String(), 4)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(atoms) != 3 {
		t.Fatalf("expected 3 atoms, got %d", len(atoms))
	}
}
