package remove

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomstore"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/incoming"
	"github.com/cuemby/atomcas/pkg/load"
	"github.com/cuemby/atomcas/pkg/valuestore"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// noopFencer lets tests exercise Remove without a real write-back
// queue in front of it.
type noopFencer struct{}

func (noopFencer) Barrier(context.Context) error { return nil }

type fixture struct {
	store *atomstore.Store
	rm    *Remover
	types *hypergraph.TypeRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")
	types.MustLookup("ListLink")

	registry := identity.New()
	ws := workspace.New(client, cid.Undef)
	ix := &incoming.Index{Registry: registry, Ws: ws, Client: client}
	store := &atomstore.Store{
		Registry: registry,
		Ws:       ws,
		Client:   client,
		Incoming: ix,
		Values:   &valuestore.Store{Registry: registry, Ws: ws, Client: client},
	}

	loader := &load.Loader{Registry: registry, Ws: ws, Client: client, Types: types}

	return &fixture{
		store: store,
		rm: &Remover{
			Registry: registry,
			Ws:       ws,
			Client:   client,
			Incoming: ix,
			Queue:    noopFencer{},
			Fetcher:  loader,
		},
		types: types,
	}
}

func TestRemoveNonRecursiveRefusesWhenIncomingNonEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	concept := f.types.MustLookup("ConceptNode")

	child := hypergraph.NewNode(concept, "child")
	link := hypergraph.NewLink(f.types.MustLookup("ListLink"), child)
	if err := f.store.DoStore(ctx, link); err != nil {
		t.Fatalf("DoStore: %v", err)
	}

	removed, err := f.rm.Remove(ctx, child, false)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("expected Remove to refuse a non-recursive delete of an atom with a non-empty incoming set")
	}
}

func TestRemoveRecursiveDeletesParentsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	concept := f.types.MustLookup("ConceptNode")

	child := hypergraph.NewNode(concept, "child")
	link := hypergraph.NewLink(f.types.MustLookup("ListLink"), child)
	if err := f.store.DoStore(ctx, link); err != nil {
		t.Fatalf("DoStore: %v", err)
	}

	removed, err := f.rm.Remove(ctx, child, true)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected the recursive remove to succeed")
	}

	if _, ok := f.rm.Registry.GUID(link); ok {
		t.Error("expected the parent link to have been removed from the identity registry too")
	}
	if _, ok := f.rm.Registry.GUID(child); ok {
		t.Error("expected the child to have been removed from the identity registry")
	}

	linkKey, _ := codec.TextualKey(link)
	if _, err := f.rm.Client.GetPath(ctx, f.rm.Ws.Current(), linkKey); err == nil {
		t.Error("expected the link to no longer be reachable from the workspace")
	}
}

func TestRemoveLeafAtomWithNoIncoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "solo")
	if err := f.store.DoStore(ctx, a); err != nil {
		t.Fatalf("DoStore: %v", err)
	}

	removed, err := f.rm.Remove(ctx, a, false)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("expected a leaf atom with no incoming references to be removable non-recursively")
	}
}

func TestRemoveUnstoredAtomIsNoOp(t *testing.T) {
	f := newFixture(t)
	a := hypergraph.NewNode(f.types.MustLookup("ConceptNode"), "never-stored")

	removed, err := f.rm.Remove(context.Background(), a, true)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("expected removing an atom that was never stored to be a no-op")
	}
}
