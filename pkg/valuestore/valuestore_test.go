package valuestore

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

func newTestStore(t *testing.T) (*Store, cas.Client, *hypergraph.TypeRegistry) {
	t.Helper()
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")
	types.MustLookup("PredicateNode")

	return &Store{
		Registry: identity.New(),
		Ws:       workspace.New(client, cid.Undef),
		Client:   client,
	}, client, types
}

func publish(t *testing.T, s *Store, client cas.Client, a *hypergraph.Atom) string {
	t.Helper()
	ctx := context.Background()
	minimal, err := codec.EncodeMinimal(a, nil)
	if err != nil {
		t.Fatalf("EncodeMinimal: %v", err)
	}
	acid, err := client.Put(ctx, minimal)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	key, err := codec.TextualKey(a)
	if err != nil {
		t.Fatalf("TextualKey: %v", err)
	}
	if _, err := s.Ws.Attach(ctx, key, acid); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	s.Registry.SetACID(a, acid)
	s.Registry.SetCachedObject(a, minimal)
	return key
}

func TestPublishNoValuesIsNoOp(t *testing.T) {
	s, client, types := newTestStore(t)
	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	key := publish(t, s, client, a)
	before, _ := s.Registry.ACID(a)

	if err := s.Publish(context.Background(), a, key); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	after, _ := s.Registry.ACID(a)
	if before != after {
		t.Error("Publish with no non-default values should not republish")
	}
}

func TestPublishMergesOverExistingValues(t *testing.T) {
	s, client, types := newTestStore(t)
	ctx := context.Background()

	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	key := publish(t, s, client, a)

	k1 := hypergraph.NewNode(types.MustLookup("PredicateNode"), "k1")
	k2 := hypergraph.NewNode(types.MustLookup("PredicateNode"), "k2")
	a.SetValue(k1, hypergraph.FloatValue{1})

	if err := s.Publish(ctx, a, key); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	firstACID, _ := s.Registry.ACID(a)

	a.SetValue(k2, hypergraph.StringValue{"hello"})
	if err := s.Publish(ctx, a, key); err != nil {
		t.Fatalf("Publish (second): %v", err)
	}
	secondACID, _ := s.Registry.ACID(a)
	if firstACID == secondACID {
		t.Fatal("expected a new ACID after adding a second value")
	}

	obj, err := client.Get(ctx, secondACID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, values, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		t.Fatalf("DecodeExtendedMeta: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected both values to survive the merge, got %d: %v", len(values), values)
	}
}

func TestPublishSkipsDefaultTruthValue(t *testing.T) {
	s, client, types := newTestStore(t)
	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	key := publish(t, s, client, a)

	truthKey := hypergraph.NewNode(types.MustLookup("PredicateNode"), "truth")
	a.SetValue(truthKey, hypergraph.SimpleTruthValue{Strength: 1, Confidence: 0})

	before, _ := s.Registry.ACID(a)
	if err := s.Publish(context.Background(), a, key); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	after, _ := s.Registry.ACID(a)
	if before != after {
		t.Error("a default truth value alone should not trigger a republish")
	}
}
