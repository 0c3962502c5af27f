package writeback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/pool"
	"github.com/cuemby/atomcas/pkg/workspace"
)

func newTestQueue(t *testing.T, workers int) (*Queue, cas.Client, *hypergraph.TypeRegistry) {
	t.Helper()
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")

	registry := identity.New()
	ws := workspace.New(client, cid.Undef)
	p := pool.New([]cas.Client{client})
	q := New(registry, ws, p, workers)
	t.Cleanup(q.Close)
	return q, client, types
}

func TestInsertAndBarrierStoresAtom(t *testing.T) {
	q, client, types := newTestQueue(t, 2)
	ctx := context.Background()

	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	if err := q.Insert(ctx, a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := q.Barrier(ctx); err != nil {
		t.Fatalf("Barrier: %v", err)
	}

	if _, ok := q.registry.GUID(a); !ok {
		t.Fatal("expected the worker to have assigned a GUID")
	}

	key, _ := codec.TextualKey(a)
	links, err := client.Links(ctx, q.ws.Current())
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	var found bool
	for _, l := range links {
		if l.Name == key {
			found = true
		}
	}
	if !found {
		t.Error("expected the atom to be attached to the workspace after the barrier")
	}
}

func TestInsertDeduplicatesPendingAtom(t *testing.T) {
	q, _, types := newTestQueue(t, 1)
	ctx := context.Background()

	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	for i := 0; i < 3; i++ {
		if err := q.Insert(ctx, a); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := q.Barrier(ctx); err != nil {
		t.Fatalf("Barrier: %v", err)
	}

	q.mu.Lock()
	dedup := q.dedup
	q.mu.Unlock()
	if dedup == 0 {
		t.Error("expected at least one insert to collapse into the pending entry")
	}
}

func TestBarrierWaitsForInFlightWork(t *testing.T) {
	q, _, types := newTestQueue(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "x")
	if err := q.Insert(ctx, a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := q.Barrier(ctx); err != nil {
		t.Fatalf("Barrier: %v", err)
	}
	if q.GetSize() != 0 || q.GetBusyWriters() != 0 {
		t.Error("expected an empty, idle queue after Barrier returns")
	}
}

// newIdleQueue builds a Queue with no running workers, so Insert's
// watermark-blocking behavior can be tested deterministically without
// racing a worker that drains the queue.
func newIdleQueue(t *testing.T) *Queue {
	t.Helper()
	q := &Queue{
		registry: identity.New(),
		pending:  make(map[*hypergraph.Atom]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func TestStallBlocksInsertAboveHighWatermark(t *testing.T) {
	q := newIdleQueue(t)
	q.SetWatermarks(1, 0)
	q.Stall(true)

	types := hypergraph.NewTypeRegistry()
	types.MustLookup("ConceptNode")
	a := hypergraph.NewNode(types.MustLookup("ConceptNode"), "a")
	b := hypergraph.NewNode(types.MustLookup("ConceptNode"), "b")

	if err := q.Insert(context.Background(), a); err != nil {
		t.Fatalf("Insert a: %v", err)
	}

	cctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := q.Insert(cctx, b); err == nil {
		t.Error("expected Insert to block past the high watermark until ctx expired")
	}
}
