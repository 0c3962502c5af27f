package identity

import (
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/cuemby/atomcas/pkg/hypergraph"
)

func testCid(t *testing.T, s string) cid.Cid {
	t.Helper()
	sum, err := mh.Sum([]byte(s), mh.SHA2_256, -1)
	if err != nil {
		t.Fatalf("mh.Sum: %v", err)
	}
	return cid.NewCidV1(cid.DagCBOR, sum)
}

func TestRegistryGUIDRoundTrip(t *testing.T) {
	r := New()
	reg := hypergraph.NewTypeRegistry()
	a := hypergraph.NewNode(reg.MustLookup("ConceptNode"), "x")

	if _, ok := r.GUID(a); ok {
		t.Fatal("fresh registry should not know a's GUID")
	}
	g := testCid(t, "a")
	r.SetGUID(a, g)
	r.SetAtomByGUID(g, a)

	got, ok := r.GUID(a)
	if !ok || got != g {
		t.Errorf("GUID(a) = %v, %v; want %v, true", got, ok, g)
	}
	back, ok := r.AtomByGUID(g)
	if !ok || back != a {
		t.Errorf("AtomByGUID(g) = %v, %v; want %v, true", back, ok, a)
	}
}

func TestRegistryForgetClearsAllFourMaps(t *testing.T) {
	r := New()
	reg := hypergraph.NewTypeRegistry()
	a := hypergraph.NewNode(reg.MustLookup("ConceptNode"), "x")

	g := testCid(t, "a")
	ac := testCid(t, "a-ext")
	r.SetGUID(a, g)
	r.SetACID(a, ac)
	r.SetAtomByGUID(g, a)
	r.SetCachedObject(a, map[string]interface{}{"type": "ConceptNode", "name": "x"})

	r.Forget(a)

	if _, ok := r.GUID(a); ok {
		t.Error("GUID should be forgotten")
	}
	if _, ok := r.ACID(a); ok {
		t.Error("ACID should be forgotten")
	}
	if _, ok := r.CachedObject(a); ok {
		t.Error("cached object should be forgotten")
	}
	if _, ok := r.AtomByGUID(g); ok {
		t.Error("reverse GUID mapping should be forgotten")
	}
}

func TestRegistryForgetDoesNotEvictAnotherAtomsReverseEntry(t *testing.T) {
	r := New()
	reg := hypergraph.NewTypeRegistry()
	a := hypergraph.NewNode(reg.MustLookup("ConceptNode"), "x")
	b := hypergraph.NewNode(reg.MustLookup("ConceptNode"), "y")

	g := testCid(t, "shared")
	r.SetGUID(a, g)
	r.SetAtomByGUID(g, a)

	// Simulate b having since taken over the same (collided) GUID slot
	// before a is forgotten.
	r.SetAtomByGUID(g, b)
	r.SetGUID(b, g)
	r.Forget(a)

	back, ok := r.AtomByGUID(g)
	if !ok || back != b {
		t.Errorf("AtomByGUID(g) = %v, %v; want %v, true", back, ok, b)
	}
}

func TestRegistryClearEmptiesAllFourMapsInPlace(t *testing.T) {
	r := New()
	reg := hypergraph.NewTypeRegistry()
	a := hypergraph.NewNode(reg.MustLookup("ConceptNode"), "x")

	g := testCid(t, "a")
	r.SetGUID(a, g)
	r.SetACID(a, testCid(t, "a-ext"))
	r.SetAtomByGUID(g, a)
	r.SetCachedObject(a, map[string]interface{}{"type": "ConceptNode", "name": "x"})

	r.Clear()

	if _, ok := r.GUID(a); ok {
		t.Error("GUID should be cleared")
	}
	if _, ok := r.ACID(a); ok {
		t.Error("ACID should be cleared")
	}
	if _, ok := r.CachedObject(a); ok {
		t.Error("cached object should be cleared")
	}
	if _, ok := r.AtomByGUID(g); ok {
		t.Error("reverse GUID mapping should be cleared")
	}

	// The registry must stay usable after Clear: a caller already
	// holding this *Registry pointer (e.g. every pkg/backend
	// collaborator) should be able to keep storing into it.
	r.SetGUID(a, g)
	if got, ok := r.GUID(a); !ok || got != g {
		t.Errorf("expected the registry to accept writes after Clear, got %v, %v", got, ok)
	}
}
