package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
)

func openTestClient(t *testing.T) cas.Client {
	t.Helper()
	s, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAttachChangesWCIDAndIsQueryable(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	m := New(client, cid.Undef)

	before := m.Current()
	acid, err := client.Put(ctx, cas.Object{"type": "ConceptNode", "name": "x"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	after, err := m.Attach(ctx, `(ConceptNode "x")`, acid)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if after == before {
		t.Error("Attach should change the workspace CID")
	}
	if m.Current() != after {
		t.Error("Current() should reflect the just-installed WCID")
	}

	links, err := client.Links(ctx, m.Current())
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	if len(links) != 1 || links[0].Name != `(ConceptNode "x")` || links[0].Cid != acid {
		t.Errorf("unexpected links %+v", links)
	}
}

func TestDetachUnknownKeyIsNotFoundAndLeavesWCIDUnchanged(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	m := New(client, cid.Undef)

	before := m.Current()
	_, err := m.Detach(ctx, `(ConceptNode "never-stored")`)
	if !errors.Is(err, atomerr.ErrNotFound) {
		t.Fatalf("Detach of an absent key should fail with NotFound, got %v", err)
	}
	if m.Current() != before {
		t.Error("Detach failure must leave the WCID unchanged")
	}
}

func TestAttachThenDetachRoundTrip(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	m := New(client, cid.Undef)

	acid, err := client.Put(ctx, cas.Object{"type": "ConceptNode", "name": "x"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := m.Attach(ctx, `(ConceptNode "x")`, acid); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if _, err := m.Detach(ctx, `(ConceptNode "x")`); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	links, err := client.Links(ctx, m.Current())
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("expected no links after detach, got %+v", links)
	}
}
