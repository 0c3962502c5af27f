package mnspublisher

import (
	"context"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/workspace"
)

func TestWakePublishesCurrentWCID(t *testing.T) {
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	defer client.Close()
	ctx := context.Background()

	target, err := client.Put(ctx, cas.Object{"type": "marker"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	root, err := client.PatchAddLink(ctx, cid.Undef, "k", target)
	if err != nil {
		t.Fatalf("PatchAddLink: %v", err)
	}

	ws := workspace.New(client, root)
	p := New(client, ws, "atomcas-test-workspace", time.Hour, time.Minute)
	p.Start()
	defer p.Stop()

	p.Wake()

	deadline := time.After(2 * time.Second)
	for {
		resolved, err := client.ResolveName(ctx, "atomcas-test-workspace")
		if err == nil && resolved == root {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("MNS name was not published within the deadline (last err: %v)", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStopExitsWorkerLoop(t *testing.T) {
	client, err := cas.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	defer client.Close()

	ws := workspace.New(client, cid.Undef)
	p := New(client, ws, "name", time.Hour, time.Minute)
	p.Start()
	p.Stop() // must return, not hang
}
