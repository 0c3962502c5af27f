package identity

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// FetchCurrent returns a's current extended object and ACID,
// consulting the cache first and falling back to the workspace (spec
// §4.3 invariant 5: "all queries must be correct even if the cache is
// cold"). textualKey is a's canonical textual atom key, used to locate
// its link in the workspace when nothing is cached. It fails with
// NotFound if a is not present in ws's current workspace.
func (r *Registry) FetchCurrent(ctx context.Context, a *hypergraph.Atom, textualKey string, ws *workspace.Manager, client cas.Client) (codec.WireObject, cid.Cid, error) {
	if obj, ok := r.CachedObject(a); ok {
		if acid, ok := r.ACID(a); ok {
			return obj, acid, nil
		}
	}
	if acid, ok := r.ACID(a); ok {
		obj, err := client.Get(ctx, acid)
		if err != nil {
			return nil, cid.Undef, err
		}
		r.SetCachedObject(a, obj)
		return obj, acid, nil
	}

	links, err := client.Links(ctx, ws.Current())
	if err != nil {
		return nil, cid.Undef, err
	}
	for _, l := range links {
		if l.Name != textualKey {
			continue
		}
		obj, err := client.Get(ctx, l.Cid)
		if err != nil {
			return nil, cid.Undef, err
		}
		r.SetACID(a, l.Cid)
		r.SetCachedObject(a, obj)
		return obj, l.Cid, nil
	}
	return nil, cid.Undef, atomerr.New(atomerr.NotFound, "identity.FetchCurrent", fmt.Errorf("atom not present in workspace"))
}
