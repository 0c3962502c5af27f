package incoming

import (
	"context"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// AtomFetcher resolves a GUID to its decoded atom. pkg/load's Loader
// satisfies this; accepting the narrow interface here rather than
// importing pkg/load keeps incoming a leaf package.
type AtomFetcher interface {
	FetchByGUID(ctx context.Context, g cid.Cid) (*hypergraph.Atom, error)
}

// Index bundles the collaborators the incoming-set operations need.
type Index struct {
	Registry *identity.Registry
	Ws       *workspace.Manager
	Client   cas.Client
}

// Add installs parentGUID into child's incoming set (spec §4.8 "add"),
// idempotently: if parentGUID is already present, Add returns without
// republishing anything.
func (ix *Index) Add(ctx context.Context, child *hypergraph.Atom, childKey string, parentGUID cid.Cid) error {
	obj, _, err := ix.Registry.FetchCurrent(ctx, child, childKey, ix.Ws, ix.Client)
	if err != nil {
		return err
	}
	incoming, values, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		return err
	}
	for _, g := range incoming {
		if g == parentGUID {
			return nil
		}
	}
	incoming = append(incoming, parentGUID)

	next := codec.EncodeExtended(codec.StripMeta(obj), incoming, values)
	return ix.republish(ctx, child, childKey, next)
}

// Remove strips parentGUID from child's incoming set (spec §4.8
// "remove"). Removing an absent entry is a no-op.
func (ix *Index) Remove(ctx context.Context, child *hypergraph.Atom, childKey string, parentGUID cid.Cid) error {
	obj, _, err := ix.Registry.FetchCurrent(ctx, child, childKey, ix.Ws, ix.Client)
	if err != nil {
		if atomerr.KindOf(err) == atomerr.NotFound {
			return nil
		}
		return err
	}
	incoming, values, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		return err
	}
	kept := incoming[:0:0]
	found := false
	for _, g := range incoming {
		if g == parentGUID {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return nil
	}

	next := codec.EncodeExtended(codec.StripMeta(obj), kept, values)
	return ix.republish(ctx, child, childKey, next)
}

// Query returns the decoded incoming set of atom, optionally filtered
// to a single type (spec §4.8 "query").
func (ix *Index) Query(ctx context.Context, atom *hypergraph.Atom, atomKey string, typeFilter *hypergraph.Type, fetcher AtomFetcher) ([]*hypergraph.Atom, error) {
	obj, err := ix.Client.GetPath(ctx, ix.Ws.Current(), atomKey)
	if err != nil {
		if atomerr.KindOf(err) == atomerr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	incoming, _, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		return nil, err
	}

	out := make([]*hypergraph.Atom, 0, len(incoming))
	for _, g := range incoming {
		a, err := fetcher.FetchByGUID(ctx, g)
		if err != nil {
			return nil, err
		}
		if typeFilter != nil && a.Type.Name != typeFilter.Name {
			continue
		}
		out = append(out, a)
	}
	metrics.IncomingSetFetchesTotal.Inc()
	metrics.IncomingSetMembersTotal.Add(float64(len(out)))
	return out, nil
}

// republish installs obj as child's current extended object, caches
// it, and attaches the new ACID to the workspace.
func (ix *Index) republish(ctx context.Context, child *hypergraph.Atom, childKey string, obj codec.WireObject) error {
	newACID, err := ix.Client.Put(ctx, obj)
	if err != nil {
		return atomerr.Wrap(atomerr.CASFailure, "incoming.republish", err)
	}
	if _, err := ix.Ws.Attach(ctx, childKey, newACID); err != nil {
		return err
	}
	ix.Registry.SetCachedObject(child, obj)
	ix.Registry.SetACID(child, newACID)
	return nil
}
