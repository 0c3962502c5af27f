package remove

import (
	"context"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/incoming"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// Fencer is the write-back queue capability Remove needs before it may
// safely inspect an atom's stored state (spec §4.9 step 1). Satisfied
// by *pkg/writeback.Queue; declared locally so this package does not
// depend on the queue's implementation.
type Fencer interface {
	Barrier(ctx context.Context) error
}

// AtomFetcher resolves a GUID to its decoded atom, needed to recurse
// into an atom's incoming referents by GUID. Satisfied by
// *pkg/load.Loader.
type AtomFetcher interface {
	FetchByGUID(ctx context.Context, g cid.Cid) (*hypergraph.Atom, error)
}

// Remover runs the delete protocol of spec §4.9.
type Remover struct {
	Registry *identity.Registry
	Ws       *workspace.Manager
	Client   cas.Client
	Incoming *incoming.Index
	Queue    Fencer
	Fetcher  AtomFetcher
}

// Remove deletes atom, recursively removing its incoming referents
// first when recursive is true, and reports whether it actually
// removed something. Removing an atom with a non-empty incoming set
// when recursive is false is refused: Remove returns (false, nil)
// rather than an error, matching spec §4.9 step 3's "refuse (return
// without effect)". The "removes"/"deletes" statistics are
// incremented exactly once per top-level call, never per recursive
// sub-removal (spec §4.9, final paragraph).
func (r *Remover) Remove(ctx context.Context, atom *hypergraph.Atom, recursive bool) (bool, error) {
	metrics.AtomRemovesTotal.Inc()

	// Fence the write-back queue: per pkg/writeback's own barrier
	// caveat, a single barrier can still race a very last in-flight
	// item, so a caller requiring strict durability invokes it twice.
	if err := r.Queue.Barrier(ctx); err != nil {
		return false, err
	}
	if err := r.Queue.Barrier(ctx); err != nil {
		return false, err
	}

	removed, err := r.removeRecursive(ctx, atom, recursive)
	if err != nil {
		return false, err
	}
	if removed {
		metrics.AtomDeletesTotal.Inc()
	}
	return removed, nil
}

func (r *Remover) removeRecursive(ctx context.Context, atom *hypergraph.Atom, recursive bool) (bool, error) {
	key, err := codec.TextualKey(atom)
	if err != nil {
		return false, err
	}

	obj, _, err := r.Registry.FetchCurrent(ctx, atom, key, r.Ws, r.Client)
	if err != nil {
		if atomerr.KindOf(err) == atomerr.NotFound {
			return false, nil
		}
		return false, err
	}
	incomingGUIDs, _, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		return false, err
	}
	if len(incomingGUIDs) > 0 && !recursive {
		return false, nil
	}

	for _, g := range incomingGUIDs {
		parent, err := r.Fetcher.FetchByGUID(ctx, g)
		if err != nil {
			return false, err
		}
		if _, err := r.removeRecursive(ctx, parent, true); err != nil {
			return false, err
		}
	}

	guid, ok := r.Registry.GUID(atom)
	if !ok {
		return false, atomerr.New(atomerr.InvariantViolated, "remove.Remove", errAtomHasNoGUID)
	}

	if atom.IsLink() {
		for _, child := range atom.Outgoing {
			childKey, err := codec.TextualKey(child)
			if err != nil {
				return false, err
			}
			if err := r.Incoming.Remove(ctx, child, childKey, guid); err != nil {
				return false, err
			}
		}
	}

	r.Registry.Forget(atom)

	if _, err := r.Ws.Detach(ctx, key); err != nil {
		if atomerr.KindOf(err) == atomerr.NotFound {
			return false, atomerr.New(atomerr.InvariantViolated, "remove.Remove", errWorkspaceMissingKey)
		}
		return false, err
	}
	return true, nil
}
