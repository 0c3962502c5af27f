package atomstore

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/incoming"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/valuestore"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// Store runs the recursive writer body (spec §4.5 "do_store"). It is
// called both synchronously (the caller's own goroutine) and from a
// write-back worker (pkg/writeback); it has no opinion on which.
type Store struct {
	Registry *identity.Registry
	Ws       *workspace.Manager
	Client   cas.Client
	Incoming *incoming.Index
	Values   *valuestore.Store

	// Warm is an optional warm-start cache (spec SPEC_FULL.md domain
	// stack: go.etcd.io/bbolt via pkg/identity.WarmStore) surviving a
	// backend restart. A hit lets DoStore recover an atom's GUID
	// without re-encoding and re-publishing its minimal object, on the
	// assumption that a previous process already did so durably. Nil
	// disables the warm path entirely.
	Warm *identity.WarmStore
}

// DoStore publishes atom and, recursively, every child it does not
// already have a GUID for (spec §4.5 steps 1-6). Only steps 2-3 (the
// recursive minimal-object encode and publish) are skipped once atom
// already has a GUID in the identity registry or warm cache; steps 4-6
// (workspace attach, incoming-set update, value publish) always run,
// so re-storing an atom after a SetValue call still republishes its
// current value mapping instead of silently dropping it.
func (s *Store) DoStore(ctx context.Context, atom *hypergraph.Atom) error {
	atomKey, err := codec.TextualKey(atom)
	if err != nil {
		return err
	}

	guid, alreadyStored := s.Registry.GUID(atom)

	if !alreadyStored && s.Warm != nil {
		if g, ok, err := s.Warm.LoadGUID(atomKey); err == nil && ok {
			s.Registry.SetGUID(atom, g)
			s.Registry.SetAtomByGUID(g, atom)
			guid, alreadyStored = g, true
		}
	}

	if !alreadyStored {
		var childGUIDs []cid.Cid
		if atom.IsLink() {
			childGUIDs = make([]cid.Cid, len(atom.Outgoing))
			for i, child := range atom.Outgoing {
				if err := s.DoStore(ctx, child); err != nil {
					return err
				}
				g, ok := s.Registry.GUID(child)
				if !ok {
					return atomerr.New(atomerr.InvariantViolated, "atomstore.DoStore", errChildGUIDMissingAfterStore)
				}
				childGUIDs[i] = g
			}
		}

		minimal, err := codec.EncodeMinimal(atom, childGUIDs)
		if err != nil {
			return err
		}
		g, err := s.Client.Put(ctx, minimal)
		if err != nil {
			return atomerr.Wrap(atomerr.CASFailure, "atomstore.DoStore", err)
		}
		guid = g
		s.Registry.SetGUID(atom, guid)
		s.Registry.SetCachedObject(atom, minimal)
		s.Registry.SetACID(atom, guid)
		s.Registry.SetAtomByGUID(guid, atom)
		metrics.StoresTotal.Inc()
		if s.Warm != nil {
			_ = s.Warm.SaveGUID(atomKey, guid)
		}
	}

	if _, err := s.Ws.Attach(ctx, atomKey, guid); err != nil {
		return err
	}

	if atom.IsLink() {
		for _, child := range atom.Outgoing {
			childKey, err := codec.TextualKey(child)
			if err != nil {
				return err
			}
			if err := s.Incoming.Add(ctx, child, childKey, guid); err != nil {
				return err
			}
		}
	}

	return s.Values.Publish(ctx, atom, atomKey)
}

// StoreAll stores every atom in atoms, mirroring the original
// implementation's storeAtomSpace bulk path (IPFSBulk.cc): a thin loop
// over DoStore, not a new consistency primitive. When synchronous is
// false the loop runs with bounded concurrency instead of one atom at
// a time; callers after an asynchronous StoreAll still see every atom
// persisted once StoreAll returns, since it waits for all of them
// regardless of ordering.
func (s *Store) StoreAll(ctx context.Context, atoms []*hypergraph.Atom, synchronous bool) error {
	if synchronous {
		for _, atom := range atoms {
			if err := s.DoStore(ctx, atom); err != nil {
				return err
			}
		}
		return nil
	}

	const concurrency = 8
	sem := make(chan struct{}, concurrency)
	errs := make([]error, len(atoms))
	var wg sync.WaitGroup
	for i, atom := range atoms {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, atom *hypergraph.Atom) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = s.DoStore(ctx, atom)
		}(i, atom)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
