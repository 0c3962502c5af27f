package valuestore

import (
	"context"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// Store publishes an atom's current value annotations (spec §4.6).
type Store struct {
	Registry *identity.Registry
	Ws       *workspace.Manager
	Client   cas.Client
}

// Publish builds atom's values mapping and, if non-empty, merges it
// over the current extended object's existing values mapping and
// republishes (spec §4.6 "publish_values"). An atom with no
// non-default values is a no-op: this preserves the distinction
// between "never annotated" and "annotated with defaults", and avoids
// a redundant republish when do_store's atom store step (spec §4.5
// step 6) calls this for every atom regardless of whether it carries
// values.
func (s *Store) Publish(ctx context.Context, atom *hypergraph.Atom, atomKey string) error {
	fresh, err := codec.EncodeAtomValues(atom)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	obj, _, err := s.Registry.FetchCurrent(ctx, atom, atomKey, s.Ws, s.Client)
	if err != nil {
		return err
	}
	incoming, existing, err := codec.DecodeExtendedMeta(obj)
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(existing)+len(fresh))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fresh {
		merged[k] = v
	}

	next := codec.EncodeExtended(codec.StripMeta(obj), incoming, merged)
	newACID, err := s.Client.Put(ctx, next)
	if err != nil {
		return atomerr.Wrap(atomerr.CASFailure, "valuestore.Publish", err)
	}
	if _, err := s.Ws.Attach(ctx, atomKey, newACID); err != nil {
		return err
	}
	s.Registry.SetCachedObject(atom, next)
	s.Registry.SetACID(atom, newACID)
	metrics.ValueStoresTotal.Inc()
	metrics.ValuationStoresTotal.Add(float64(len(fresh)))
	return nil
}
