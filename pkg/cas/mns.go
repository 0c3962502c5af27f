package cas

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"

	"github.com/cuemby/atomcas/pkg/atomerr"
)

// mnsRecord is the value stored under a published name. lifetime/ttl
// are recorded for observability but, unlike real IPNS, are not
// enforced locally: this stand-in has no peer-to-peer distribution to
// race against, so a published record never expires on its own. spec
// §1 already documents the MNS as best-effort and potentially lossy;
// a production deployment swaps this file for a libp2p/IPNS-backed
// Client without touching any caller.
type mnsRecord struct {
	Cid      string    `json:"cid"`
	Lifetime string    `json:"lifetime"`
	Ttl      string    `json:"ttl"`
	Published time.Time `json:"published"`
}

func (s *Store) PublishName(ctx context.Context, name string, target cid.Cid, lifetime, ttl time.Duration) error {
	rec := mnsRecord{
		Cid:       target.String(),
		Lifetime:  lifetime.String(),
		Ttl:       ttl.String(),
		Published: time.Now(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return atomerr.Wrap(atomerr.CASFailure, "cas.PublishName", err)
	}
	if err := s.mns.Put(ctx, ds.NewKey(name), raw); err != nil {
		return atomerr.Wrap(atomerr.CASFailure, "cas.PublishName", err)
	}
	return nil
}

func (s *Store) ResolveName(ctx context.Context, name string) (cid.Cid, error) {
	raw, err := s.mns.Get(ctx, ds.NewKey(name))
	if err != nil {
		if err == ds.ErrNotFound {
			return cid.Undef, atomerr.New(atomerr.NotFound, "cas.ResolveName", err)
		}
		return cid.Undef, atomerr.Wrap(atomerr.CASFailure, "cas.ResolveName", err)
	}
	var rec mnsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return cid.Undef, atomerr.Wrap(atomerr.BadEncoding, "cas.ResolveName", err)
	}
	return cid.Decode(rec.Cid)
}
