package identity

import (
	"fmt"

	"github.com/ipfs/go-cid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/atomcas/pkg/atomerr"
)

var bucketGUIDs = []byte("guids")

// WarmStore is an optional local persistence layer for the identity
// registry's atom->GUID relation, letting a backend skip republishing
// minimal atom objects it has already seen on a previous run (GUIDs
// never change once assigned, spec §3 invariant 1, so this cache can
// never go stale). It is keyed by the atom's canonical textual key
// rather than by pointer, since pointer identity does not survive a
// process restart. Grounded on the bucket-per-collection bbolt usage
// the teacher's storage layer used for its own entities.
type WarmStore struct {
	db *bolt.DB
}

// OpenWarmStore opens (creating if absent) a bbolt-backed warm store
// at path.
func OpenWarmStore(path string) (*WarmStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.CASFailure, "identity.OpenWarmStore", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketGUIDs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, atomerr.Wrap(atomerr.CASFailure, "identity.OpenWarmStore", err)
	}
	return &WarmStore{db: db}, nil
}

func (w *WarmStore) Close() error {
	return atomerr.Wrap(atomerr.CASFailure, "identity.WarmStore.Close", w.db.Close())
}

// SaveGUID persists the (textual key -> GUID) relation for the given
// atom.
func (w *WarmStore) SaveGUID(textualKey string, guid cid.Cid) error {
	err := w.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGUIDs).Put([]byte(textualKey), []byte(guid.String()))
	})
	return atomerr.Wrap(atomerr.CASFailure, "identity.SaveGUID", err)
}

// LoadGUID returns the previously persisted GUID for textualKey, if
// any.
func (w *WarmStore) LoadGUID(textualKey string) (cid.Cid, bool, error) {
	var raw []byte
	err := w.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketGUIDs).Get([]byte(textualKey))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return cid.Undef, false, atomerr.Wrap(atomerr.CASFailure, "identity.LoadGUID", err)
	}
	if raw == nil {
		return cid.Undef, false, nil
	}
	c, err := cid.Decode(string(raw))
	if err != nil {
		return cid.Undef, false, atomerr.Wrap(atomerr.BadEncoding, "identity.LoadGUID", err)
	}
	return c, true, nil
}

// LoadAll returns every persisted textual-key -> GUID pair, for
// populating a fresh in-process Registry on warm start.
func (w *WarmStore) LoadAll() (map[string]cid.Cid, error) {
	out := make(map[string]cid.Cid)
	err := w.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGUIDs).ForEach(func(k, v []byte) error {
			c, err := cid.Decode(string(v))
			if err != nil {
				return fmt.Errorf("identity.LoadAll: decoding GUID for %q: %w", k, err)
			}
			out[string(k)] = c
			return nil
		})
	})
	if err != nil {
		return nil, atomerr.Wrap(atomerr.BadEncoding, "identity.LoadAll", err)
	}
	return out, nil
}
