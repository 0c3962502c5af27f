package identity

import (
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/hypergraph"
)

// Registry is the identity registry of spec §4.3: four maps, each
// under its own mutex. All mutations are single-entry under the
// relevant lock; readers release the lock before performing any CAS
// I/O (spec §5).
type Registry struct {
	guidMu sync.RWMutex
	guid   map[*hypergraph.Atom]cid.Cid // atom -> GUID

	acidMu sync.RWMutex
	acid   map[*hypergraph.Atom]cid.Cid // atom -> current ACID

	objMu sync.RWMutex
	obj   map[*hypergraph.Atom]codec.WireObject // atom -> cached extended object

	byGUIDMu sync.RWMutex
	byGUID   map[cid.Cid]*hypergraph.Atom // GUID -> atom
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		guid:   make(map[*hypergraph.Atom]cid.Cid),
		acid:   make(map[*hypergraph.Atom]cid.Cid),
		obj:    make(map[*hypergraph.Atom]codec.WireObject),
		byGUID: make(map[cid.Cid]*hypergraph.Atom),
	}
}

// GUID returns a's GUID if known.
func (r *Registry) GUID(a *hypergraph.Atom) (cid.Cid, bool) {
	r.guidMu.RLock()
	defer r.guidMu.RUnlock()
	g, ok := r.guid[a]
	return g, ok
}

// SetGUID installs a's GUID. Spec §3 invariant 1: a GUID is assigned
// once and never replaced; callers are expected to check GUID first.
func (r *Registry) SetGUID(a *hypergraph.Atom, g cid.Cid) {
	r.guidMu.Lock()
	defer r.guidMu.Unlock()
	r.guid[a] = g
}

// ACID returns a's current ACID if known.
func (r *Registry) ACID(a *hypergraph.Atom) (cid.Cid, bool) {
	r.acidMu.RLock()
	defer r.acidMu.RUnlock()
	c, ok := r.acid[a]
	return c, ok
}

// SetACID installs a's current ACID, discarding any previous value —
// ACIDs change on every update (spec §3).
func (r *Registry) SetACID(a *hypergraph.Atom, c cid.Cid) {
	r.acidMu.Lock()
	defer r.acidMu.Unlock()
	r.acid[a] = c
}

// CachedObject returns a's cached extended object if known.
func (r *Registry) CachedObject(a *hypergraph.Atom) (codec.WireObject, bool) {
	r.objMu.RLock()
	defer r.objMu.RUnlock()
	o, ok := r.obj[a]
	return o, ok
}

// SetCachedObject installs a's cached extended object.
func (r *Registry) SetCachedObject(a *hypergraph.Atom, obj codec.WireObject) {
	r.objMu.Lock()
	defer r.objMu.Unlock()
	r.obj[a] = obj
}

// AtomByGUID returns the atom previously decoded for GUID g, if any.
func (r *Registry) AtomByGUID(g cid.Cid) (*hypergraph.Atom, bool) {
	r.byGUIDMu.RLock()
	defer r.byGUIDMu.RUnlock()
	a, ok := r.byGUID[g]
	return a, ok
}

// SetAtomByGUID installs the reverse GUID->atom mapping, populated
// after every decode (spec §4.7 step 4).
func (r *Registry) SetAtomByGUID(g cid.Cid, a *hypergraph.Atom) {
	r.byGUIDMu.Lock()
	defer r.byGUIDMu.Unlock()
	r.byGUID[g] = a
}

// Forget drops a from all four maps (spec §4.9 step 6, delete
// protocol). Each lock is acquired and released independently; at no
// point are two of the four locks held at once.
func (r *Registry) Forget(a *hypergraph.Atom) {
	r.guidMu.Lock()
	g, hadGUID := r.guid[a]
	delete(r.guid, a)
	r.guidMu.Unlock()

	r.acidMu.Lock()
	delete(r.acid, a)
	r.acidMu.Unlock()

	r.objMu.Lock()
	delete(r.obj, a)
	r.objMu.Unlock()

	if hadGUID {
		r.byGUIDMu.Lock()
		if r.byGUID[g] == a {
			delete(r.byGUID, g)
		}
		r.byGUIDMu.Unlock()
	}
}

// Clear empties all four maps in place, leaving every collaborator
// already holding a pointer to this Registry pointed at a fresh,
// empty one. Used by kill_data (spec §6), which resets the workspace
// root and must not leave any atom believing it still has a GUID in
// the discarded graph.
func (r *Registry) Clear() {
	r.guidMu.Lock()
	r.guid = make(map[*hypergraph.Atom]cid.Cid)
	r.guidMu.Unlock()

	r.acidMu.Lock()
	r.acid = make(map[*hypergraph.Atom]cid.Cid)
	r.acidMu.Unlock()

	r.objMu.Lock()
	r.obj = make(map[*hypergraph.Atom]codec.WireObject)
	r.objMu.Unlock()

	r.byGUIDMu.Lock()
	r.byGUID = make(map[cid.Cid]*hypergraph.Atom)
	r.byGUIDMu.Unlock()
}
