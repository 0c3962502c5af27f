package workspace

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
)

// Manager owns the current workspace CID and serializes every patch
// that produces the next one.
type Manager struct {
	client cas.Client

	mu   sync.Mutex
	wcid cid.Cid
}

// New builds a Manager rooted at initial, which may be cid.Undef for a
// brand-new, empty workspace.
func New(client cas.Client, initial cid.Cid) *Manager {
	return &Manager{client: client, wcid: initial}
}

// Current returns the workspace's current CID.
func (m *Manager) Current() cid.Cid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wcid
}

// SetCurrent forcibly replaces the current WCID — used when opening
// an existing workspace or resolving through the MNS, and by
// kill_data's destructive reset (spec §6).
func (m *Manager) SetCurrent(c cid.Cid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wcid = c
}

// Attach applies an add-link patch binding key (a canonical textual
// atom key) to acid, and installs the resulting WCID. The root lock is
// held across the CAS call (spec §4.4): concurrent attach/detach calls
// are totally ordered, at the cost of serializing all workspace
// mutations.
func (m *Manager) Attach(ctx context.Context, key string, acid cid.Cid) (cid.Cid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.client.PatchAddLink(ctx, m.wcid, key, acid)
	if err != nil {
		return cid.Undef, atomerr.Wrap(atomerr.CASFailure, "workspace.Attach", err)
	}
	m.wcid = next
	return next, nil
}

// Detach applies a remove-link patch for key. If the workspace has no
// link by that name, the WCID is left unchanged and the call fails
// with NotFound (spec §4.4).
func (m *Manager) Detach(ctx context.Context, key string) (cid.Cid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.client.PatchRemoveLink(ctx, m.wcid, key)
	if err != nil {
		return cid.Undef, err
	}
	m.wcid = next
	return next, nil
}
