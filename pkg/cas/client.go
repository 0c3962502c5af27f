package cas

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
)

// Object is the untyped wire shape exchanged with the CAS — the same
// map[string]interface{} codec.WireObject is an alias for.
type Object = map[string]interface{}

// Link is one entry of an object's named link array (spec §6,
// "Workspace object format").
type Link struct {
	Name string
	Cid  cid.Cid
}

// Client is the CAS capability surface the rest of the backend is
// built against (spec §6, "CAS client capabilities required"). The
// client library's own transport, request framing, and retries are
// out of scope (spec §1); callers depend only on this interface.
type Client interface {
	// Put stores obj and returns its CID.
	Put(ctx context.Context, obj Object) (cid.Cid, error)

	// Get fetches the object published at id.
	Get(ctx context.Context, id cid.Cid) (Object, error)

	// GetPath resolves name against the link array of the object at
	// id and fetches the target. It returns atomerr.NotFound if no
	// link by that name exists.
	GetPath(ctx context.Context, id cid.Cid, name string) (Object, error)

	// PatchAddLink returns the CID of an object equal to the one at
	// base except that its link array has name bound to target,
	// replacing any existing link by that name. A zero-value base
	// (cid.Undef) patches against an empty object, for first use.
	PatchAddLink(ctx context.Context, base cid.Cid, name string, target cid.Cid) (cid.Cid, error)

	// PatchRemoveLink is the inverse of PatchAddLink. It returns
	// atomerr.NotFound if base's link array has no entry named name.
	PatchRemoveLink(ctx context.Context, base cid.Cid, name string) (cid.Cid, error)

	// Links returns the current named link array of the object at id.
	Links(ctx context.Context, id cid.Cid) ([]Link, error)

	// ResolveName resolves an MNS name to its most recently published
	// CID.
	ResolveName(ctx context.Context, name string) (cid.Cid, error)

	// PublishName binds name to target in the MNS, with the given
	// record lifetime and refresh ttl.
	PublishName(ctx context.Context, name string, target cid.Cid, lifetime, ttl time.Duration) error

	// Close releases any resources held by the client.
	Close() error
}

var _ Client = (*Store)(nil)
