package backend

import "github.com/cuemby/atomcas/pkg/cas"

// sharedConn lets one real cas.Client back every slot of pkg/pool's
// pool: the embedded local store has no per-connection socket state to
// bound, so the pool here exists purely for the scoped-acquisition and
// concurrency-accounting semantics pool.Pool provides, not N distinct
// OS-level connections. Close is a no-op on each slot; the real
// store's Close is called once, directly, by Backend.Close.
type sharedConn struct {
	cas.Client
}

func (sharedConn) Close() error { return nil }
