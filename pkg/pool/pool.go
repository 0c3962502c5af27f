package pool

import (
	"context"
	"sync"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
)

// Pool is a bounded LIFO stack of cas.Client handles. The zero value is
// not usable; construct with New.
type Pool struct {
	mu     sync.Mutex
	items  []cas.Client
	avail  chan struct{}
	closed bool
}

// New builds a pool seeded with conns. Per spec §4.1 its initial size
// should equal the number of I/O worker threads plus the number of
// write-back queues the caller configures.
func New(conns []cas.Client) *Pool {
	p := &Pool{
		items: append([]cas.Client(nil), conns...),
		avail: make(chan struct{}, len(conns)),
	}
	for range conns {
		p.avail <- struct{}{}
	}
	return p
}

// Take removes and returns one handle, blocking until one is
// available or ctx is done. Every caller of Take must eventually call
// Return on the same handle on every exit path — prefer With, which
// enforces that.
func (p *Pool) Take(ctx context.Context) (cas.Client, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, atomerr.New(atomerr.InvariantViolated, "pool.Take", errPoolClosed)
		}
		if n := len(p.items); n > 0 {
			c := p.items[n-1]
			p.items = p.items[:n-1]
			p.mu.Unlock()
			return c, nil
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.avail:
			// a handle may have been returned; loop and recheck.
		}
	}
}

// Return gives a handle back to the pool. It is the only legal way to
// dispose of a handle obtained from Take.
func (p *Pool) Return(c cas.Client) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = c.Close()
		return
	}
	defer p.mu.Unlock()
	p.items = append(p.items, c)
	select {
	case p.avail <- struct{}{}:
	default:
	}
}

// With is the scoped acquisition primitive spec §4.1 calls for: it
// takes a handle, invokes fn, and returns the handle unconditionally —
// including when fn panics or returns an error — so no caller can leak
// a connection on a failure path.
func (p *Pool) With(ctx context.Context, fn func(cas.Client) error) error {
	c, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Return(c)
	return fn(c)
}

// Close closes every handle currently held by the pool and marks it
// closed; handles checked out at the time of Close are closed when
// returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	items := p.items
	p.items = nil
	p.mu.Unlock()

	var firstErr error
	for _, c := range items {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size reports the number of handles currently idle in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
