package writeback

import (
	"context"
	"sync"

	"github.com/cuemby/atomcas/pkg/atomstore"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/incoming"
	"github.com/cuemby/atomcas/pkg/log"
	"github.com/cuemby/atomcas/pkg/metrics"
	"github.com/cuemby/atomcas/pkg/pool"
	"github.com/cuemby/atomcas/pkg/valuestore"
	"github.com/cuemby/atomcas/pkg/workspace"
)

// DefaultWorkers is the compile-time worker count spec §4.10 calls
// for ("e.g. six").
const DefaultWorkers = 6

// Queue is the bounded, deduplicating write-back buffer of spec
// §4.10. Atoms accepted by Insert are eventually handed to one of a
// fixed set of workers, each of which runs do_store inside a
// catch-all and checks out its own connection from pool for the
// duration of the body.
type Queue struct {
	registry *identity.Registry
	ws       *workspace.Manager
	pool     *pool.Pool
	warm     *identity.WarmStore

	mu       sync.Mutex
	cond     *sync.Cond
	pending  map[*hypergraph.Atom]struct{}
	order    []*hypergraph.Atom
	closed   bool
	busy     int
	inserted uint64
	done     uint64
	dedup    uint64

	hi, lo int
	stall  bool

	errMu sync.Mutex
	err   error

	wg sync.WaitGroup
}

// New starts a Queue with the given worker count, backed by p for
// each worker's per-body connection (spec §5, "Each worker holds one
// connection for the duration of its body"). registry and ws are
// shared across all workers, matching pkg/identity's and
// pkg/workspace's own internal locking.
func New(registry *identity.Registry, ws *workspace.Manager, p *pool.Pool, workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	q := &Queue{
		registry: registry,
		ws:       ws,
		pool:     p,
		pending:  make(map[*hypergraph.Atom]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.runWorker()
	}
	return q
}

// Insert enqueues atom for asynchronous do_store (spec §4.10
// "insert"). A repeat insert of an atom already pending collapses
// into the existing entry and counts as a deduplication. When stall is
// enabled and the queue is at or above the high watermark, Insert
// blocks the caller until the queue has drained below the low
// watermark or ctx is done.
func (q *Queue) Insert(ctx context.Context, atom *hypergraph.Atom) error {
	stop := context.AfterFunc(ctx, q.cond.Broadcast)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stall && len(q.order) >= q.hi {
		for q.stall && len(q.order) >= q.lo {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.cond.Wait()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.closed {
		return errQueueClosed
	}

	if _, ok := q.pending[atom]; ok {
		q.dedup++
		metrics.WriteBackDuplicatesTotal.Inc()
		return nil
	}
	q.pending[atom] = struct{}{}
	q.order = append(q.order, atom)
	q.inserted++
	metrics.WriteBackQueueDepth.Set(float64(len(q.order)))
	q.cond.Broadcast()
	return nil
}

// Barrier blocks until every item inserted before the call has been
// handed to a worker and every currently-running worker body has
// completed (spec §4.10 "barrier"). As documented there, a very last
// item may still be mid-flight at return in a narrow race; callers
// requiring strict durability should call Barrier twice.
func (q *Queue) Barrier(ctx context.Context) error {
	stop := context.AfterFunc(ctx, q.cond.Broadcast)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	target := q.inserted
	for q.done < target || q.busy > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.cond.Wait()
	}
	return nil
}

// SetWatermarks configures the high/low thresholds Stall uses.
func (q *Queue) SetWatermarks(hi, lo int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.hi, q.lo = hi, lo
}

// Stall enables or disables watermark-based backpressure on Insert.
func (q *Queue) Stall(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stall = enabled
	q.cond.Broadcast()
}

// ClearStats resets the insert/dedup/completion counters.
func (q *Queue) ClearStats() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inserted, q.done, q.dedup = 0, 0, 0
}

// GetSize returns the number of items currently queued, not counting
// items a worker has already taken.
func (q *Queue) GetSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// GetBusyWriters returns the number of workers currently executing a
// do_store body.
func (q *Queue) GetBusyWriters() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

// TakeError returns and clears the single-slot exception register
// (spec §4.10: "any exception is captured into a single-slot exception
// register on the backend"). Called by the rethrow gate (pkg/backend).
func (q *Queue) TakeError() error {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	err := q.err
	q.err = nil
	return err
}

// SetWarm installs the warm-start GUID cache each worker's do_store
// call should consult. Must be called before the first Insert; not
// safe to change concurrently with running workers.
func (q *Queue) SetWarm(w *identity.WarmStore) {
	q.warm = w
}

// Close stops accepting new items and waits for every worker to drain
// its remaining queue and exit.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) runWorker() {
	defer q.wg.Done()
	for {
		atom, ok := q.take()
		if !ok {
			return
		}
		q.process(atom)
	}
}

func (q *Queue) take() (*hypergraph.Atom, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.order) == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}
	atom := q.order[0]
	q.order = q.order[1:]
	delete(q.pending, atom)
	q.busy++
	metrics.WriteBackQueueDepth.Set(float64(len(q.order)))
	return atom, true
}

func (q *Queue) process(atom *hypergraph.Atom) {
	timer := metrics.NewTimer()
	ctx := context.Background()

	err := q.pool.With(ctx, func(c cas.Client) error {
		store := &atomstore.Store{
			Registry: q.registry,
			Ws:       q.ws,
			Client:   c,
			Incoming: &incoming.Index{Registry: q.registry, Ws: q.ws, Client: c},
			Values:   &valuestore.Store{Registry: q.registry, Ws: q.ws, Client: c},
			Warm:     q.warm,
		}
		return store.DoStore(ctx, atom)
	})
	timer.ObserveDuration(metrics.WriteBackDrainDuration)

	if err != nil {
		log.WithComponent("writeback").Error().Err(err).Msg("do_store failed inside write-back worker")
		q.errMu.Lock()
		if q.err == nil {
			q.err = err
		}
		q.errMu.Unlock()
	}

	q.mu.Lock()
	q.busy--
	q.done++
	q.cond.Broadcast()
	q.mu.Unlock()
}
