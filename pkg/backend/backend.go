package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/atomstore"
	"github.com/cuemby/atomcas/pkg/cas"
	"github.com/cuemby/atomcas/pkg/codec"
	"github.com/cuemby/atomcas/pkg/config"
	"github.com/cuemby/atomcas/pkg/events"
	"github.com/cuemby/atomcas/pkg/hypergraph"
	"github.com/cuemby/atomcas/pkg/identity"
	"github.com/cuemby/atomcas/pkg/incoming"
	"github.com/cuemby/atomcas/pkg/load"
	"github.com/cuemby/atomcas/pkg/log"
	"github.com/cuemby/atomcas/pkg/mnspublisher"
	"github.com/cuemby/atomcas/pkg/pool"
	"github.com/cuemby/atomcas/pkg/remove"
	"github.com/cuemby/atomcas/pkg/valuestore"
	"github.com/cuemby/atomcas/pkg/workspace"
	"github.com/cuemby/atomcas/pkg/writeback"
)

// Backend is the top-level handle spec §6's Public API hangs off of.
// One Backend owns exactly one embedded CAS store, one workspace root,
// and (when opened writable) one MNS publisher. Build with Open.
type Backend struct {
	uri  parsedURI
	name string

	client cas.Client
	ws     *workspace.Manager
	types  *hypergraph.TypeRegistry

	registry *identity.Registry
	warm     *identity.WarmStore

	pool      *pool.Pool
	queue     *writeback.Queue
	incoming  *incoming.Index
	values    *valuestore.Store
	store     *atomstore.Store
	loader    *load.Loader
	remover   *remove.Remover
	publisher *mnspublisher.Publisher

	stats  *statsBaseline
	events *events.Broker

	mu     sync.Mutex
	closed bool
}

// Open opens the backend named by uriStr (spec §1's backend URI).
// types supplies the atom type vocabulary the hypergraph library
// collaborator maintains; atomcas neither defines nor registers types
// itself.
func Open(ctx context.Context, uriStr string, cfg config.Config, types *hypergraph.TypeRegistry) (*Backend, error) {
	u, err := parseBackendURI(uriStr)
	if err != nil {
		return nil, err
	}

	client, err := cas.Open(cfg.DataDir)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.CASFailure, "backend.Open", err)
	}

	root, name, err := resolveInitialRoot(ctx, client, u)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	ws := workspace.New(client, root)
	registry := identity.New()

	var warm *identity.WarmStore
	if cfg.WarmStorePath != "" {
		warm, err = identity.OpenWarmStore(cfg.WarmStorePath)
		if err != nil {
			_ = client.Close()
			return nil, atomerr.Wrap(atomerr.CASFailure, "backend.Open", err)
		}
	}

	poolSize := cfg.WriteBack.PoolSize
	if poolSize <= 0 {
		poolSize = config.DefaultPoolSize
	}
	conns := make([]cas.Client, poolSize)
	for i := range conns {
		conns[i] = sharedConn{client}
	}
	connPool := pool.New(conns)

	queue := writeback.New(registry, ws, connPool, cfg.WriteBack.Workers)
	queue.SetWarm(warm)
	queue.SetWatermarks(cfg.WriteBack.HighWatermark, cfg.WriteBack.LowWatermark)
	queue.Stall(cfg.WriteBack.Stall)

	incomingIx := &incoming.Index{Registry: registry, Ws: ws, Client: client}
	values := &valuestore.Store{Registry: registry, Ws: ws, Client: client}
	store := &atomstore.Store{
		Registry: registry,
		Ws:       ws,
		Client:   client,
		Incoming: incomingIx,
		Values:   values,
		Warm:     warm,
	}
	loader := &load.Loader{Registry: registry, Ws: ws, Client: client, Types: types}
	remover := &remove.Remover{
		Registry: registry,
		Ws:       ws,
		Client:   client,
		Incoming: incomingIx,
		Queue:    queue,
		Fetcher:  loader,
	}

	var publisher *mnspublisher.Publisher
	if !u.readOnly() && name != "" {
		publisher = mnspublisher.New(client, ws, name, cfg.MNS.LifetimeDuration(), cfg.MNS.TTLDuration())
		publisher.Start()
	}

	broker := events.NewBroker(cfg.Events.BufferSize, cfg.Events.SubscriberBufferSize)
	broker.Start()

	b := &Backend{
		uri:       u,
		name:      name,
		client:    client,
		ws:        ws,
		types:     types,
		registry:  registry,
		warm:      warm,
		pool:      connPool,
		queue:     queue,
		incoming:  incomingIx,
		values:    values,
		store:     store,
		loader:    loader,
		remover:   remover,
		publisher: publisher,
		stats:     newStatsBaseline(),
		events:    broker,
	}
	b.stats.clear()

	log.WithComponent("backend").Info().
		Str("uri", uriStr).
		Str("wcid", root.String()).
		Bool("read_only", u.readOnly()).
		Msg("backend opened")

	return b, nil
}

// resolveInitialRoot derives the workspace root and stable name (if
// any) a freshly opened backend should start from.
func resolveInitialRoot(ctx context.Context, client cas.Client, u parsedURI) (cid.Cid, string, error) {
	switch u.kind {
	case kindCAS:
		id, err := cid.Decode(u.value)
		if err != nil {
			return cid.Undef, "", atomerr.Wrap(atomerr.BadURI, "backend.resolveInitialRoot", err)
		}
		return id, "", nil

	case kindMNS:
		root, err := client.ResolveName(ctx, u.value)
		if err != nil {
			return cid.Undef, "", err
		}
		return root, u.value, nil

	default: // kindWorkspaceKey: the workspace key doubles as its own MNS name.
		root, err := client.ResolveName(ctx, u.value)
		if err != nil {
			if atomerr.KindOf(err) == atomerr.NotFound {
				return cid.Undef, u.value, nil
			}
			return cid.Undef, "", err
		}
		return root, u.value, nil
	}
}

// gate runs the rethrow gate (spec §7): any exception captured by the
// write-back queue's single-slot exception register is surfaced to
// the very next public call, once, before that call does anything
// else.
func (b *Backend) gate() error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return errBackendClosed
	}
	return b.queue.TakeError()
}

// StoreAtom publishes atom (spec §4.1 "store_atom"). When synchronous
// is false the call returns as soon as atom is enqueued on the
// write-back queue; when true it runs do_store on the caller's own
// goroutine and only returns once atom is durable.
func (b *Backend) StoreAtom(ctx context.Context, atom *hypergraph.Atom, synchronous bool) error {
	if err := b.gate(); err != nil {
		return err
	}
	if synchronous {
		if err := b.store.DoStore(ctx, atom); err != nil {
			return err
		}
		b.publishAtomEvent(events.EventAtomStored, atom)
		return nil
	}
	return b.queue.Insert(ctx, atom)
}

// publishAtomEvent notifies subscribers of an atom-scoped event,
// attaching the atom's GUID when the registry already has one.
func (b *Backend) publishAtomEvent(typ events.EventType, atom *hypergraph.Atom) {
	guid, _ := b.registry.GUID(atom)
	b.events.Publish(&events.Event{
		Type: typ,
		GUID: guid.String(),
		WCID: b.ws.Current().String(),
	})
}

// FetchAtom resolves atom's current stored state by its structural
// key (spec §4.7 "fetch").
func (b *Backend) FetchAtom(ctx context.Context, atom *hypergraph.Atom) (*hypergraph.Atom, error) {
	if err := b.gate(); err != nil {
		return nil, err
	}
	return b.loader.FetchByPath(ctx, atom)
}

// FetchAtomByID resolves the atom published at guid (spec §4.7
// "fetch_by_guid").
func (b *Backend) FetchAtomByID(ctx context.Context, guid string) (*hypergraph.Atom, error) {
	if err := b.gate(); err != nil {
		return nil, err
	}
	id, err := cid.Decode(guid)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.BadURI, "backend.FetchAtomByID", err)
	}
	return b.loader.FetchByGUID(ctx, id)
}

// LoadWorkspace materializes every atom reachable from rootSpec (spec
// §4.7 "load"), rootSpec being "/cas/<cid>", "/mns/<name>" or a bare
// CID, as parsed by load.ParseRootSpec; any other form fails with
// BadURI.
func (b *Backend) LoadWorkspace(ctx context.Context, rootSpec string) ([]*hypergraph.Atom, error) {
	if err := b.gate(); err != nil {
		return nil, err
	}
	return b.loader.LoadWorkspace(ctx, rootSpec)
}

// GetWorkspaceCID returns the current WCID as a string.
func (b *Backend) GetWorkspaceCID() string {
	return b.ws.Current().String()
}

// GetWorkspaceName returns the stable MNS name this backend publishes
// under, or "" if it was opened against a bare CID and has none.
func (b *Backend) GetWorkspaceName() string {
	return b.name
}

// PublishWorkspace wakes the MNS publisher (spec §4.11
// "publish_atomspace"). Returns errReadOnlyWorkspace if the backend
// was opened without a publisher.
func (b *Backend) PublishWorkspace() error {
	if err := b.gate(); err != nil {
		return err
	}
	if b.publisher == nil {
		return errReadOnlyWorkspace
	}
	b.publisher.Wake()
	b.events.Publish(&events.Event{
		Type:    events.EventWorkspacePublished,
		WCID:    b.ws.Current().String(),
		Message: fmt.Sprintf("publish requested for %q", b.name),
	})
	return nil
}

// ResolveWorkspace re-resolves the stable MNS name and adopts whatever
// WCID it currently points at, discarding any local unpublished state
// (spec §4.11's counterpart read path).
func (b *Backend) ResolveWorkspace(ctx context.Context) error {
	if err := b.gate(); err != nil {
		return err
	}
	if b.name == "" {
		return errEmptyWorkspaceName
	}
	root, err := b.client.ResolveName(ctx, b.name)
	if err != nil {
		return err
	}
	b.ws.SetCurrent(root)
	return nil
}

// RemoveAtom deletes atom from the workspace (spec §4.9 "remove"),
// recursing into its incoming referents first when recursive is true.
func (b *Backend) RemoveAtom(ctx context.Context, atom *hypergraph.Atom, recursive bool) (bool, error) {
	if err := b.gate(); err != nil {
		return false, err
	}
	guid, _ := b.registry.GUID(atom)
	removed, err := b.remover.Remove(ctx, atom, recursive)
	if err == nil && removed {
		b.events.Publish(&events.Event{
			Type: events.EventAtomRemoved,
			GUID: guid.String(),
			WCID: b.ws.Current().String(),
		})
	}
	return removed, err
}

// GetIncomingSet returns every atom with atom in its outgoing set
// (spec §4.8 "get_incoming_set").
func (b *Backend) GetIncomingSet(ctx context.Context, atom *hypergraph.Atom) ([]*hypergraph.Atom, error) {
	if err := b.gate(); err != nil {
		return nil, err
	}
	key, err := codec.TextualKey(atom)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.BadEncoding, "backend.GetIncomingSet", err)
	}
	return b.incoming.Query(ctx, atom, key, nil, b.loader)
}

// GetIncomingByType is GetIncomingSet filtered to atoms of typeName
// (spec §4.8 "get_incoming_by_type").
func (b *Backend) GetIncomingByType(ctx context.Context, atom *hypergraph.Atom, typeName string) ([]*hypergraph.Atom, error) {
	if err := b.gate(); err != nil {
		return nil, err
	}
	t, ok := b.types.Lookup(typeName)
	if !ok {
		return nil, atomerr.New(atomerr.NotFound, "backend.GetIncomingByType", fmt.Errorf("unknown atom type %q", typeName))
	}
	key, err := codec.TextualKey(atom)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.BadEncoding, "backend.GetIncomingByType", err)
	}
	return b.incoming.Query(ctx, atom, key, t, b.loader)
}

// Barrier blocks until every write-back item enqueued before this call
// has drained (spec §4.10 "barrier"). Per the queue's own caveat, a
// single barrier can still race one very last in-flight insert, so
// this runs the wait twice before surfacing whatever the gate
// observed.
func (b *Backend) Barrier(ctx context.Context) error {
	if err := b.gate(); err != nil {
		return err
	}
	if err := b.queue.Barrier(ctx); err != nil {
		return err
	}
	if err := b.queue.Barrier(ctx); err != nil {
		return err
	}
	return b.gate()
}

// Flush is Barrier, named for callers that think in terms of
// durability rather than queue draining.
func (b *Backend) Flush(ctx context.Context) error {
	return b.Barrier(ctx)
}

// SetWatermarks adjusts the write-back queue's stall thresholds (spec
// §4.10 "set_watermarks").
func (b *Backend) SetWatermarks(hi, lo int) {
	b.queue.SetWatermarks(hi, lo)
}

// StallWriters toggles whether Insert blocks callers once the queue
// reaches its high watermark (spec §4.10 "stall").
func (b *Backend) StallWriters(enabled bool) {
	b.queue.Stall(enabled)
	typ := events.EventWriteQueueResumed
	if enabled {
		typ = events.EventWriteQueueStalled
	}
	b.events.Publish(&events.Event{Type: typ})
}

// Subscribe returns a channel of backend activity notifications (atom
// stores, removals, workspace publications, write-back stall/resume).
// The caller must eventually pass the returned channel to Unsubscribe;
// a subscriber that falls behind has events dropped rather than
// blocking the publisher.
func (b *Backend) Subscribe() events.Subscriber {
	return b.events.Subscribe()
}

// Unsubscribe stops delivery to sub and closes it.
func (b *Backend) Unsubscribe(sub events.Subscriber) {
	b.events.Unsubscribe(sub)
}

// KillData resets the workspace to a single empty root, discarding
// every atom's attachment (spec §6, "reset the workspace to a single
// empty object; documented as destructive"). Callers are expected to
// have their own confirmation gate; this backend applies no further
// one.
func (b *Backend) KillData(ctx context.Context) error {
	if err := b.gate(); err != nil {
		return err
	}
	if err := b.queue.Barrier(ctx); err != nil {
		return err
	}
	b.ws.SetCurrent(cid.Undef)
	b.registry.Clear()
	log.WithComponent("backend").Warn().Str("wcid", b.GetWorkspaceCID()).Msg("workspace reset to empty root")
	return nil
}

// Close stops the MNS publisher and write-back queue, drains the
// connection pool, and closes the underlying store exactly once. Safe
// to call only once; a second call returns errBackendClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBackendClosed
	}
	b.closed = true
	b.mu.Unlock()

	if b.publisher != nil {
		b.publisher.Stop()
	}
	b.queue.Close()
	b.events.Stop()

	var firstErr error
	if err := b.pool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if b.warm != nil {
		if err := b.warm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.client.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
