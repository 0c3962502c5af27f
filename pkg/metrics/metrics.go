package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters mirror the statistics enumerated in the backend's stats table:
// loads, stores, valuation stores, value stores, atom removes, atom
// deletes, node fetches, link fetches, incoming-set fetches, incoming-set
// total members, queue depth, drain times, duplicate count.
var (
	LoadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_loads_total",
			Help: "Total number of top-level load operations (fetch by path, workspace load, load all)",
		},
	)

	StoresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_stores_total",
			Help: "Total number of atoms newly persisted by do_store (already-stored atoms are not counted)",
		},
	)

	ValuationStoresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_valuation_stores_total",
			Help: "Total number of individual key/value valuations published",
		},
	)

	ValueStoresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_value_stores_total",
			Help: "Total number of value-map republications of an atom",
		},
	)

	AtomRemovesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_atom_removes_total",
			Help: "Total number of top-level remove() calls",
		},
	)

	AtomDeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_atom_deletes_total",
			Help: "Total number of top-level remove() calls that removed their atom, counted once however many atoms the recursion detached",
		},
	)

	NodeFetchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_node_fetches_total",
			Help: "Total number of node atoms decoded during fetch",
		},
	)

	LinkFetchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_link_fetches_total",
			Help: "Total number of link atoms decoded during fetch",
		},
	)

	IncomingSetFetchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_incoming_set_fetches_total",
			Help: "Total number of incoming-set queries",
		},
	)

	IncomingSetMembersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_incoming_set_members_total",
			Help: "Total number of atoms returned across all incoming-set queries",
		},
	)

	WriteBackQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atomcas_writeback_queue_depth",
			Help: "Current number of pending entries in the write-back queue",
		},
	)

	WriteBackDuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomcas_writeback_duplicates_total",
			Help: "Total number of inserts that collapsed into an already-pending entry",
		},
	)

	WriteBackDrainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atomcas_writeback_drain_duration_seconds",
			Help:    "Time taken for a write-back worker to drain one queued atom",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkspaceAttachDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atomcas_workspace_attach_duration_seconds",
			Help:    "Time taken to apply one workspace root patch (attach or detach)",
			Buckets: prometheus.DefBuckets,
		},
	)

	MNSPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomcas_mns_publish_total",
			Help: "Total number of MNS publish attempts by outcome",
		},
		[]string{"outcome"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomcas_events_published_total",
			Help: "Total number of activity-broker events published, by event type",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomcas_events_dropped_total",
			Help: "Total number of activity-broker events dropped because a subscriber's buffer was full, by event type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		LoadsTotal,
		StoresTotal,
		ValuationStoresTotal,
		ValueStoresTotal,
		AtomRemovesTotal,
		AtomDeletesTotal,
		NodeFetchesTotal,
		LinkFetchesTotal,
		IncomingSetFetchesTotal,
		IncomingSetMembersTotal,
		WriteBackQueueDepth,
		WriteBackDuplicatesTotal,
		WriteBackDrainDuration,
		WorkspaceAttachDuration,
		MNSPublishTotal,
		EventsPublishedTotal,
		EventsDroppedTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
