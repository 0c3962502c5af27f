package backend

import (
	"fmt"
	"io"
	"sync"

	dto "github.com/prometheus/client_model/go"

	"github.com/cuemby/atomcas/pkg/metrics"
)

// namedCounter pairs a label the printed table uses with the
// Prometheus counter it reads from.
type namedCounter struct {
	label   string
	counter interface{ Write(*dto.Metric) error }
}

func counters() []namedCounter {
	return []namedCounter{
		{"loads", metrics.LoadsTotal},
		{"stores", metrics.StoresTotal},
		{"valuation_stores", metrics.ValuationStoresTotal},
		{"value_stores", metrics.ValueStoresTotal},
		{"atom_removes", metrics.AtomRemovesTotal},
		{"atom_deletes", metrics.AtomDeletesTotal},
		{"node_fetches", metrics.NodeFetchesTotal},
		{"link_fetches", metrics.LinkFetchesTotal},
		{"incoming_set_fetches", metrics.IncomingSetFetchesTotal},
		{"incoming_set_members_total", metrics.IncomingSetMembersTotal},
		{"writeback_duplicates", metrics.WriteBackDuplicatesTotal},
	}
}

func readCounter(c interface{ Write(*dto.Metric) error }) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// statsBaseline holds the counter values observed at the last
// ClearStats call. Prometheus counters are monotonic and cannot be
// reset in place without breaking a live /metrics scrape, so
// PrintStats reports each counter relative to this baseline instead
// (spec.md §6, "Statistics ... one lifetime-reset point").
type statsBaseline struct {
	mu     sync.Mutex
	values map[string]float64
}

func newStatsBaseline() *statsBaseline {
	return &statsBaseline{values: make(map[string]float64)}
}

func (b *statsBaseline) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, nc := range counters() {
		b.values[nc.label] = readCounter(nc.counter)
	}
	b.values["queue_depth"] = 0
	b.values["writeback_drain_count"] = 0
}

func (b *statsBaseline) since(label string, current float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return current - b.values[label]
}

// PrintStats writes the statistics table of spec.md §6 to w, each
// counter shown relative to the last ClearStats call (or backend
// start, if ClearStats was never called).
func (b *Backend) PrintStats(w io.Writer) error {
	if err := b.gate(); err != nil {
		return err
	}
	for _, nc := range counters() {
		v := b.stats.since(nc.label, readCounter(nc.counter))
		if _, err := fmt.Fprintf(w, "%-28s %d\n", nc.label, int64(v)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%-28s %d\n", "queue_depth", b.queue.GetSize()); err != nil {
		return err
	}
	return nil
}

// ClearStats moves the statistics baseline to the counters' current
// values, so the next PrintStats reports only activity since this
// call (spec.md §6, "one lifetime-reset point"). The real Prometheus
// counters exposed at the metrics scrape endpoint are left untouched
// and keep counting from process start, as Prometheus counters must.
func (b *Backend) ClearStats() error {
	if err := b.gate(); err != nil {
		return err
	}
	b.stats.clear()
	b.queue.ClearStats()
	return nil
}
