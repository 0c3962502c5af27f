// Package metrics exposes the backend's lifetime counters as Prometheus
// instruments and a scrape handler. Counter names and meanings mirror the
// statistics table owned by pkg/backend. The counters are never reset:
// pkg/backend.ClearStats records a baseline that PrintStats subtracts.
package metrics
