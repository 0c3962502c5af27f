// Package mnspublisher implements the background MNS publisher of
// spec §4.11: a single worker, woken on demand rather than polling,
// that republishes the current workspace root under a configured
// stable name.
//
// Grounded on the teacher's pkg/reconciler background-goroutine
// pattern (component logger, stop channel), with the ticker replaced
// by a single-slot wake channel — the Go idiom standing in for the
// condition variable spec §4.11 describes, since publish_atomspace()
// wakes the worker on demand rather than on a fixed interval.
package mnspublisher
