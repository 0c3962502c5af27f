// Package writeback implements the write-back queue of spec §4.10: a
// bounded, deduplicating, multi-worker buffer of atoms awaiting
// do_store (pkg/atomstore).
//
// Grounded on the teacher's pkg/reconciler (a background goroutine
// loop with a logger and a stop channel), generalized here from one
// ticking reconciliation loop into a fixed pool of workers draining a
// shared queue, and on pkg/pool for the one-connection-per-worker-body
// discipline spec §5 calls for.
package writeback
