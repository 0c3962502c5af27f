// Package pool implements the bounded, thread-safe LIFO pool of CAS
// client handles spec §4.1 requires: sized to writer concurrency,
// blocking on an empty pool, and offering a scoped acquisition
// primitive so that no code path can take a connection and fail to
// return it.
package pool
