// Package backend wires pkg/pool, pkg/identity, pkg/workspace,
// pkg/codec, pkg/atomstore, pkg/valuestore, pkg/load, pkg/incoming,
// pkg/remove, pkg/writeback, and pkg/mnspublisher into the Public API
// spec §6 names, owns the backend URI parser, and runs the rethrow
// gate (spec §7) at the start of every public operation that returns
// an error, except Close (Flush runs it through Barrier).
// GetWorkspaceCID, GetWorkspaceName, SetWatermarks, StallWriters,
// Subscribe and Unsubscribe do not run the gate.
//
// Grounded on the teacher's pkg/manager, which plays the analogous
// role of a top-level struct composing a cluster's subsystems behind
// one small public surface.
package backend
