// Package workspace implements the workspace root manager (spec
// §4.4): the single owner of the current WCID and the serial right to
// patch it. Every attach/detach call holds one mutex across its CAS
// patch call, because the next WCID depends on the current one —
// spec §5 names this the system's intentional throughput bottleneck.
package workspace
