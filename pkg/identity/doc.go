// Package identity implements the identity registry (spec §4.3): four
// independently-locked caches relating an in-memory atom to its GUID,
// its current ACID, its current cached extended object, and the
// reverse GUID→atom mapping. No single coarse lock guards all four —
// spec §5 forbids holding two registry locks at once, to keep the
// deadlock-avoidance argument trivial.
package identity
