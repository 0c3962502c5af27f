// Package load implements atom load (spec §4.7): recursively
// materializing atoms from a GUID or from a workspace path, and
// loading an entire workspace from a raw CID, a /cas/<cid> path, or a
// /mns/<name> path. Grounded on
// original_source/opencog/persist/ipfs/IPFSAtomStore.cc's
// fetch_atom/get_atom family, generalized per SPEC_FULL.md §6 to fully
// round-trip values on load rather than leaving that path
// unimplemented.
package load
