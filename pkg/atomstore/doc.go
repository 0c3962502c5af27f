// Package atomstore implements do_store (spec §4.5): the recursive
// writer body that assigns an atom its GUID on first sight, publishes
// its minimal object, attaches it to the workspace, and updates the
// incoming sets of its children.
//
// Grounded on
// original_source/opencog/persist/ipfs/IPFSAtomStorage.cc's
// storeAtom/do_store recursion and its identity-registry-lock
// discipline.
package atomstore
