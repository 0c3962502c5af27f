// Package remove implements the delete protocol of spec §4.9:
// fencing the write-back queue, recursively removing an atom's
// incoming referents before the atom itself, stripping the atom's
// GUID from its children's incoming sets, and detaching it from the
// workspace.
//
// Grounded on
// original_source/opencog/persist/ipfs/IPFSAtomStorage.cc's
// removeAtom, whose post-order recursion and incoming-set fan-out
// this package mirrors directly.
package remove
