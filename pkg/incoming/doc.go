// Package incoming implements the incoming-set index (spec §4.8): for
// any atom present in the workspace, the set of GUIDs of atoms that
// contain it in their outgoing sequence, stored inside the atom's own
// extended object's "incoming" field. Grounded on
// original_source/opencog/persist/ipfs/IPFSIncoming.cc's
// store_incoming_of/remove_incoming_of/getIncomingSet/getIncomingByType.
package incoming
