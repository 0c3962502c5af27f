// Package valuestore implements publish_values (spec §4.6): merging an
// atom's current key/value annotations into its extended CAS object
// and republishing.
//
// Grounded on original_source/opencog/persist/ipfs/IPFSValues.cc,
// which performs the same merge-then-republish against the atom's
// cached JSON object before this transformation moved that object to
// DAG-CBOR (see pkg/cas, pkg/codec).
package valuestore
