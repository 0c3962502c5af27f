// Package codec implements the canonical encodings between hypergraph
// atoms/values and the wire objects the CAS stores (spec §4.2): the
// minimal atom object (whose CID is the GUID), the extended atom object
// (whose CID is the ACID), and the textual forms used both as the
// workspace's link names and as value-map keys.
//
// Wire objects are plain map[string]interface{} — the same shape
// github.com/ipfs/go-ipld-cbor walks directly when wrapping a DAG-CBOR
// block — rather than typed structs, mirroring the original
// implementation's use of an untyped JSON object for the same purpose.
package codec
