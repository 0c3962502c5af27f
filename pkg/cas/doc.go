/*
Package cas defines the narrow content-addressed-store contract the rest
of the backend is built against, and ships one concrete, dependency-light
implementation of it.

The CAS client library itself — request framing, transport, retries of
individual daemon calls — is explicitly out of scope for this backend
(spec §1): a production deployment is expected to inject a Client backed
by a real Kubo RPC connection. What ships here, Store, is a complete,
self-contained implementation built on the same content-addressing
primitives a live daemon provides, using the off-the-shelf IPFS ecosystem
blockstore machinery (github.com/ipfs/boxo's blockstore over a
github.com/ipfs/go-ds-badger4 datastore) rather than hand-rolled HTTP —
so the rest of the module, and its tests, have something real to run
against without a live daemon.

DAG objects are encoded with github.com/ipfs/go-ipld-cbor (canonical
DAG-CBOR), addressed by github.com/ipfs/go-cid CIDs — exactly as pkg/codec
expects. The "mutable-name system" (MNS) — spec's term for IPFS's IPNS —
is stood in locally as a namespaced datastore key holding the latest CID
published under a name. spec §1 already documents the MNS as slow and
lossy best-effort; a real deployment swaps this stand-in for IPNS/libp2p
without changing the Client interface.
*/
package cas
