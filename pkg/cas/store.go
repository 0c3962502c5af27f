package cas

import (
	"context"
	"fmt"

	"github.com/ipfs/boxo/blockstore"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	badger4 "github.com/ipfs/go-ds-badger4"
	cbornode "github.com/ipfs/go-ipld-cbor"
	mh "github.com/multiformats/go-multihash"

	"github.com/cuemby/atomcas/pkg/atomerr"
)

const (
	linksField    = "links"
	linkNameField = "name"
	linkCidField  = "cid"
)

// Store is the concrete, local, daemon-free Client implementation
// described in doc.go: a badger4-backed blockstore for content
// addressing plus a namespaced datastore region standing in for the
// MNS.
type Store struct {
	bs  blockstore.Blockstore
	mns ds.Datastore
	raw *badger4.Datastore
}

// Open opens (creating if absent) a Store rooted at dir.
func Open(dir string) (*Store, error) {
	d, err := badger4.NewDatastore(dir, nil)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.CASFailure, "cas.Open", err)
	}
	return &Store{
		bs:  blockstore.NewBlockstore(d),
		mns: namespace.Wrap(d, ds.NewKey("/mns")),
		raw: d,
	}, nil
}

func (s *Store) Close() error {
	return atomerr.Wrap(atomerr.CASFailure, "cas.Close", s.raw.Close())
}

func encodeBlock(obj Object) (blocks.Block, error) {
	node, err := cbornode.WrapObject(obj, mh.SHA2_256, -1)
	if err != nil {
		return nil, atomerr.Wrap(atomerr.BadEncoding, "cas.encode", err)
	}
	return blocks.NewBlockWithCid(node.RawData(), node.Cid())
}

func decodeBlock(b blocks.Block) (Object, error) {
	var obj Object
	if err := cbornode.DecodeInto(b.RawData(), &obj); err != nil {
		return nil, atomerr.Wrap(atomerr.BadEncoding, "cas.decode", err)
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, obj Object) (cid.Cid, error) {
	block, err := encodeBlock(obj)
	if err != nil {
		return cid.Undef, err
	}
	if err := s.bs.Put(ctx, block); err != nil {
		return cid.Undef, atomerr.Wrap(atomerr.CASFailure, "cas.Put", err)
	}
	return block.Cid(), nil
}

func (s *Store) Get(ctx context.Context, id cid.Cid) (Object, error) {
	block, err := s.bs.Get(ctx, id)
	if err != nil {
		if err == blockstore.ErrNotFound {
			return nil, atomerr.New(atomerr.NotFound, "cas.Get", err)
		}
		return nil, atomerr.Wrap(atomerr.CASFailure, "cas.Get", err)
	}
	return decodeBlock(block)
}

// linksOf reads the named link array out of a workspace-shaped object.
func linksOf(obj Object) ([]Link, error) {
	raw, ok := obj[linksField]
	if !ok {
		return nil, nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil, atomerr.New(atomerr.BadEncoding, "cas.linksOf", fmt.Errorf("links field is not a list"))
	}
	out := make([]Link, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, atomerr.New(atomerr.BadEncoding, "cas.linksOf", fmt.Errorf("link entry is not an object"))
		}
		name, _ := m[linkNameField].(string)
		cidStr, _ := m[linkCidField].(string)
		c, err := cid.Decode(cidStr)
		if err != nil {
			return nil, atomerr.Wrap(atomerr.BadEncoding, "cas.linksOf", err)
		}
		out = append(out, Link{Name: name, Cid: c})
	}
	return out, nil
}

func objectOfLinks(links []Link) Object {
	entries := make([]interface{}, len(links))
	for i, l := range links {
		entries[i] = map[string]interface{}{
			linkNameField: l.Name,
			linkCidField:  l.Cid.String(),
		}
	}
	return Object{linksField: entries}
}

func (s *Store) Links(ctx context.Context, id cid.Cid) ([]Link, error) {
	if !id.Defined() {
		return nil, nil
	}
	obj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return linksOf(obj)
}

func (s *Store) GetPath(ctx context.Context, id cid.Cid, name string) (Object, error) {
	links, err := s.Links(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Name == name {
			return s.Get(ctx, l.Cid)
		}
	}
	return nil, atomerr.New(atomerr.NotFound, "cas.GetPath", fmt.Errorf("no link named %q", name))
}

func (s *Store) PatchAddLink(ctx context.Context, base cid.Cid, name string, target cid.Cid) (cid.Cid, error) {
	links, err := s.Links(ctx, base)
	if err != nil {
		return cid.Undef, err
	}
	replaced := false
	for i, l := range links {
		if l.Name == name {
			links[i].Cid = target
			replaced = true
			break
		}
	}
	if !replaced {
		links = append(links, Link{Name: name, Cid: target})
	}
	return s.Put(ctx, objectOfLinks(links))
}

func (s *Store) PatchRemoveLink(ctx context.Context, base cid.Cid, name string) (cid.Cid, error) {
	links, err := s.Links(ctx, base)
	if err != nil {
		return cid.Undef, err
	}
	out := links[:0:0]
	found := false
	for _, l := range links {
		if l.Name == name {
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		return cid.Undef, atomerr.New(atomerr.NotFound, "cas.PatchRemoveLink", fmt.Errorf("no link named %q", name))
	}
	return s.Put(ctx, objectOfLinks(out))
}
