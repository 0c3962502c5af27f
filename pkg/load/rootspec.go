package load

import (
	"context"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/cuemby/atomcas/pkg/atomerr"
	"github.com/cuemby/atomcas/pkg/cas"
)

// ParseRootSpec resolves a workspace root specification (spec §4.7,
// "load_workspace") to a CID: a raw CID string, a /cas/<cid> path, or
// a /mns/<name> path (resolved through the CAS client, which per spec
// §4.7 "may take tens of seconds" and is intentionally synchronous
// here).
func ParseRootSpec(ctx context.Context, client cas.Client, spec string) (cid.Cid, error) {
	switch {
	case strings.HasPrefix(spec, "/cas/"):
		return decodeCID(strings.TrimPrefix(spec, "/cas/"))
	case strings.HasPrefix(spec, "/mns/"):
		name := strings.TrimPrefix(spec, "/mns/")
		root, err := client.ResolveName(ctx, name)
		if err != nil {
			return cid.Undef, err
		}
		return root, nil
	default:
		return decodeCID(spec)
	}
}

func decodeCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, atomerr.Wrap(atomerr.BadURI, "load.ParseRootSpec", err)
	}
	return c, nil
}
