package backend

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cuemby/atomcas/pkg/atomerr"
)

const (
	defaultHost = "localhost"
	defaultPort = "5001"
)

// uriKind discriminates the three backend URI shapes spec §6 names.
type uriKind int

const (
	kindWorkspaceKey uriKind = iota
	kindCAS
	kindMNS
)

// parsedURI is the decoded form of a backend URI:
//
//	cas://[host[:port]]/<workspace-key>
//	cas:///cas/<wcid>
//	cas:///mns/<name>
//
// Host and port are carried through for logging and future transport
// use; the current CAS client is an embedded local store and does not
// dial them (pkg/cas.Open takes a data directory instead).
type parsedURI struct {
	kind  uriKind
	host  string
	port  string
	value string // workspace key, raw CID string, or MNS name, per kind
}

// readOnly reports whether this URI opens a read-only workspace (spec
// §6: "An absent workspace-key indicates a read-only workspace; in
// that case the MNS publisher is not started.").
func (p parsedURI) readOnly() bool {
	return p.kind != kindWorkspaceKey
}

func parseBackendURI(raw string) (parsedURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return parsedURI{}, atomerr.Wrap(atomerr.BadURI, "backend.parseBackendURI", err)
	}
	if u.Scheme != "cas" {
		return parsedURI{}, atomerr.New(atomerr.BadURI, "backend.parseBackendURI",
			fmt.Errorf("unsupported scheme %q, want \"cas\"", u.Scheme))
	}

	host := defaultHost
	port := defaultPort
	if u.Host != "" {
		host = u.Hostname()
		if p := u.Port(); p != "" {
			port = p
		}
	}

	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return parsedURI{}, atomerr.New(atomerr.BadURI, "backend.parseBackendURI",
			fmt.Errorf("backend URI %q names no workspace, /cas/<cid>, or /mns/<name>", raw))
	}

	switch {
	case strings.HasPrefix(path, "cas/"):
		value := strings.TrimPrefix(path, "cas/")
		if value == "" {
			return parsedURI{}, atomerr.New(atomerr.BadURI, "backend.parseBackendURI", fmt.Errorf("empty /cas/ CID in %q", raw))
		}
		return parsedURI{kind: kindCAS, host: host, port: port, value: value}, nil
	case strings.HasPrefix(path, "mns/"):
		value := strings.TrimPrefix(path, "mns/")
		if value == "" {
			return parsedURI{}, atomerr.New(atomerr.BadURI, "backend.parseBackendURI", fmt.Errorf("empty /mns/ name in %q", raw))
		}
		return parsedURI{kind: kindMNS, host: host, port: port, value: value}, nil
	default:
		return parsedURI{kind: kindWorkspaceKey, host: host, port: port, value: path}, nil
	}
}
