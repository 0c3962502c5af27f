package atomstore

import "fmt"

var errChildGUIDMissingAfterStore = fmt.Errorf("child atom has no GUID immediately after its own do_store returned")
