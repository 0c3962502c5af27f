package load

import "fmt"

var errChildGUIDMissing = fmt.Errorf("child atom has no registered GUID")
