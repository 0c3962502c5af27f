package remove

import "fmt"

var (
	errAtomHasNoGUID       = fmt.Errorf("atom has a stored extended object but no registered GUID")
	errWorkspaceMissingKey = fmt.Errorf("workspace detach found no link for an atom the identity registry just forgot")
)
