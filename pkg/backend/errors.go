package backend

import "errors"

var (
	errReadOnlyWorkspace  = errors.New("backend: workspace is read-only, no publisher is running")
	errBackendClosed      = errors.New("backend: already closed")
	errEmptyWorkspaceName = errors.New("backend: no stable workspace name is configured")
)
