package pool

import "fmt"

var errPoolClosed = fmt.Errorf("connection pool is closed")
