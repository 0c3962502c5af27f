package writeback

import "fmt"

var errQueueClosed = fmt.Errorf("writeback: queue is closed")
