// Package lifecycle holds shared constants for component startup and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds lifecycle hooks such as datastore pings and
// graceful HTTP shutdown.
const DefaultTimeout = 10 * time.Second
