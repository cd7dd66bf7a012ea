// Package delivery defines the contract every transport server fulfils so
// the composition root can start them uniformly.
package delivery

import "context"

// Delivery is a long-running transport frontend, such as an HTTP server.
// Serve blocks until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
