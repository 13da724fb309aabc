// Package store defines the aggregate persistence interface the server
// wires a backend into. Backends: Mongo, Redis, and Memory.
package store

import (
	"context"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// Store is the aggregate persistence interface. A single backend
// implements the job store plus lifecycle management.
type Store interface {
	job.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
