// Package runstore persists the outcomes of orchestrated retrieval runs.
// It provides a small Store interface with an in-memory implementation for
// embedded use and a Redis implementation for deployments where results
// must survive the process or be shared across instances.
package runstore

import (
	"context"
	"errors"
	"time"

	"github.com/ledgergraph-ai/sdk/multihop"
)

// Common errors returned by store operations.
var (
	// ErrNotFound is returned when a requested run does not exist.
	ErrNotFound = errors.New("runstore: run not found")

	// ErrInvalidID is returned when a run ID is empty.
	ErrInvalidID = errors.New("runstore: invalid run id")
)

// Record is a persisted retrieval run.
type Record struct {
	// ID is the run identifier assigned by the orchestrating client.
	ID string `json:"id"`

	// Question is the natural language question the run answered.
	Question string `json:"question"`

	// Result is the full retrieval outcome.
	Result *multihop.Result `json:"result,omitempty"`

	// CreatedAt is when the run was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Store provides access to persisted retrieval runs.
//
// Save replaces any existing record with the same ID. List returns records
// ordered most recent first; Get and Delete return ErrNotFound for unknown
// IDs. Ping reports whether the backing storage is reachable.
type Store interface {
	// Save stores a run record, replacing any existing record with the
	// same ID. Returns ErrInvalidID if the record has no ID.
	Save(ctx context.Context, rec Record) error

	// Get retrieves a run record by ID.
	// Returns ErrNotFound if the run does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records ordered by CreatedAt descending,
	// skipping offset records. A non-positive limit means no limit.
	List(ctx context.Context, limit, offset int) ([]Record, error)

	// Delete removes a run record by ID.
	// Returns ErrNotFound if the run does not exist.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
