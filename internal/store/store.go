// Package store defines the persistence contract the monitoring core depends
// on: atomic create/read/update/delete on a single (collection, id) key.
// No multi-key transaction exists; the services are written around that.
package store

import "context"

// Collection names used by the core.
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
	CollectionChecks = "checks"
)

// Store is the atomic per-key persistence collaborator. Records cross the
// boundary as JSON-marshalable values.
//
// Error contract: Create returns common.ErrAlreadyExists when the key is
// taken; Read, Update, and Delete return common.ErrNotFound when it is
// absent. Infrastructure faults are wrapped with common.ErrStore so callers
// can tell them apart from domain errors.
type Store interface {
	// Create persists a new record under (collection, id).
	Create(ctx context.Context, collection, id string, record any) error

	// Read loads the record at (collection, id) into out.
	Read(ctx context.Context, collection, id string, out any) error

	// Update replaces the record at an existing (collection, id).
	Update(ctx context.Context, collection, id string, record any) error

	// Delete removes the record at (collection, id).
	Delete(ctx context.Context, collection, id string) error
}
