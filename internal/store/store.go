// Package store persists batch state. The orchestrator is the only writer;
// implementations must hand out consistent snapshots to concurrent readers.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ErrNotFound is returned when a batch id has no stored state.
var ErrNotFound = eris.New("store: batch not found")

// BatchFilter specifies criteria for listing batches.
type BatchFilter struct {
	Status model.BatchStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for enrichment batches.
type Store interface {
	// CreateBatch stores a new batch. The id must not already exist.
	CreateBatch(ctx context.Context, b *model.Batch) error

	// PutBatch replaces the stored state for an existing batch.
	PutBatch(ctx context.Context, b *model.Batch) error

	// GetBatch returns a snapshot of the batch, or ErrNotFound.
	GetBatch(ctx context.Context, id string) (*model.Batch, error)

	// ListBatches returns batch snapshots, newest first.
	ListBatches(ctx context.Context, filter BatchFilter) ([]model.Batch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
