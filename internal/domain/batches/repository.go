package batches

import (
	"context"
)

// Repository defines storage operations for inward batches.
type Repository interface {
	// Create stores a batch. Returns apperror.Duplicate when the business
	// key already exists.
	Create(ctx context.Context, b *Batch) error

	// GetByID retrieves a batch. Returns apperror.NotFound when absent.
	GetByID(ctx context.Context, batchID string) (*Batch, error)

	// Exists reports whether the business key is taken.
	Exists(ctx context.Context, batchID string) (bool, error)

	// Delete removes a batch row.
	Delete(ctx context.Context, batchID string) error

	// List returns all batches ordered by receipt date.
	List(ctx context.Context) ([]Batch, error)
}
