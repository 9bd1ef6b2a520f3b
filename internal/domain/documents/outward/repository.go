package outward

import (
	"context"
	"time"

	"millstock/internal/core/id"
)

// Repository defines storage operations for outward dispatch documents.
type Repository interface {
	// Create stores the header together with its line items.
	Create(ctx context.Context, doc *Outward) error

	// GetByID retrieves a dispatch with items. Returns apperror.NotFound when absent.
	GetByID(ctx context.Context, docID id.ID) (*Outward, error)

	// Delete removes the header and cascades to its line items.
	Delete(ctx context.Context, docID id.ID) error

	// List returns dispatches matching the filter, newest first, with items.
	List(ctx context.Context, filter ListFilter) ([]Outward, error)
}

// ListFilter narrows outward dispatch listings.
type ListFilter struct {
	Customer *string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
