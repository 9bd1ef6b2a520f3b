package production

import (
	"context"
	"time"

	"millstock/internal/core/id"
	"millstock/internal/core/types"
)

// Repository defines storage operations for production run documents.
type Repository interface {
	// Create stores the header together with its line items.
	Create(ctx context.Context, doc *Production) error

	// GetByID retrieves a run with lines. Returns apperror.NotFound when absent.
	GetByID(ctx context.Context, docID id.ID) (*Production, error)

	// Delete removes the header and cascades to its line items.
	Delete(ctx context.Context, docID id.ID) error

	// List returns runs matching the filter, newest first, with lines.
	List(ctx context.Context, filter ListFilter) ([]Production, error)

	// ConsumptionByBatch aggregates the consumed lines that drew from one
	// batch across all runs dated on or before asOf (nil = all): total kg
	// and total bale count.
	ConsumptionByBatch(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, int, error)
}

// ListFilter narrows production run listings.
type ListFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
