package ledger

import (
	"context"
	"time"

	"millstock/internal/core/id"
	"millstock/internal/core/types"
)

// Repository defines storage operations for ledger movements.
// All mutating methods must run inside the caller's transaction.
type Repository interface {
	// Insert stores a movement and assigns its ID (monotonic, never reused).
	Insert(ctx context.Context, m *Movement) error

	// GetByID retrieves one movement. Returns apperror.NotFound when absent.
	GetByID(ctx context.Context, movementID int64) (*Movement, error)

	// DeleteByID removes one movement.
	DeleteByID(ctx context.Context, movementID int64) error

	// DeleteByReference removes every movement carrying the reference and
	// returns the deleted rows (for affected-stream recalculation).
	DeleteByReference(ctx context.Context, reference string) ([]Movement, error)

	// ListByStream returns all movements of a stream ordered by (date, id).
	ListByStream(ctx context.Context, stream StreamKey) ([]Movement, error)

	// ListByReference returns movements carrying the reference, (date, id) order.
	ListByReference(ctx context.Context, reference string) ([]Movement, error)

	// FindByPairID returns the movements sharing a recycle pair id.
	FindByPairID(ctx context.Context, pairID id.ID) ([]Movement, error)

	// LastAsOf returns the last movement of the stream under (date, id)
	// ordering with date <= asOf, or nil when the stream has no such row.
	// A nil asOf means no date constraint (the chronologically last row).
	LastAsOf(ctx context.Context, stream StreamKey, asOf *time.Time) (*Movement, error)

	// SumByStream returns the canonical quantity sum for the stream over
	// movements with date <= asOf (nil asOf = unconstrained).
	SumByStream(ctx context.Context, stream StreamKey, asOf *time.Time) (types.Quantity, error)

	// UpdateBalances persists repaired balance values.
	UpdateBalances(ctx context.Context, fixes []BalanceFix) error

	// ListStreams returns every stream key that has at least one movement.
	ListStreams(ctx context.Context) ([]StreamKey, error)

	// SumConsumedByBatch returns Σ|quantity| over PRODUCTION movements on
	// the Cotton stream tagged with batchID and date <= asOf (nil = all).
	SumConsumedByBatch(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, error)

	// HasProductionForBatch reports whether any PRODUCTION movement
	// references the batch (blocks batch deletion).
	HasProductionForBatch(ctx context.Context, batchID string) (bool, error)

	// History returns movements of a stream matching the filter,
	// newest first.
	History(ctx context.Context, stream StreamKey, filter HistoryFilter) ([]Movement, error)
}

// BalanceFix is one cached balance repair produced by recalculation.
type BalanceFix struct {
	MovementID int64
	Balance    types.Quantity
}

// HistoryFilter narrows movement history queries.
type HistoryFilter struct {
	Type     *MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
