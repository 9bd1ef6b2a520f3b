package ledger

import (
	"context"
	"fmt"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/pkg/logger"
)

// Service provides ledger stream operations: append, as-of balance queries,
// deletes and cached-balance recalculation.
//
// Mutations must run inside the caller's transaction and while holding the
// affected stream locks (see Locks). Read-only queries need neither.
type Service struct {
	repo  Repository
	locks *StreamLocks
}

// NewService creates a ledger service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		locks: NewStreamLocks(),
	}
}

// Locks exposes the per-stream lock registry so compound operations can
// hold every affected stream for the whole validate-then-write sequence.
func (s *Service) Locks() *StreamLocks {
	return s.locks
}

// Append inserts a movement. The date may be backdated: the cached balance
// of every movement ordered after the insertion point is repaired before
// Append returns, so a balance query never observes a stale value.
func (s *Service) Append(ctx context.Context, m *Movement) (*Movement, error) {
	if m.Stream == "" {
		return nil, apperror.NewValidation("movement stream is required")
	}
	if m.Type == "" {
		return nil, apperror.NewValidation("movement type is required")
	}
	if m.Quantity.IsZero() {
		return nil, apperror.NewValidation("movement quantity must be non-zero")
	}
	if m.Date.IsZero() {
		return nil, apperror.NewValidation("movement date is required")
	}

	// The new row receives the highest id, so every existing movement with
	// date <= m.Date precedes it: its balance is the as-of sum plus itself.
	prev, err := s.repo.SumByStream(ctx, m.Stream, &m.Date)
	if err != nil {
		return nil, fmt.Errorf("sum stream %s: %w", m.Stream, err)
	}
	m.Balance = prev + m.Quantity
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	// Backdated insert: movements dated after the insertion point now carry
	// stale balances.
	last, err := s.repo.LastAsOf(ctx, m.Stream, nil)
	if err != nil {
		return nil, fmt.Errorf("locate stream tail: %w", err)
	}
	if last == nil || last.ID != m.ID {
		if err := s.Recalculate(ctx, m.Stream); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// BalanceAsOf returns the running balance restricted to movements with
// date <= asOf, independent of insertion order. Equals the cached balance
// of the last such movement, or zero for an empty prefix.
func (s *Service) BalanceAsOf(ctx context.Context, stream StreamKey, asOf time.Time) (types.Quantity, error) {
	last, err := s.repo.LastAsOf(ctx, stream, &asOf)
	if err != nil {
		return 0, fmt.Errorf("balance as of: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	return last.Balance, nil
}

// CurrentBalance returns the balance of the chronologically last movement,
// unconstrained by date. Production consumption validates against this,
// unlike outward dispatch which validates as of the document date.
func (s *Service) CurrentBalance(ctx context.Context, stream StreamKey) (types.Quantity, error) {
	last, err := s.repo.LastAsOf(ctx, stream, nil)
	if err != nil {
		return 0, fmt.Errorf("current balance: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	return last.Balance, nil
}

// Delete removes one movement and repairs its stream. Returns the deleted
// movement for caller bookkeeping (pair cleanup, logging).
func (s *Service) Delete(ctx context.Context, movementID int64) (*Movement, error) {
	m, err := s.repo.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteByID(ctx, movementID); err != nil {
		return nil, fmt.Errorf("delete movement %d: %w", movementID, err)
	}
	if err := s.Recalculate(ctx, m.Stream); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteByReference removes every movement created by one document and
// recalculates each affected stream. Returns the affected stream keys.
func (s *Service) DeleteByReference(ctx context.Context, reference string) ([]StreamKey, error) {
	deleted, err := s.repo.DeleteByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("delete by reference %s: %w", reference, err)
	}

	seen := make(map[StreamKey]struct{}, len(deleted))
	streams := make([]StreamKey, 0, len(deleted))
	for _, m := range deleted {
		if _, ok := seen[m.Stream]; ok {
			continue
		}
		seen[m.Stream] = struct{}{}
		streams = append(streams, m.Stream)
	}

	for _, stream := range streams {
		if err := s.Recalculate(ctx, stream); err != nil {
			return nil, err
		}
	}
	return streams, nil
}

// Recalculate replays a stream from scratch: fetch all movements in
// (date, id) order, fold the running sum, persist every cached balance
// that drifted beyond tolerance. Safe to call redundantly.
func (s *Service) Recalculate(ctx context.Context, stream StreamKey) error {
	movements, err := s.repo.ListByStream(ctx, stream)
	if err != nil {
		return fmt.Errorf("list stream %s: %w", stream, err)
	}

	var running types.Quantity
	var fixes []BalanceFix
	for _, m := range movements {
		running += m.Quantity
		if (m.Balance - running).Abs() > types.Epsilon {
			fixes = append(fixes, BalanceFix{MovementID: m.ID, Balance: running})
		}
	}

	// The folded total must agree with the canonical sum; a mismatch means
	// the correction cannot be trusted and nothing is persisted.
	canonical, err := s.repo.SumByStream(ctx, stream, nil)
	if err != nil {
		return fmt.Errorf("canonical sum %s: %w", stream, err)
	}
	if running != canonical {
		return apperror.NewInconsistentBalance(stream.String(),
			fmt.Sprintf("replay total %s != canonical sum %s", running, canonical))
	}

	if len(fixes) == 0 {
		return nil
	}
	if err := s.repo.UpdateBalances(ctx, fixes); err != nil {
		return fmt.Errorf("update balances: %w", err)
	}

	logger.Debug(ctx, "recalculated stream",
		"stream", stream,
		"movements", len(movements),
		"repaired", len(fixes),
	)
	return nil
}

// GetByID retrieves one movement.
func (s *Service) GetByID(ctx context.Context, movementID int64) (*Movement, error) {
	return s.repo.GetByID(ctx, movementID)
}

// ListByReference returns movements carrying the reference.
func (s *Service) ListByReference(ctx context.Context, reference string) ([]Movement, error) {
	return s.repo.ListByReference(ctx, reference)
}

// ConsumedFromBatch returns the total weight PRODUCTION runs drew from one
// inward batch, restricted to movements dated on or before asOf (nil = all).
func (s *Service) ConsumedFromBatch(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, error) {
	return s.repo.SumConsumedByBatch(ctx, batchID, asOf)
}

// FindByPair returns the movements sharing a recycle pair id.
func (s *Service) FindByPair(ctx context.Context, pairID id.ID) ([]Movement, error) {
	return s.repo.FindByPairID(ctx, pairID)
}

// HasProductionForBatch reports whether any production run consumed from
// the batch.
func (s *Service) HasProductionForBatch(ctx context.Context, batchID string) (bool, error) {
	return s.repo.HasProductionForBatch(ctx, batchID)
}

// Streams returns every stream key with at least one movement.
func (s *Service) Streams(ctx context.Context) ([]StreamKey, error) {
	return s.repo.ListStreams(ctx)
}

// History returns filtered movement history for a stream, newest first.
func (s *Service) History(ctx context.Context, stream StreamKey, filter HistoryFilter) ([]Movement, error) {
	return s.repo.History(ctx, stream, filter)
}
