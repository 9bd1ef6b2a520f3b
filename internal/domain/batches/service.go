package batches

import (
	"context"
	"fmt"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/tx"
	"millstock/internal/core/types"
	"millstock/internal/domain/activity"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

// Service provides inward batch operations. Registering a batch credits
// the Cotton stream; deleting one removes the credit again. Both are
// compound operations running inside one transaction while holding the
// Cotton stream lock.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	txManager tx.Manager
	activity  *activity.Service
}

// NewService creates a batch service.
func NewService(repo Repository, ledgerSvc *ledger.Service, txManager tx.Manager, activitySvc *activity.Service) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		txManager: txManager,
		activity:  activitySvc,
	}
}

// Register stores a new inward batch and appends its INWARD Cotton
// movement atomically. Fails with DUPLICATE_ENTRY when the business key
// is already registered.
func (s *Service) Register(ctx context.Context, b *Batch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	unlock := s.ledger.Locks().Lock(ledger.StreamCotton)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, b.BatchID)
		if err != nil {
			return fmt.Errorf("check batch: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("batch", "batchId", b.BatchID)
		}

		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		_, err = s.ledger.Append(ctx, &ledger.Movement{
			Date:      b.Date,
			Stream:    ledger.StreamCotton,
			Type:      ledger.TypeInward,
			Quantity:  b.OriginalKg,
			Reference: b.BatchID,
			BatchID:   b.BatchID,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, "batch", b.BatchID, activity.ActionCreate, b)
	logger.Info(ctx, "batch registered",
		"batch_id", b.BatchID,
		"supplier", b.Supplier,
		"kg", b.OriginalKg,
	)
	return nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID string) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// List returns all batches ordered by receipt date.
func (s *Service) List(ctx context.Context) ([]Batch, error) {
	return s.repo.List(ctx)
}

// RemainingCapacity returns originalKg minus the production consumption
// dated on or before asOf. A nil asOf counts all consumption.
func (s *Service) RemainingCapacity(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, error) {
	b, err := s.repo.GetByID(ctx, batchID)
	if err != nil {
		return 0, err
	}
	consumed, err := s.ledger.ConsumedFromBatch(ctx, batchID, asOf)
	if err != nil {
		return 0, fmt.Errorf("consumed from batch %s: %w", batchID, err)
	}
	return b.OriginalKg - consumed, nil
}

// AssertCapacity fails with INSUFFICIENT_BATCH_STOCK when requestedKg
// exceeds the remaining capacity beyond tolerance.
func (s *Service) AssertCapacity(ctx context.Context, batchID string, requestedKg types.Quantity, asOf *time.Time) error {
	remaining, err := s.RemainingCapacity(ctx, batchID, asOf)
	if err != nil {
		return err
	}
	if requestedKg > remaining+types.Epsilon {
		return apperror.NewInsufficientBatchStock(batchID, requestedKg.Float64(), remaining.Float64())
	}
	return nil
}

// AssertDeletable fails with BATCH_IN_USE when production runs already
// consumed from the batch.
func (s *Service) AssertDeletable(ctx context.Context, batchID string) error {
	inUse, err := s.ledger.HasProductionForBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("check batch usage: %w", err)
	}
	if inUse {
		return apperror.NewBatchInUse(batchID)
	}
	return nil
}

// Delete removes a batch together with its INWARD movement and repairs
// the Cotton stream. Batches with production consumption cannot be deleted.
func (s *Service) Delete(ctx context.Context, batchID string) error {
	unlock := s.ledger.Locks().Lock(ledger.StreamCotton)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, batchID); err != nil {
			return err
		}
		if err := s.AssertDeletable(ctx, batchID); err != nil {
			return err
		}

		if _, err := s.ledger.DeleteByReference(ctx, batchID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, batchID)
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, "batch", batchID, activity.ActionDelete, nil)
	logger.Info(ctx, "batch deleted", "batch_id", batchID)
	return nil
}
