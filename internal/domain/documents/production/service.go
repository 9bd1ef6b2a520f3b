package production

import (
	"context"
	"fmt"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/numerator"
	"millstock/internal/core/tx"
	"millstock/internal/domain/activity"
	"millstock/internal/domain/batches"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

// Service orchestrates production run transactions. Every create or delete
// is atomic across the header, its line items and all ledger movements.
type Service struct {
	repo      Repository
	batches   *batches.Service
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
	activity  *activity.Service
}

// NewService creates a production service.
func NewService(
	repo Repository,
	batchSvc *batches.Service,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	txManager tx.Manager,
	activitySvc *activity.Service,
) *Service {
	return &Service{
		repo:      repo,
		batches:   batchSvc,
		ledger:    ledgerSvc,
		numerator: gen,
		txManager: txManager,
		activity:  activitySvc,
	}
}

// Create validates and posts a production run.
//
// Consumption is checked against the CURRENT Cotton balance, not the
// balance as of the run date. This asymmetry with outward dispatch (which
// checks as of its date) mirrors how the mill operates: cotton on the
// floor is consumed regardless of how the run is dated.
func (s *Service) Create(ctx context.Context, doc *Production) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(doc.ID) {
		doc.ID = id.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.Number == "" {
		number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("PR"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	unlock := s.ledger.Locks().Lock(doc.Streams()...)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		totalConsumed := doc.TotalConsumedKg()
		cottonBalance, err := s.ledger.CurrentBalance(ctx, ledger.StreamCotton)
		if err != nil {
			return err
		}
		if totalConsumed > cottonBalance {
			return apperror.NewInsufficientStock(
				ledger.StreamCotton.String(),
				totalConsumed.Float64(),
				cottonBalance.Float64(),
			)
		}

		for _, line := range doc.Consumed {
			if err := s.batches.AssertCapacity(ctx, line.BatchID, line.WeightKg, nil); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create production: %w", err)
		}

		ref := doc.Reference()
		for _, line := range doc.Consumed {
			_, err := s.ledger.Append(ctx, &ledger.Movement{
				Date:      doc.Date,
				Stream:    ledger.StreamCotton,
				Type:      ledger.TypeProduction,
				Quantity:  line.WeightKg.Neg(),
				Reference: ref,
				BatchID:   line.BatchID,
			})
			if err != nil {
				return err
			}
		}
		for _, line := range doc.Produced {
			_, err := s.ledger.Append(ctx, &ledger.Movement{
				Date:      doc.Date,
				Stream:    ledger.YarnStream(line.Count),
				Type:      ledger.TypeProduction,
				Quantity:  line.WeightKg,
				Reference: ref,
			})
			if err != nil {
				return err
			}
		}
		if doc.WasteKg.IsPositive() {
			_, err := s.ledger.Append(ctx, &ledger.Movement{
				Date:      doc.Date,
				Stream:    ledger.StreamWaste,
				Type:      ledger.TypeProduction,
				Quantity:  doc.WasteKg,
				Reference: ref,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, "production", doc.ID.String(), activity.ActionCreate, doc)
	logger.Info(ctx, "production created",
		"id", doc.ID,
		"number", doc.Number,
		"consumed_kg", doc.TotalConsumedKg(),
		"produced_kg", doc.TotalProducedKg(),
		"waste_kg", doc.WasteKg,
	)
	return nil
}

// GetByID retrieves a production run with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Production, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns production runs matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Production, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a run, cascades to all its movements across every stream
// it touched, and recalculates each affected stream. No capacity re-check
// is needed: the delete only removes consumption.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	unlock := s.ledger.Locks().Lock(doc.Streams()...)
	defer unlock()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.DeleteByReference(ctx, doc.Reference()); err != nil {
			return err
		}
		return s.repo.Delete(ctx, docID)
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, "production", docID.String(), activity.ActionDelete, nil)
	logger.Info(ctx, "production deleted", "id", docID, "number", doc.Number)
	return nil
}
