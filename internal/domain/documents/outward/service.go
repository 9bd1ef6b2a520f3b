package outward

import (
	"context"
	"fmt"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/numerator"
	"millstock/internal/core/tx"
	"millstock/internal/domain/activity"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

// Service orchestrates outward dispatch transactions.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	numerator numerator.Generator
	txManager tx.Manager
	activity  *activity.Service
}

// NewService creates an outward service.
func NewService(
	repo Repository,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	txManager tx.Manager,
	activitySvc *activity.Service,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		numerator: gen,
		txManager: txManager,
		activity:  activitySvc,
	}
}

// Create validates and posts an outward dispatch.
//
// Each item is checked against the yarn balance AS OF the dispatch date,
// not the current balance: a dispatch backdated before a later production
// run must fail even when stock exists today. This is the deliberate
// counterpart of the production-side current-balance check.
func (s *Service) Create(ctx context.Context, doc *Outward) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.ComputeAmounts()

	if id.IsNil(doc.ID) {
		doc.ID = id.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.Number == "" {
		number, err := s.numerator.NextNumber(ctx, numerator.DefaultConfig("OD"), time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	unlock := s.ledger.Locks().Lock(doc.Streams()...)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, item := range doc.Items {
			stream := ledger.YarnStream(item.Count)
			balance, err := s.ledger.BalanceAsOf(ctx, stream, doc.Date)
			if err != nil {
				return err
			}
			if item.WeightKg > balance {
				return apperror.NewInsufficientStockAtDate(
					stream.String(),
					doc.Date.Format("2006-01-02"),
					item.WeightKg.Float64(),
					balance.Float64(),
				)
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create outward: %w", err)
		}

		ref := doc.Reference()
		for _, item := range doc.Items {
			_, err := s.ledger.Append(ctx, &ledger.Movement{
				Date:      doc.Date,
				Stream:    ledger.YarnStream(item.Count),
				Type:      ledger.TypeOutward,
				Quantity:  item.WeightKg.Neg(),
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

	s.activity.Record(ctx, "outward", doc.ID.String(), activity.ActionCreate, doc)
	logger.Info(ctx, "outward created",
		"id", doc.ID,
		"number", doc.Number,
		"customer", doc.Customer,
		"weight_kg", doc.TotalWeightKg(),
	)
	return nil
}

// GetByID retrieves a dispatch with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Outward, error) {
	return s.repo.GetByID(ctx, docID)
}

// List returns dispatches matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Outward, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a dispatch and its yarn movements. Only the partitions
// the dispatch actually touched are recalculated, not every yarn count.
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

	s.activity.Record(ctx, "outward", docID.String(), activity.ActionDelete, nil)
	logger.Info(ctx, "outward deleted", "id", docID, "number", doc.Number)
	return nil
}
