package stockquery

import (
	"context"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/tx"
	"millstock/internal/core/types"
	"millstock/internal/domain/batches"
	"millstock/internal/domain/documents/production"
	"millstock/internal/ledger"
)

// Service answers point-in-time stock questions. All reads run inside a
// read-only transaction so a compound operation mid-commit is never
// observed half-applied. No stream locks are taken.
type Service struct {
	ledger     *ledger.Service
	batches    *batches.Service
	production production.Repository
	txManager  tx.ReadOnlyManager
}

// NewService creates a stock query service.
func NewService(
	ledgerSvc *ledger.Service,
	batchSvc *batches.Service,
	productionRepo production.Repository,
	txManager tx.ReadOnlyManager,
) *Service {
	return &Service{
		ledger:     ledgerSvc,
		batches:    batchSvc,
		production: productionRepo,
		txManager:  txManager,
	}
}

// StockByMaterial returns per-partition balances for one material as of a
// date. Yarn partitions by count; Cotton and Waste each have one partition
// keyed by the material name. Partitions at or below tolerance are omitted:
// a count reconciled down to zero simply disappears from the report.
func (s *Service) StockByMaterial(ctx context.Context, material string, asOf time.Time) (map[string]types.Quantity, error) {
	switch material {
	case "Cotton", "Waste", "Yarn":
	default:
		return nil, apperror.NewValidation("unknown material: " + material)
	}

	result := make(map[string]types.Quantity)
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		streams, err := s.ledger.Streams(ctx)
		if err != nil {
			return err
		}
		for _, stream := range streams {
			if stream.Material() != material {
				continue
			}
			balance, err := s.ledger.BalanceAsOf(ctx, stream, asOf)
			if err != nil {
				return err
			}
			if balance <= types.Epsilon {
				continue
			}
			key := material
			if stream.IsYarn() {
				key = stream.YarnCount()
			}
			result[key] = balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AvailableBatches lists inward batches that still have usable cotton as of
// a date. Kilograms come from ledger consumption sums; bale counts come
// from production line items, counted per line rather than derived from the
// kg ratio. Exhausted batches (remaining at or below tolerance) are skipped.
func (s *Service) AvailableBatches(ctx context.Context, asOf time.Time) ([]BatchAvailability, error) {
	var result []BatchAvailability
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		all, err := s.batches.List(ctx)
		if err != nil {
			return err
		}
		result = make([]BatchAvailability, 0, len(all))
		for _, b := range all {
			if b.Date.After(asOf) {
				continue
			}
			usedKg, err := s.ledger.ConsumedFromBatch(ctx, b.BatchID, &asOf)
			if err != nil {
				return err
			}
			_, usedBale, err := s.production.ConsumptionByBatch(ctx, b.BatchID, &asOf)
			if err != nil {
				return err
			}
			remainingKg := b.OriginalKg - usedKg
			if remainingKg <= types.Epsilon {
				continue
			}
			result = append(result, BatchAvailability{
				BatchID:       b.BatchID,
				Date:          b.Date,
				Supplier:      b.Supplier,
				OriginalKg:    b.OriginalKg,
				OriginalBale:  b.OriginalBale,
				UsedKg:        usedKg,
				UsedBale:      usedBale,
				RemainingKg:   remainingKg,
				RemainingBale: b.OriginalBale - usedBale,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StreamTurnover folds one stream's movements over [from, to]: opening
// balance just before the period, receipts and expenses inside it, closing
// balance at the period end.
func (s *Service) StreamTurnover(ctx context.Context, stream ledger.StreamKey, from, to time.Time) (*Turnover, error) {
	if to.Before(from) {
		return nil, apperror.NewValidation("turnover period end precedes start")
	}

	t := &Turnover{Stream: stream, From: from, To: to}
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		opening, err := s.ledger.BalanceAsOf(ctx, stream, from.Add(-time.Nanosecond))
		if err != nil {
			return err
		}
		closing, err := s.ledger.BalanceAsOf(ctx, stream, to)
		if err != nil {
			return err
		}

		movements, err := s.ledger.History(ctx, stream, ledger.HistoryFilter{
			FromDate: &from,
			ToDate:   &to,
		})
		if err != nil {
			return err
		}
		var receipts, expenses types.Quantity
		for _, m := range movements {
			if m.Quantity > 0 {
				receipts += m.Quantity
			} else {
				expenses -= m.Quantity
			}
		}

		t.Opening = opening
		t.Receipts = receipts
		t.Expenses = expenses
		t.Closing = closing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
