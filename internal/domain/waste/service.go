package waste

import (
	"context"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/tx"
	"millstock/internal/core/types"
	"millstock/internal/domain/activity"
	"millstock/internal/ledger"
	"millstock/pkg/logger"
)

// Recycle describes a waste-to-cotton conversion request.
type Recycle struct {
	Date     time.Time      `json:"date"`
	WeightKg types.Quantity `json:"weightKg"`
	Comment  string         `json:"comment,omitempty"`
}

// Export describes an outright sale of mill waste.
type Export struct {
	Date     time.Time      `json:"date"`
	WeightKg types.Quantity `json:"weightKg"`
	Buyer    string         `json:"buyer"`
	Comment  string         `json:"comment,omitempty"`
}

// Service posts waste recycling and export movements.
type Service struct {
	ledger    *ledger.Service
	txManager tx.Manager
	activity  *activity.Service
}

// NewService creates a waste service.
func NewService(ledgerSvc *ledger.Service, txManager tx.Manager, activitySvc *activity.Service) *Service {
	return &Service{ledger: ledgerSvc, txManager: txManager, activity: activitySvc}
}

// RecycleWaste converts waste back into usable cotton. It posts two
// movements under one pair id and one shared reference: a negative
// RECYCLE on the waste stream and a positive RECYCLED_WASTE on cotton.
// Either both land or neither does.
func (s *Service) RecycleWaste(ctx context.Context, req Recycle) (id.ID, error) {
	if req.WeightKg <= 0 {
		return id.Nil(), apperror.NewValidation("recycle weight must be positive")
	}
	if req.Date.IsZero() {
		return id.Nil(), apperror.NewValidation("recycle date is required")
	}

	pairID := id.New()
	ref := "RC-" + pairID.String()

	unlock := s.ledger.Locks().Lock(ledger.StreamWaste, ledger.StreamCotton)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.ledger.BalanceAsOf(ctx, ledger.StreamWaste, req.Date)
		if err != nil {
			return err
		}
		if req.WeightKg > balance {
			return apperror.NewInsufficientStockAtDate(
				ledger.StreamWaste.String(),
				req.Date.Format("2006-01-02"),
				req.WeightKg.Float64(),
				balance.Float64(),
			)
		}

		if _, err := s.ledger.Append(ctx, &ledger.Movement{
			Date:      req.Date,
			Stream:    ledger.StreamWaste,
			Type:      ledger.TypeRecycle,
			Quantity:  req.WeightKg.Neg(),
			Reference: ref,
			PairID:    &pairID,
		}); err != nil {
			return err
		}
		if _, err := s.ledger.Append(ctx, &ledger.Movement{
			Date:      req.Date,
			Stream:    ledger.StreamCotton,
			Type:      ledger.TypeRecycledWaste,
			Quantity:  req.WeightKg,
			Reference: ref,
			PairID:    &pairID,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}

	s.activity.Record(ctx, "recycle", pairID.String(), activity.ActionCreate, req)
	logger.Info(ctx, "waste recycled", "pair_id", pairID, "weight_kg", req.WeightKg)
	return pairID, nil
}

// ExportWaste sells waste to an outside buyer. The buyer is recorded in
// the activity log, not on the movement itself.
func (s *Service) ExportWaste(ctx context.Context, req Export) (id.ID, error) {
	if req.WeightKg <= 0 {
		return id.Nil(), apperror.NewValidation("export weight must be positive")
	}
	if req.Date.IsZero() {
		return id.Nil(), apperror.NewValidation("export date is required")
	}
	if req.Buyer == "" {
		return id.Nil(), apperror.NewValidation("export buyer is required")
	}

	exportID := id.New()
	ref := "EX-" + exportID.String()

	unlock := s.ledger.Locks().Lock(ledger.StreamWaste)
	defer unlock()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.ledger.BalanceAsOf(ctx, ledger.StreamWaste, req.Date)
		if err != nil {
			return err
		}
		if req.WeightKg > balance {
			return apperror.NewInsufficientStockAtDate(
				ledger.StreamWaste.String(),
				req.Date.Format("2006-01-02"),
				req.WeightKg.Float64(),
				balance.Float64(),
			)
		}

		_, err = s.ledger.Append(ctx, &ledger.Movement{
			Date:      req.Date,
			Stream:    ledger.StreamWaste,
			Type:      ledger.TypeExport,
			Quantity:  req.WeightKg.Neg(),
			Reference: ref,
		})
		return err
	})
	if err != nil {
		return id.Nil(), err
	}

	s.activity.Record(ctx, "export", exportID.String(), activity.ActionCreate, req)
	logger.Info(ctx, "waste exported", "export_id", exportID, "buyer", req.Buyer, "weight_kg", req.WeightKg)
	return exportID, nil
}

// DeleteMovement removes a waste-level movement by ledger id.
//
// Recycle halves are never deleted alone: finding a pair id removes both
// sides through the shared reference. Movements posted by inward, production
// or outward documents are refused; those are deleted through their document.
func (s *Service) DeleteMovement(ctx context.Context, movementID int64) error {
	m, err := s.ledger.GetByID(ctx, movementID)
	if err != nil {
		return err
	}

	switch m.Type {
	case ledger.TypeRecycle, ledger.TypeRecycledWaste:
		if m.PairID == nil {
			return apperror.NewInconsistentBalance(
				m.Stream.String(),
				"recycle movement has no pair id",
			)
		}
		pair, err := s.ledger.FindByPair(ctx, *m.PairID)
		if err != nil {
			return err
		}
		if len(pair) != 2 {
			return apperror.NewInconsistentBalance(
				m.Stream.String(),
				"recycle pair is incomplete",
			)
		}

		unlock := s.ledger.Locks().Lock(ledger.StreamWaste, ledger.StreamCotton)
		defer unlock()

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := s.ledger.DeleteByReference(ctx, m.Reference)
			return err
		})
		if err != nil {
			return err
		}
		s.activity.Record(ctx, "recycle", m.PairID.String(), activity.ActionDelete, nil)
		logger.Info(ctx, "recycle removed", "pair_id", m.PairID, "movement_id", movementID)
		return nil

	case ledger.TypeExport:
		unlock := s.ledger.Locks().Lock(ledger.StreamWaste)
		defer unlock()

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := s.ledger.DeleteByReference(ctx, m.Reference)
			return err
		})
		if err != nil {
			return err
		}
		s.activity.Record(ctx, "export", m.Reference, activity.ActionDelete, nil)
		logger.Info(ctx, "export removed", "movement_id", movementID)
		return nil

	default:
		return apperror.NewDerivedMovement(movementID, m.Reference)
	}
}
