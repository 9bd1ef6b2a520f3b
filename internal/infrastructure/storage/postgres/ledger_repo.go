package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/ledger"
)

// Compile-time check.
var _ ledger.Repository = (*LedgerRepo)(nil)

var movementCols = []string{
	"id", "date", "stream", "movement_type", "quantity",
	"balance", "reference", "batch_id", "pair_id", "created_at",
}

// LedgerRepo is the PostgreSQL ledger.Repository. Quantities are stored as
// BIGINT in units of a ten-thousandth of a kilogram, matching
// types.Quantity directly; balances live in the same row as the movement.
type LedgerRepo struct {
	txManager *TxManager
}

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{txManager: txManager}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(movementCols...).From("ledger_movements")
}

func (r *LedgerRepo) Insert(ctx context.Context, m *ledger.Movement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	q := r.builder().
		Insert("ledger_movements").
		Columns("date", "stream", "movement_type", "quantity",
			"balance", "reference", "batch_id", "pair_id", "created_at").
		Values(m.Date, m.Stream, m.Type, m.Quantity,
			m.Balance, m.Reference, m.BatchID, m.PairID, m.CreatedAt).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *LedgerRepo) GetByID(ctx context.Context, movementID int64) (*ledger.Movement, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": movementID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

func (r *LedgerRepo) DeleteByID(ctx context.Context, movementID int64) error {
	q := r.builder().Delete("ledger_movements").Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", movementID)
	}
	return nil
}

func (r *LedgerRepo) DeleteByReference(ctx context.Context, reference string) ([]ledger.Movement, error) {
	q := r.builder().
		Delete("ledger_movements").
		Where(squirrel.Eq{"reference": reference}).
		Suffix("RETURNING " + joinCols(movementCols))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}

	var deleted []ledger.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &deleted, sql, args...); err != nil {
		return nil, fmt.Errorf("delete by reference: %w", err)
	}
	return deleted, nil
}

func (r *LedgerRepo) ListByStream(ctx context.Context, stream ledger.StreamKey) ([]ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"stream": stream}).
		OrderBy("date ASC", "id ASC")

	return r.selectMovements(ctx, q, "list by stream")
}

func (r *LedgerRepo) ListByReference(ctx context.Context, reference string) ([]ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"reference": reference}).
		OrderBy("date ASC", "id ASC")

	return r.selectMovements(ctx, q, "list by reference")
}

func (r *LedgerRepo) FindByPairID(ctx context.Context, pairID id.ID) ([]ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"pair_id": pairID}).
		OrderBy("date ASC", "id ASC")

	return r.selectMovements(ctx, q, "find by pair")
}

func (r *LedgerRepo) LastAsOf(ctx context.Context, stream ledger.StreamKey, asOf *time.Time) (*ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"stream": stream}).
		OrderBy("date DESC", "id DESC").
		Limit(1)
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"date": *asOf})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("last as of: %w", err)
	}
	return &m, nil
}

func (r *LedgerRepo) SumByStream(ctx context.Context, stream ledger.StreamKey, asOf *time.Time) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(quantity), 0)").
		From("ledger_movements").
		Where(squirrel.Eq{"stream": stream})
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"date": *asOf})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum stream: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepo) UpdateBalances(ctx context.Context, fixes []ledger.BalanceFix) error {
	if len(fixes) == 0 {
		return nil
	}

	querier := r.txManager.GetQuerier(ctx)
	for _, fix := range fixes {
		q := r.builder().
			Update("ledger_movements").
			Set("balance", fix.Balance).
			Where(squirrel.Eq{"id": fix.MovementID})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		result, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("update balance %d: %w", fix.MovementID, err)
		}
		if result.RowsAffected() == 0 {
			return apperror.NewNotFound("movement", fix.MovementID)
		}
	}
	return nil
}

func (r *LedgerRepo) ListStreams(ctx context.Context) ([]ledger.StreamKey, error) {
	q := r.builder().
		Select("DISTINCT stream").
		From("ledger_movements").
		OrderBy("stream ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var streams []ledger.StreamKey
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &streams, sql, args...); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

func (r *LedgerRepo) SumConsumedByBatch(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, error) {
	q := r.builder().
		Select("COALESCE(SUM(ABS(quantity)), 0)").
		From("ledger_movements").
		Where(squirrel.Eq{
			"stream":        ledger.StreamCotton,
			"movement_type": ledger.TypeProduction,
			"batch_id":      batchID,
		})
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"date": *asOf})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum consumed: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepo) HasProductionForBatch(ctx context.Context, batchID string) (bool, error) {
	q := r.builder().
		Select("1").
		From("ledger_movements").
		Where(squirrel.Eq{
			"movement_type": ledger.TypeProduction,
			"batch_id":      batchID,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check production for batch: %w", err)
	}
	return true, nil
}

func joinCols(cols []string) string {
	return strings.Join(cols, ", ")
}

func (r *LedgerRepo) History(ctx context.Context, stream ledger.StreamKey, filter ledger.HistoryFilter) ([]ledger.Movement, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"stream": stream}).
		OrderBy("date DESC", "id DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q, "history")
}

func (r *LedgerRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder, op string) ([]ledger.Movement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []ledger.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
