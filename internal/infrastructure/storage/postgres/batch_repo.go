package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"millstock/internal/core/apperror"
	"millstock/internal/domain/batches"
)

// Compile-time check.
var _ batches.Repository = (*BatchRepo)(nil)

var batchCols = []string{
	"batch_id", "date", "supplier", "original_bale", "original_kg", "created_at",
}

// BatchRepo is the PostgreSQL batches.Repository.
type BatchRepo struct {
	txManager *TxManager
}

// NewBatchRepo creates a batch repository.
func NewBatchRepo(txManager *TxManager) *BatchRepo {
	return &BatchRepo{txManager: txManager}
}

func (r *BatchRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BatchRepo) Create(ctx context.Context, b *batches.Batch) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	q := r.builder().
		Insert("batches").
		Columns(batchCols...).
		Values(b.BatchID, b.Date, b.Supplier, b.OriginalBale, b.OriginalKg, b.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("batch", "batch_id", b.BatchID)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID string) (*batches.Batch, error) {
	q := r.builder().
		Select(batchCols...).
		From("batches").
		Where(squirrel.Eq{"batch_id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batches.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *BatchRepo) Exists(ctx context.Context, batchID string) (bool, error) {
	q := r.builder().
		Select("1").
		From("batches").
		Where(squirrel.Eq{"batch_id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check batch exists: %w", err)
	}
	return true, nil
}

func (r *BatchRepo) Delete(ctx context.Context, batchID string) error {
	q := r.builder().Delete("batches").Where(squirrel.Eq{"batch_id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}
	return nil
}

func (r *BatchRepo) List(ctx context.Context) ([]batches.Batch, error) {
	q := r.builder().
		Select(batchCols...).
		From("batches").
		OrderBy("date ASC", "batch_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []batches.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}
