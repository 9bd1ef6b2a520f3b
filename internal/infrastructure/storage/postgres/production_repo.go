package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/domain/documents/production"
)

// Compile-time check.
var _ production.Repository = (*ProductionRepo)(nil)

var productionCols = []string{
	"id", "number", "date", "waste_kg", "comment", "created_at",
}

// ProductionRepo is the PostgreSQL production.Repository. Line items live
// in two child tables and are written in the caller's transaction together
// with the header.
type ProductionRepo struct {
	txManager *TxManager
}

// NewProductionRepo creates a production repository.
func NewProductionRepo(txManager *TxManager) *ProductionRepo {
	return &ProductionRepo{txManager: txManager}
}

func (r *ProductionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductionRepo) Create(ctx context.Context, doc *production.Production) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	querier := r.txManager.GetQuerier(ctx)

	q := r.builder().
		Insert("production_docs").
		Columns(productionCols...).
		Values(doc.ID, doc.Number, doc.Date, doc.WasteKg, doc.Comment, doc.CreatedAt)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert production: %w", err)
	}

	consumed := r.builder().
		Insert("production_consumed").
		Columns("doc_id", "line_no", "batch_id", "weight_kg", "bales")
	for _, line := range doc.Consumed {
		consumed = consumed.Values(doc.ID, line.LineNo, line.BatchID, line.WeightKg, line.Bales)
	}
	sql, args, err = consumed.ToSql()
	if err != nil {
		return fmt.Errorf("build consumed insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert consumed lines: %w", err)
	}

	produced := r.builder().
		Insert("production_produced").
		Columns("doc_id", "line_no", "count", "weight_kg", "bags")
	for _, line := range doc.Produced {
		produced = produced.Values(doc.ID, line.LineNo, line.Count, line.WeightKg, line.Bags)
	}
	sql, args, err = produced.ToSql()
	if err != nil {
		return fmt.Errorf("build produced insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert produced lines: %w", err)
	}

	return nil
}

func (r *ProductionRepo) GetByID(ctx context.Context, docID id.ID) (*production.Production, error) {
	q := r.builder().
		Select(productionCols...).
		From("production_docs").
		Where(squirrel.Eq{"id": docID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc production.Production
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("production", docID)
		}
		return nil, fmt.Errorf("get production: %w", err)
	}

	if err := r.loadLines(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *ProductionRepo) loadLines(ctx context.Context, doc *production.Production) error {
	querier := r.txManager.GetQuerier(ctx)

	q := r.builder().
		Select("line_no", "batch_id", "weight_kg", "bales").
		From("production_consumed").
		Where(squirrel.Eq{"doc_id": doc.ID}).
		OrderBy("line_no ASC")
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build consumed query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &doc.Consumed, sql, args...); err != nil {
		return fmt.Errorf("load consumed lines: %w", err)
	}

	q = r.builder().
		Select("line_no", "count", "weight_kg", "bags").
		From("production_produced").
		Where(squirrel.Eq{"doc_id": doc.ID}).
		OrderBy("line_no ASC")
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build produced query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &doc.Produced, sql, args...); err != nil {
		return fmt.Errorf("load produced lines: %w", err)
	}
	return nil
}

func (r *ProductionRepo) Delete(ctx context.Context, docID id.ID) error {
	// Child tables cascade on the doc_id foreign key.
	q := r.builder().Delete("production_docs").Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("production", docID)
	}
	return nil
}

func (r *ProductionRepo) List(ctx context.Context, filter production.ListFilter) ([]production.Production, error) {
	q := r.builder().
		Select(productionCols...).
		From("production_docs").
		OrderBy("date DESC", "created_at DESC")

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

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var docs []production.Production
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list production: %w", err)
	}

	for i := range docs {
		if err := r.loadLines(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (r *ProductionRepo) ConsumptionByBatch(ctx context.Context, batchID string, asOf *time.Time) (types.Quantity, int, error) {
	q := r.builder().
		Select("COALESCE(SUM(c.weight_kg), 0)", "COALESCE(SUM(c.bales), 0)").
		From("production_consumed c").
		Join("production_docs d ON d.id = c.doc_id").
		Where(squirrel.Eq{"c.batch_id": batchID})
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"d.date": *asOf})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build query: %w", err)
	}

	var kg types.Quantity
	var bales int
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&kg, &bales); err != nil {
		return 0, 0, fmt.Errorf("consumption by batch: %w", err)
	}
	return kg, bales, nil
}
