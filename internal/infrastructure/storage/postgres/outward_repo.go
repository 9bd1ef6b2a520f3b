package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/domain/documents/outward"
)

// Compile-time check.
var _ outward.Repository = (*OutwardRepo)(nil)

var outwardCols = []string{
	"id", "number", "date", "customer", "comment", "created_at",
}

// OutwardRepo is the PostgreSQL outward.Repository.
type OutwardRepo struct {
	txManager *TxManager
}

// NewOutwardRepo creates an outward repository.
func NewOutwardRepo(txManager *TxManager) *OutwardRepo {
	return &OutwardRepo{txManager: txManager}
}

func (r *OutwardRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *OutwardRepo) Create(ctx context.Context, doc *outward.Outward) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	querier := r.txManager.GetQuerier(ctx)

	q := r.builder().
		Insert("outward_docs").
		Columns(outwardCols...).
		Values(doc.ID, doc.Number, doc.Date, doc.Customer, doc.Comment, doc.CreatedAt)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert outward: %w", err)
	}

	items := r.builder().
		Insert("outward_items").
		Columns("doc_id", "line_no", "count", "weight_kg", "bags", "rate", "amount")
	for _, item := range doc.Items {
		items = items.Values(doc.ID, item.LineNo, item.Count, item.WeightKg, item.Bags, item.Rate, item.Amount)
	}
	sql, args, err = items.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert outward items: %w", err)
	}

	return nil
}

func (r *OutwardRepo) GetByID(ctx context.Context, docID id.ID) (*outward.Outward, error) {
	q := r.builder().
		Select(outwardCols...).
		From("outward_docs").
		Where(squirrel.Eq{"id": docID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc outward.Outward
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("outward", docID)
		}
		return nil, fmt.Errorf("get outward: %w", err)
	}

	if err := r.loadItems(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *OutwardRepo) loadItems(ctx context.Context, doc *outward.Outward) error {
	q := r.builder().
		Select("line_no", "count", "weight_kg", "bags", "rate", "amount").
		From("outward_items").
		Where(squirrel.Eq{"doc_id": doc.ID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &doc.Items, sql, args...); err != nil {
		return fmt.Errorf("load outward items: %w", err)
	}
	return nil
}

func (r *OutwardRepo) Delete(ctx context.Context, docID id.ID) error {
	// Items cascade on the doc_id foreign key.
	q := r.builder().Delete("outward_docs").Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete outward: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("outward", docID)
	}
	return nil
}

func (r *OutwardRepo) List(ctx context.Context, filter outward.ListFilter) ([]outward.Outward, error) {
	q := r.builder().
		Select(outwardCols...).
		From("outward_docs").
		OrderBy("date DESC", "created_at DESC")

	if filter.Customer != nil {
		q = q.Where(squirrel.Eq{"customer": *filter.Customer})
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

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var docs []outward.Outward
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list outward: %w", err)
	}

	for i := range docs {
		if err := r.loadItems(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}
