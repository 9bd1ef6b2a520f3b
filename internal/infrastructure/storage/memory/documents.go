package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/domain/documents/outward"
	"millstock/internal/domain/documents/production"
)

// ProductionRepository is a map-backed production.Repository.
type ProductionRepository struct {
	mu   sync.RWMutex
	rows map[id.ID]production.Production
}

// NewProductionRepository creates an empty in-memory production store.
func NewProductionRepository() *ProductionRepository {
	return &ProductionRepository{rows: make(map[id.ID]production.Production)}
}

func (r *ProductionRepository) Create(_ context.Context, doc *production.Production) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[doc.ID]; ok {
		return apperror.NewDuplicate("production", "id", doc.ID.String())
	}
	r.rows[doc.ID] = cloneProduction(doc)
	return nil
}

func (r *ProductionRepository) GetByID(_ context.Context, docID id.ID) (*production.Production, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.rows[docID]
	if !ok {
		return nil, apperror.NewNotFound("production", docID)
	}
	out := cloneProduction(&doc)
	return &out, nil
}

func (r *ProductionRepository) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[docID]; !ok {
		return apperror.NewNotFound("production", docID)
	}
	delete(r.rows, docID)
	return nil
}

func (r *ProductionRepository) List(_ context.Context, filter production.ListFilter) ([]production.Production, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []production.Production
	for _, doc := range r.rows {
		if filter.FromDate != nil && doc.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && doc.Date.After(*filter.ToDate) {
			continue
		}
		out = append(out, cloneProduction(&doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (r *ProductionRepository) ConsumptionByBatch(_ context.Context, batchID string, asOf *time.Time) (types.Quantity, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kg types.Quantity
	var bales int
	for _, doc := range r.rows {
		if asOf != nil && doc.Date.After(*asOf) {
			continue
		}
		for _, line := range doc.Consumed {
			if line.BatchID == batchID {
				kg += line.WeightKg
				bales += line.Bales
			}
		}
	}
	return kg, bales, nil
}

func cloneProduction(doc *production.Production) production.Production {
	out := *doc
	out.Consumed = append([]production.ConsumedLine(nil), doc.Consumed...)
	out.Produced = append([]production.ProducedLine(nil), doc.Produced...)
	return out
}

// OutwardRepository is a map-backed outward.Repository.
type OutwardRepository struct {
	mu   sync.RWMutex
	rows map[id.ID]outward.Outward
}

// NewOutwardRepository creates an empty in-memory outward store.
func NewOutwardRepository() *OutwardRepository {
	return &OutwardRepository{rows: make(map[id.ID]outward.Outward)}
}

func (r *OutwardRepository) Create(_ context.Context, doc *outward.Outward) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[doc.ID]; ok {
		return apperror.NewDuplicate("outward", "id", doc.ID.String())
	}
	r.rows[doc.ID] = cloneOutward(doc)
	return nil
}

func (r *OutwardRepository) GetByID(_ context.Context, docID id.ID) (*outward.Outward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.rows[docID]
	if !ok {
		return nil, apperror.NewNotFound("outward", docID)
	}
	out := cloneOutward(&doc)
	return &out, nil
}

func (r *OutwardRepository) Delete(_ context.Context, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[docID]; !ok {
		return apperror.NewNotFound("outward", docID)
	}
	delete(r.rows, docID)
	return nil
}

func (r *OutwardRepository) List(_ context.Context, filter outward.ListFilter) ([]outward.Outward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []outward.Outward
	for _, doc := range r.rows {
		if filter.Customer != nil && doc.Customer != *filter.Customer {
			continue
		}
		if filter.FromDate != nil && doc.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && doc.Date.After(*filter.ToDate) {
			continue
		}
		out = append(out, cloneOutward(&doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return paginate(out, filter.Offset, filter.Limit), nil
}

func cloneOutward(doc *outward.Outward) outward.Outward {
	out := *doc
	out.Items = append([]outward.Item(nil), doc.Items...)
	return out
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
