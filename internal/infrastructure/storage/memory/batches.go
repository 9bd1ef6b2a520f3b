package memory

import (
	"context"
	"sort"
	"sync"

	"millstock/internal/core/apperror"
	"millstock/internal/domain/batches"
)

// BatchRepository is a map-backed batches.Repository.
type BatchRepository struct {
	mu   sync.RWMutex
	rows map[string]batches.Batch
}

// NewBatchRepository creates an empty in-memory batch store.
func NewBatchRepository() *BatchRepository {
	return &BatchRepository{rows: make(map[string]batches.Batch)}
}

func (r *BatchRepository) Create(_ context.Context, b *batches.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[b.BatchID]; ok {
		return apperror.NewDuplicate("batch", "batch_id", b.BatchID)
	}
	r.rows[b.BatchID] = *b
	return nil
}

func (r *BatchRepository) GetByID(_ context.Context, batchID string) (*batches.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.rows[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	return &b, nil
}

func (r *BatchRepository) Exists(_ context.Context, batchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rows[batchID]
	return ok, nil
}

func (r *BatchRepository) Delete(_ context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[batchID]; !ok {
		return apperror.NewNotFound("batch", batchID)
	}
	delete(r.rows, batchID)
	return nil
}

func (r *BatchRepository) List(_ context.Context) ([]batches.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]batches.Batch, 0, len(r.rows))
	for _, b := range r.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out, nil
}
