// Package memory provides in-memory repository implementations backed by
// maps and a mutex. They honor the same contracts as the postgres
// implementations and serve tests and local experiments; nothing persists
// across restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/ledger"
)

// LedgerRepository is a map-backed ledger.Repository.
type LedgerRepository struct {
	mu     sync.RWMutex
	rows   map[int64]ledger.Movement
	nextID int64
}

// NewLedgerRepository creates an empty in-memory ledger store.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{rows: make(map[int64]ledger.Movement)}
}

func (r *LedgerRepository) Insert(_ context.Context, m *ledger.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	m.ID = r.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.rows[m.ID] = *m
	return nil
}

func (r *LedgerRepository) GetByID(_ context.Context, movementID int64) (*ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.rows[movementID]
	if !ok {
		return nil, apperror.NewNotFound("movement", movementID)
	}
	return &m, nil
}

func (r *LedgerRepository) DeleteByID(_ context.Context, movementID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[movementID]; !ok {
		return apperror.NewNotFound("movement", movementID)
	}
	delete(r.rows, movementID)
	return nil
}

func (r *LedgerRepository) DeleteByReference(_ context.Context, reference string) ([]ledger.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []ledger.Movement
	for mid, m := range r.rows {
		if m.Reference == reference {
			deleted = append(deleted, m)
			delete(r.rows, mid)
		}
	}
	sortByDateID(deleted)
	return deleted, nil
}

func (r *LedgerRepository) ListByStream(_ context.Context, stream ledger.StreamKey) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for _, m := range r.rows {
		if m.Stream == stream {
			out = append(out, m)
		}
	}
	sortByDateID(out)
	return out, nil
}

func (r *LedgerRepository) ListByReference(_ context.Context, reference string) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for _, m := range r.rows {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	sortByDateID(out)
	return out, nil
}

func (r *LedgerRepository) FindByPairID(_ context.Context, pairID id.ID) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for _, m := range r.rows {
		if m.PairID != nil && *m.PairID == pairID {
			out = append(out, m)
		}
	}
	sortByDateID(out)
	return out, nil
}

func (r *LedgerRepository) LastAsOf(_ context.Context, stream ledger.StreamKey, asOf *time.Time) (*ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *ledger.Movement
	for mid := range r.rows {
		m := r.rows[mid]
		if m.Stream != stream {
			continue
		}
		if asOf != nil && m.Date.After(*asOf) {
			continue
		}
		if last == nil || last.Before(&m) {
			last = &m
		}
	}
	return last, nil
}

func (r *LedgerRepository) SumByStream(_ context.Context, stream ledger.StreamKey, asOf *time.Time) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum types.Quantity
	for _, m := range r.rows {
		if m.Stream != stream {
			continue
		}
		if asOf != nil && m.Date.After(*asOf) {
			continue
		}
		sum += m.Quantity
	}
	return sum, nil
}

func (r *LedgerRepository) UpdateBalances(_ context.Context, fixes []ledger.BalanceFix) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fix := range fixes {
		m, ok := r.rows[fix.MovementID]
		if !ok {
			return apperror.NewNotFound("movement", fix.MovementID)
		}
		m.Balance = fix.Balance
		r.rows[fix.MovementID] = m
	}
	return nil
}

func (r *LedgerRepository) ListStreams(_ context.Context) ([]ledger.StreamKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[ledger.StreamKey]struct{})
	var out []ledger.StreamKey
	for _, m := range r.rows {
		if _, ok := seen[m.Stream]; ok {
			continue
		}
		seen[m.Stream] = struct{}{}
		out = append(out, m.Stream)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *LedgerRepository) SumConsumedByBatch(_ context.Context, batchID string, asOf *time.Time) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum types.Quantity
	for _, m := range r.rows {
		if m.Type != ledger.TypeProduction || m.BatchID != batchID {
			continue
		}
		if m.Stream != ledger.StreamCotton {
			continue
		}
		if asOf != nil && m.Date.After(*asOf) {
			continue
		}
		if m.Quantity < 0 {
			sum -= m.Quantity
		} else {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func (r *LedgerRepository) HasProductionForBatch(_ context.Context, batchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.rows {
		if m.Type == ledger.TypeProduction && m.BatchID == batchID {
			return true, nil
		}
	}
	return false, nil
}

func (r *LedgerRepository) History(_ context.Context, stream ledger.StreamKey, filter ledger.HistoryFilter) ([]ledger.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ledger.Movement
	for _, m := range r.rows {
		if m.Stream != stream {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		if filter.FromDate != nil && m.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.Date.After(*filter.ToDate) {
			continue
		}
		out = append(out, m)
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[j].Before(&out[i]) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func sortByDateID(ms []ledger.Movement) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Before(&ms[j]) })
}
