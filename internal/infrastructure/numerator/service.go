// Package numerator provides the PostgreSQL implementation of document
// auto-numbering. It implements the core/numerator.Generator contract.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "millstock/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service generates strictly sequential document numbers through an
// UPSERT + RETURNING on a sequence table. Stock documents are accounting
// documents, so there is no cached range variant: gaps are not acceptable.
type Service struct {
	querier Querier
}

// Compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service. The querier is typically the pool, not
// a transaction: numbers are reserved before the business transaction and
// a rolled-back document simply abandons its reservation attempt.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// NextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., PR-2026-00001).
func (s *Service) NextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (sequence_type, year, current_val)
        VALUES ($1, $2, 1)
        ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, cfg.Prefix, period.Year()).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number: %w", err)
	}

	return formatNumber(cfg, period, num), nil
}

func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth <= 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
