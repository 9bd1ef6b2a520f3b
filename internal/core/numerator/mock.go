package numerator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextNumberFunc func(ctx context.Context, cfg Config, period time.Time) (string, error)

	seq atomic.Int64
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, cfg, period)
	}
	// Default: predictable in-memory sequence
	n := m.seq.Add(1)
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), n), nil
	}
	return fmt.Sprintf("%s-%05d", cfg.Prefix, n), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
