// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PR", "OD")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// Generator generates sequential document numbers.
// Pattern: PREFIX-YEAR-XXXXX (e.g., PR-2026-00001).
//
// Stock documents are accounting documents, so every implementation uses
// the strict (UPDATE ... RETURNING) strategy: sequential numbers, no gaps.
type Generator interface {
	// NextNumber generates the next document number for the period.
	NextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)
}
