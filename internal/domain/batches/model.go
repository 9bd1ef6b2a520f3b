// Package batches provides the inward batch registry: every receipt of raw
// cotton is tracked individually so production can never consume more from
// a batch than was received.
package batches

import (
	"context"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/types"
)

// Batch is one inward receipt of raw cotton.
type Batch struct {
	// BatchID is the unique business key (supplier lot number).
	BatchID string `db:"batch_id" json:"batchId"`

	// Date is the receipt date.
	Date time.Time `db:"date" json:"date"`

	Supplier string `db:"supplier" json:"supplier"`

	// OriginalBale and OriginalKg are the received totals. Consumed and
	// remaining amounts are derived from ledger movements, never stored.
	OriginalBale int            `db:"original_bale" json:"originalBale"`
	OriginalKg   types.Quantity `db:"original_kg" json:"originalKg"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks the batch fields before registration.
func (b *Batch) Validate(ctx context.Context) error {
	if b.BatchID == "" {
		return apperror.NewValidation("batch id is required").
			WithDetail("field", "batchId")
	}
	if b.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if b.Supplier == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplier")
	}
	if !b.OriginalKg.IsPositive() {
		return apperror.NewValidation("weight must be positive").
			WithDetail("field", "originalKg")
	}
	if b.OriginalBale <= 0 {
		return apperror.NewValidation("bale count must be positive").
			WithDetail("field", "originalBale")
	}
	return nil
}
