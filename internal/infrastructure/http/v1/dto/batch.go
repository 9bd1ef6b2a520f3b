package dto

import (
	"time"

	"millstock/internal/domain/batches"
)

// RegisterBatchRequest for registering an inward cotton batch.
type RegisterBatchRequest struct {
	BatchID  string    `json:"batchId" binding:"required"`
	Date     time.Time `json:"date" binding:"required"`
	Supplier string    `json:"supplier" binding:"required"`
	Bales    int       `json:"bales" binding:"required,min=1"`
	WeightKg float64   `json:"weightKg" binding:"required,gt=0"`
}

// BatchResponse represents a batch in API responses.
type BatchResponse struct {
	BatchID      string    `json:"batchId"`
	Date         time.Time `json:"date"`
	Supplier     string    `json:"supplier"`
	OriginalBale int       `json:"originalBale"`
	OriginalKg   float64   `json:"originalKg"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromBatch converts a domain batch.
func FromBatch(b *batches.Batch) BatchResponse {
	return BatchResponse{
		BatchID:      b.BatchID,
		Date:         b.Date,
		Supplier:     b.Supplier,
		OriginalBale: b.OriginalBale,
		OriginalKg:   b.OriginalKg.Float64(),
		CreatedAt:    b.CreatedAt,
	}
}
