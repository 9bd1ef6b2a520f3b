package dto

import (
	"time"
)

// RecycleWasteRequest converts waste back into usable cotton.
type RecycleWasteRequest struct {
	Date     time.Time `json:"date" binding:"required"`
	WeightKg float64   `json:"weightKg" binding:"required,gt=0"`
	Comment  string    `json:"comment"`
}

// ExportWasteRequest sells waste to an outside buyer.
type ExportWasteRequest struct {
	Date     time.Time `json:"date" binding:"required"`
	WeightKg float64   `json:"weightKg" binding:"required,gt=0"`
	Buyer    string    `json:"buyer" binding:"required"`
	Comment  string    `json:"comment"`
}
