package dto

import (
	"time"

	"millstock/internal/domain/stockquery"
	"millstock/internal/ledger"
)

// StockResponse maps partition keys to balances in kilograms.
type StockResponse struct {
	Material string             `json:"material"`
	AsOf     time.Time          `json:"asOf"`
	Stock    map[string]float64 `json:"stock"`
}

// NewStockResponse converts a stockquery result.
func NewStockResponse(material string, asOf time.Time, stock map[string]float64) StockResponse {
	return StockResponse{Material: material, AsOf: asOf, Stock: stock}
}

// BatchAvailabilityResponse is one row of the available-batches report.
type BatchAvailabilityResponse struct {
	BatchID       string    `json:"batchId"`
	Date          time.Time `json:"date"`
	Supplier      string    `json:"supplier"`
	OriginalKg    float64   `json:"originalKg"`
	OriginalBale  int       `json:"originalBale"`
	UsedKg        float64   `json:"usedKg"`
	UsedBale      int       `json:"usedBale"`
	RemainingKg   float64   `json:"remainingKg"`
	RemainingBale int       `json:"remainingBale"`
}

// FromBatchAvailability converts a domain row.
func FromBatchAvailability(a stockquery.BatchAvailability) BatchAvailabilityResponse {
	return BatchAvailabilityResponse{
		BatchID:       a.BatchID,
		Date:          a.Date,
		Supplier:      a.Supplier,
		OriginalKg:    a.OriginalKg.Float64(),
		OriginalBale:  a.OriginalBale,
		UsedKg:        a.UsedKg.Float64(),
		UsedBale:      a.UsedBale,
		RemainingKg:   a.RemainingKg.Float64(),
		RemainingBale: a.RemainingBale,
	}
}

// TurnoverResponse summarizes one stream over a period.
type TurnoverResponse struct {
	Stream   string    `json:"stream"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Opening  float64   `json:"opening"`
	Receipts float64   `json:"receipts"`
	Expenses float64   `json:"expenses"`
	Closing  float64   `json:"closing"`
}

// FromTurnover converts a domain turnover.
func FromTurnover(t *stockquery.Turnover) TurnoverResponse {
	return TurnoverResponse{
		Stream:   t.Stream.String(),
		From:     t.From,
		To:       t.To,
		Opening:  t.Opening.Float64(),
		Receipts: t.Receipts.Float64(),
		Expenses: t.Expenses.Float64(),
		Closing:  t.Closing.Float64(),
	}
}

// MovementResponse is one ledger movement in API responses.
type MovementResponse struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Stream    string    `json:"stream"`
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"`
	Balance   float64   `json:"balance"`
	Reference string    `json:"reference"`
	BatchID   string    `json:"batchId,omitempty"`
	PairID    *string   `json:"pairId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromMovement converts a ledger movement.
func FromMovement(m ledger.Movement) MovementResponse {
	resp := MovementResponse{
		ID:        m.ID,
		Date:      m.Date,
		Stream:    m.Stream.String(),
		Type:      string(m.Type),
		Quantity:  m.Quantity.Float64(),
		Balance:   m.Balance.Float64(),
		Reference: m.Reference,
		BatchID:   m.BatchID,
		CreatedAt: m.CreatedAt,
	}
	if m.PairID != nil {
		s := m.PairID.String()
		resp.PairID = &s
	}
	return resp
}

// FromMovements converts a slice of ledger movements.
func FromMovements(ms []ledger.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMovement(m))
	}
	return out
}
