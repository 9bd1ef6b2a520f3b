// Package production provides the production run document: one spinning run
// that consumes raw cotton from specific batches and produces yarn by count,
// plus process waste.
package production

import (
	"context"
	"time"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/ledger"
)

// Production is one production run header with its line items.
//
// Creating or deleting a run touches several ledger streams at once: one
// negative Cotton movement per consumed line, one positive Yarn movement
// per produced line, and at most one positive Waste movement, all carrying
// the run's reference for cascade deletion.
type Production struct {
	ID     id.ID     `db:"id" json:"id"`
	Number string    `db:"number" json:"number"`
	Date   time.Time `db:"date" json:"date"`

	// WasteKg is the process waste of the run (zero allowed).
	WasteKg types.Quantity `db:"waste_kg" json:"wasteKg"`

	Comment string `db:"comment" json:"comment,omitempty"`

	Consumed []ConsumedLine `db:"-" json:"consumed"`
	Produced []ProducedLine `db:"-" json:"produced"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ConsumedLine is one batch drawn down by the run. Bales are tracked per
// line directly, not derived from the kg ratio, so bale accounting does
// not compound rounding error.
type ConsumedLine struct {
	LineNo   int            `db:"line_no" json:"lineNo"`
	BatchID  string         `db:"batch_id" json:"batchId"`
	WeightKg types.Quantity `db:"weight_kg" json:"weightKg"`
	Bales    int            `db:"bales" json:"bales"`
}

// ProducedLine is one yarn count produced by the run.
type ProducedLine struct {
	LineNo   int            `db:"line_no" json:"lineNo"`
	Count    string         `db:"count" json:"count"`
	WeightKg types.Quantity `db:"weight_kg" json:"weightKg"`
	Bags     int            `db:"bags" json:"bags"`
}

// Reference returns the ledger reference shared by all movements of the run.
func (p *Production) Reference() string {
	return "P-" + p.ID.String()
}

// TotalConsumedKg sums the consumed line weights.
func (p *Production) TotalConsumedKg() types.Quantity {
	var total types.Quantity
	for _, line := range p.Consumed {
		total += line.WeightKg
	}
	return total
}

// TotalProducedKg sums the produced line weights.
func (p *Production) TotalProducedKg() types.Quantity {
	var total types.Quantity
	for _, line := range p.Produced {
		total += line.WeightKg
	}
	return total
}

// Streams returns every ledger stream the run touches.
func (p *Production) Streams() []ledger.StreamKey {
	streams := []ledger.StreamKey{ledger.StreamCotton}
	for _, line := range p.Produced {
		streams = append(streams, ledger.YarnStream(line.Count))
	}
	if p.WasteKg.IsPositive() {
		streams = append(streams, ledger.StreamWaste)
	}
	return streams
}

// Validate checks the document before creation.
func (p *Production) Validate(ctx context.Context) error {
	if p.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if len(p.Consumed) == 0 {
		return apperror.NewValidation("at least one consumed batch line is required").
			WithDetail("field", "consumed")
	}
	if len(p.Produced) == 0 {
		return apperror.NewValidation("at least one produced yarn line is required").
			WithDetail("field", "produced")
	}
	if p.WasteKg.IsNegative() {
		return apperror.NewValidation("waste must not be negative").
			WithDetail("field", "wasteKg")
	}

	for i, line := range p.Consumed {
		if line.BatchID == "" {
			return apperror.NewValidation("batch id is required").
				WithDetail("field", "consumed").
				WithDetail("lineNo", i+1)
		}
		if !line.WeightKg.IsPositive() {
			return apperror.NewValidation("consumed weight must be positive").
				WithDetail("field", "consumed").
				WithDetail("lineNo", i+1)
		}
	}

	for i, line := range p.Produced {
		if line.Count == "" {
			return apperror.NewValidation("yarn count is required").
				WithDetail("field", "produced").
				WithDetail("lineNo", i+1)
		}
		if !line.WeightKg.IsPositive() {
			return apperror.NewValidation("produced weight must be positive").
				WithDetail("field", "produced").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
