// Package outward provides the outward dispatch document: yarn leaving the
// mill to a customer, itemized by spun count.
package outward

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/core/types"
	"millstock/internal/ledger"
)

// Outward is one dispatch header with its line items.
type Outward struct {
	ID       id.ID     `db:"id" json:"id"`
	Number   string    `db:"number" json:"number"`
	Date     time.Time `db:"date" json:"date"`
	Customer string    `db:"customer" json:"customer"`

	Comment string `db:"comment" json:"comment,omitempty"`

	Items []Item `db:"-" json:"items"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Item is one dispatched yarn count. Rate and Amount are dispatch figures
// carried for the delivery note; invoicing itself is out of scope.
type Item struct {
	LineNo   int            `db:"line_no" json:"lineNo"`
	Count    string         `db:"count" json:"count"`
	WeightKg types.Quantity `db:"weight_kg" json:"weightKg"`
	Bags     int            `db:"bags" json:"bags"`
	Rate     types.Money    `db:"rate" json:"rate"`
	Amount   types.Money    `db:"amount" json:"amount"`
}

// Reference returns the ledger reference shared by all movements of the
// dispatch ("O-<outward id>").
func (o *Outward) Reference() string {
	return "O-" + o.ID.String()
}

// Streams returns the yarn partitions the dispatch touches.
func (o *Outward) Streams() []ledger.StreamKey {
	streams := make([]ledger.StreamKey, 0, len(o.Items))
	for _, item := range o.Items {
		streams = append(streams, ledger.YarnStream(item.Count))
	}
	return streams
}

// TotalWeightKg sums the item weights.
func (o *Outward) TotalWeightKg() types.Quantity {
	var total types.Quantity
	for _, item := range o.Items {
		total += item.WeightKg
	}
	return total
}

// TotalAmount sums the item amounts.
func (o *Outward) TotalAmount() types.Money {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// ComputeAmounts fills each item amount from rate * weight where the
// amount was not supplied explicitly.
func (o *Outward) ComputeAmounts() {
	for i := range o.Items {
		item := &o.Items[i]
		if item.Amount.IsZero() && !item.Rate.IsZero() {
			item.Amount = item.Rate.Mul(decimal.NewFromFloat(item.WeightKg.Float64()))
		}
	}
}

// Validate checks the document before creation.
func (o *Outward) Validate(ctx context.Context) error {
	if o.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if o.Customer == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customer")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
		if item.Count == "" {
			return apperror.NewValidation("yarn count is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.WeightKg.IsPositive() {
			return apperror.NewValidation("weight must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Rate.IsNegative() {
			return apperror.NewValidation("rate must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
