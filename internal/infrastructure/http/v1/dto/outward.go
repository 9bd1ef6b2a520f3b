package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"millstock/internal/core/types"
	"millstock/internal/domain/documents/outward"
)

// OutwardItemRequest is one dispatched yarn count.
type OutwardItemRequest struct {
	Count    string  `json:"count" binding:"required"`
	WeightKg float64 `json:"weightKg" binding:"required,gt=0"`
	Bags     int     `json:"bags" binding:"min=0"`
	Rate     string  `json:"rate"`
	Amount   string  `json:"amount"`
}

// CreateOutwardRequest for posting an outward dispatch.
type CreateOutwardRequest struct {
	Date     time.Time            `json:"date" binding:"required"`
	Customer string               `json:"customer" binding:"required"`
	Comment  string               `json:"comment"`
	Items    []OutwardItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToDomain converts the request to a domain document. Rate and amount are
// decimal strings; empty strings mean zero.
func (r *CreateOutwardRequest) ToDomain() (*outward.Outward, error) {
	doc := &outward.Outward{
		Date:     r.Date,
		Customer: r.Customer,
		Comment:  r.Comment,
	}
	for i, item := range r.Items {
		rate, err := parseMoney(item.Rate)
		if err != nil {
			return nil, err
		}
		amount, err := parseMoney(item.Amount)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, outward.Item{
			LineNo:   i + 1,
			Count:    item.Count,
			WeightKg: types.NewQuantityFromFloat64(item.WeightKg),
			Bags:     item.Bags,
			Rate:     rate,
			Amount:   amount,
		})
	}
	return doc, nil
}

func parseMoney(s string) (types.Money, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return types.NewMoneyFromString(s)
}

// OutwardItemResponse is one dispatched item in responses.
type OutwardItemResponse struct {
	LineNo   int     `json:"lineNo"`
	Count    string  `json:"count"`
	WeightKg float64 `json:"weightKg"`
	Bags     int     `json:"bags"`
	Rate     string  `json:"rate"`
	Amount   string  `json:"amount"`
}

// OutwardResponse represents a dispatch in API responses.
type OutwardResponse struct {
	ID          string                `json:"id"`
	Number      string                `json:"number"`
	Date        time.Time             `json:"date"`
	Customer    string                `json:"customer"`
	Comment     string                `json:"comment,omitempty"`
	Items       []OutwardItemResponse `json:"items"`
	TotalKg     float64               `json:"totalKg"`
	TotalAmount string                `json:"totalAmount"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// FromOutward converts a domain document.
func FromOutward(doc *outward.Outward) OutwardResponse {
	resp := OutwardResponse{
		ID:          doc.ID.String(),
		Number:      doc.Number,
		Date:        doc.Date,
		Customer:    doc.Customer,
		Comment:     doc.Comment,
		TotalKg:     doc.TotalWeightKg().Float64(),
		TotalAmount: doc.TotalAmount().StringFixed(2),
		CreatedAt:   doc.CreatedAt,
	}
	for _, item := range doc.Items {
		resp.Items = append(resp.Items, OutwardItemResponse{
			LineNo:   item.LineNo,
			Count:    item.Count,
			WeightKg: item.WeightKg.Float64(),
			Bags:     item.Bags,
			Rate:     item.Rate.StringFixed(2),
			Amount:   item.Amount.StringFixed(2),
		})
	}
	return resp
}

// FromOutwards converts a slice of domain documents.
func FromOutwards(docs []outward.Outward) []OutwardResponse {
	out := make([]OutwardResponse, 0, len(docs))
	for i := range docs {
		out = append(out, FromOutward(&docs[i]))
	}
	return out
}
