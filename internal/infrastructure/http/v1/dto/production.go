package dto

import (
	"time"

	"millstock/internal/core/types"
	"millstock/internal/domain/documents/production"
)

// ConsumedLineRequest is one cotton consumption line.
type ConsumedLineRequest struct {
	BatchID  string  `json:"batchId" binding:"required"`
	WeightKg float64 `json:"weightKg" binding:"required,gt=0"`
	Bales    int     `json:"bales" binding:"min=0"`
}

// ProducedLineRequest is one yarn output line.
type ProducedLineRequest struct {
	Count    string  `json:"count" binding:"required"`
	WeightKg float64 `json:"weightKg" binding:"required,gt=0"`
	Bags     int     `json:"bags" binding:"min=0"`
}

// CreateProductionRequest for posting a production run.
type CreateProductionRequest struct {
	Date     time.Time             `json:"date" binding:"required"`
	WasteKg  float64               `json:"wasteKg" binding:"min=0"`
	Comment  string                `json:"comment"`
	Consumed []ConsumedLineRequest `json:"consumed" binding:"required,min=1,dive"`
	Produced []ProducedLineRequest `json:"produced" binding:"required,min=1,dive"`
}

// ToDomain converts the request to a domain document.
func (r *CreateProductionRequest) ToDomain() *production.Production {
	doc := &production.Production{
		Date:    r.Date,
		WasteKg: types.NewQuantityFromFloat64(r.WasteKg),
		Comment: r.Comment,
	}
	for i, line := range r.Consumed {
		doc.Consumed = append(doc.Consumed, production.ConsumedLine{
			LineNo:   i + 1,
			BatchID:  line.BatchID,
			WeightKg: types.NewQuantityFromFloat64(line.WeightKg),
			Bales:    line.Bales,
		})
	}
	for i, line := range r.Produced {
		doc.Produced = append(doc.Produced, production.ProducedLine{
			LineNo:   i + 1,
			Count:    line.Count,
			WeightKg: types.NewQuantityFromFloat64(line.WeightKg),
			Bags:     line.Bags,
		})
	}
	return doc
}

// ProductionResponse represents a production run in API responses.
type ProductionResponse struct {
	ID        string                 `json:"id"`
	Number    string                 `json:"number"`
	Date      time.Time              `json:"date"`
	WasteKg   float64                `json:"wasteKg"`
	Comment   string                 `json:"comment,omitempty"`
	Consumed  []ConsumedLineResponse `json:"consumed"`
	Produced  []ProducedLineResponse `json:"produced"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ConsumedLineResponse is one consumption line in responses.
type ConsumedLineResponse struct {
	LineNo   int     `json:"lineNo"`
	BatchID  string  `json:"batchId"`
	WeightKg float64 `json:"weightKg"`
	Bales    int     `json:"bales"`
}

// ProducedLineResponse is one output line in responses.
type ProducedLineResponse struct {
	LineNo   int     `json:"lineNo"`
	Count    string  `json:"count"`
	WeightKg float64 `json:"weightKg"`
	Bags     int     `json:"bags"`
}

// FromProduction converts a domain document.
func FromProduction(doc *production.Production) ProductionResponse {
	resp := ProductionResponse{
		ID:        doc.ID.String(),
		Number:    doc.Number,
		Date:      doc.Date,
		WasteKg:   doc.WasteKg.Float64(),
		Comment:   doc.Comment,
		CreatedAt: doc.CreatedAt,
	}
	for _, line := range doc.Consumed {
		resp.Consumed = append(resp.Consumed, ConsumedLineResponse{
			LineNo:   line.LineNo,
			BatchID:  line.BatchID,
			WeightKg: line.WeightKg.Float64(),
			Bales:    line.Bales,
		})
	}
	for _, line := range doc.Produced {
		resp.Produced = append(resp.Produced, ProducedLineResponse{
			LineNo:   line.LineNo,
			Count:    line.Count,
			WeightKg: line.WeightKg.Float64(),
			Bags:     line.Bags,
		})
	}
	return resp
}

// FromProductions converts a slice of domain documents.
func FromProductions(docs []production.Production) []ProductionResponse {
	out := make([]ProductionResponse, 0, len(docs))
	for i := range docs {
		out = append(out, FromProduction(&docs[i]))
	}
	return out
}
