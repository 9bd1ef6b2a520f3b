package handlers

import (
	"github.com/gin-gonic/gin"

	"millstock/internal/core/types"
	"millstock/internal/domain/batches"
	"millstock/internal/infrastructure/http/v1/dto"
)

// BatchHandler handles inward cotton batch requests.
type BatchHandler struct {
	*BaseHandler
	service *batches.Service
}

// NewBatchHandler creates a batch handler.
func NewBatchHandler(base *BaseHandler, service *batches.Service) *BatchHandler {
	return &BatchHandler{BaseHandler: base, service: service}
}

// Register registers an inward batch and posts its cotton movement.
// POST /api/v1/batches
func (h *BatchHandler) Register(c *gin.Context) {
	var req dto.RegisterBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := &batches.Batch{
		BatchID:      req.BatchID,
		Date:         req.Date,
		Supplier:     req.Supplier,
		OriginalBale: req.Bales,
		OriginalKg:   types.NewQuantityFromFloat64(req.WeightKg),
	}
	if err := h.service.Register(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b.BatchID)
}

// Get returns one batch.
// GET /api/v1/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatch(b))
}

// List returns all batches.
// GET /api/v1/batches
func (h *BatchHandler) List(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.BatchResponse, 0, len(all))
	for i := range all {
		out = append(out, dto.FromBatch(&all[i]))
	}
	h.OK(c, out)
}

// Delete removes a batch that no production run has consumed from.
// DELETE /api/v1/batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
