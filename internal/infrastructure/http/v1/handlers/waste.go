package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"millstock/internal/core/apperror"
	"millstock/internal/core/types"
	"millstock/internal/domain/waste"
	"millstock/internal/infrastructure/http/v1/dto"
)

// WasteHandler handles waste recycle and export requests.
type WasteHandler struct {
	*BaseHandler
	service *waste.Service
}

// NewWasteHandler creates a waste handler.
func NewWasteHandler(base *BaseHandler, service *waste.Service) *WasteHandler {
	return &WasteHandler{BaseHandler: base, service: service}
}

// Recycle converts waste back into usable cotton.
// POST /api/v1/waste/recycle
func (h *WasteHandler) Recycle(c *gin.Context) {
	var req dto.RecycleWasteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pairID, err := h.service.RecycleWaste(c.Request.Context(), waste.Recycle{
		Date:     req.Date,
		WeightKg: types.NewQuantityFromFloat64(req.WeightKg),
		Comment:  req.Comment,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, pairID.String())
}

// Export sells waste to an outside buyer.
// POST /api/v1/waste/export
func (h *WasteHandler) Export(c *gin.Context) {
	var req dto.ExportWasteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	exportID, err := h.service.ExportWaste(c.Request.Context(), waste.Export{
		Date:     req.Date,
		WeightKg: types.NewQuantityFromFloat64(req.WeightKg),
		Buyer:    req.Buyer,
		Comment:  req.Comment,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, exportID.String())
}

// DeleteMovement removes a recycle pair or export by movement id.
// DELETE /api/v1/waste/movements/:id
func (h *WasteHandler) DeleteMovement(c *gin.Context) {
	movementID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid movement id"))
		return
	}

	if err := h.service.DeleteMovement(c.Request.Context(), movementID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
