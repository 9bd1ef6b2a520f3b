package handlers

import (
	"github.com/gin-gonic/gin"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/domain/documents/production"
	"millstock/internal/infrastructure/http/v1/dto"
)

// ProductionHandler handles production run requests.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a production handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service}
}

// Create validates and posts a production run.
// POST /api/v1/production
func (h *ProductionHandler) Create(c *gin.Context) {
	var req dto.CreateProductionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToDomain()
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduction(doc))
}

// Get returns one production run with lines.
// GET /api/v1/production/:id
func (h *ProductionHandler) Get(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduction(doc))
}

// List returns production runs, newest first.
// GET /api/v1/production?from=2026-01-01&limit=50
func (h *ProductionHandler) List(c *gin.Context) {
	filter := production.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	from, ok := h.ParseDateQuery(c, "from")
	if !ok {
		return
	}
	filter.FromDate = from

	to, ok := h.ParseDateQuery(c, "to")
	if !ok {
		return
	}
	filter.ToDate = to

	docs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProductions(docs))
}

// Delete removes a production run and its movements.
// DELETE /api/v1/production/:id
func (h *ProductionHandler) Delete(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
