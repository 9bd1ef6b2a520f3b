package handlers

import (
	"github.com/gin-gonic/gin"

	"millstock/internal/core/apperror"
	"millstock/internal/core/id"
	"millstock/internal/domain/documents/outward"
	"millstock/internal/infrastructure/http/v1/dto"
)

// OutwardHandler handles outward dispatch requests.
type OutwardHandler struct {
	*BaseHandler
	service *outward.Service
}

// NewOutwardHandler creates an outward handler.
func NewOutwardHandler(base *BaseHandler, service *outward.Service) *OutwardHandler {
	return &OutwardHandler{BaseHandler: base, service: service}
}

// Create validates and posts an outward dispatch.
// POST /api/v1/outward
func (h *OutwardHandler) Create(c *gin.Context) {
	var req dto.CreateOutwardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToDomain()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid rate or amount").WithCause(err))
		return
	}

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOutward(doc))
}

// Get returns one dispatch with items.
// GET /api/v1/outward/:id
func (h *OutwardHandler) Get(c *gin.Context) {
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
	h.OK(c, dto.FromOutward(doc))
}

// List returns dispatches, newest first.
// GET /api/v1/outward?customer=Acme&limit=50
func (h *OutwardHandler) List(c *gin.Context) {
	filter := outward.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if customer := c.Query("customer"); customer != "" {
		filter.Customer = &customer
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
	h.OK(c, dto.FromOutwards(docs))
}

// Delete removes a dispatch and its yarn movements.
// DELETE /api/v1/outward/:id
func (h *OutwardHandler) Delete(c *gin.Context) {
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
