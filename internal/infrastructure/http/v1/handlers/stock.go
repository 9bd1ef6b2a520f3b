package handlers

import (
	"github.com/gin-gonic/gin"

	"millstock/internal/core/apperror"
	"millstock/internal/domain/stockquery"
	"millstock/internal/infrastructure/http/v1/dto"
	"millstock/internal/ledger"
)

// StockHandler serves point-in-time stock queries and movement history.
type StockHandler struct {
	*BaseHandler
	stock  *stockquery.Service
	ledger *ledger.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, stock *stockquery.Service, ledgerSvc *ledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, stock: stock, ledger: ledgerSvc}
}

// ByMaterial returns per-partition balances for one material.
// GET /api/v1/stock/:material?asOf=2026-01-15
func (h *StockHandler) ByMaterial(c *gin.Context) {
	material := c.Param("material")
	asOf, ok := h.AsOfQuery(c)
	if !ok {
		return
	}

	balances, err := h.stock.StockByMaterial(c.Request.Context(), material, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	stock := make(map[string]float64, len(balances))
	for key, balance := range balances {
		stock[key] = balance.Float64()
	}
	h.OK(c, dto.NewStockResponse(material, asOf, stock))
}

// AvailableBatches returns batches with usable cotton remaining.
// GET /api/v1/stock/batches/available?asOf=2026-01-15
func (h *StockHandler) AvailableBatches(c *gin.Context) {
	asOf, ok := h.AsOfQuery(c)
	if !ok {
		return
	}

	rows, err := h.stock.AvailableBatches(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.BatchAvailabilityResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.FromBatchAvailability(row))
	}
	h.OK(c, out)
}

// Turnover returns the period turnover for one stream.
// GET /api/v1/stock/turnover?stream=Yarn:30s&from=2026-01-01&to=2026-01-31
func (h *StockHandler) Turnover(c *gin.Context) {
	stream := ledger.StreamKey(c.Query("stream"))
	if stream == "" {
		h.Error(c, apperror.NewValidation("stream parameter is required"))
		return
	}

	from, ok := h.ParseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.ParseDateQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewValidation("from and to parameters are required"))
		return
	}

	t, err := h.stock.StreamTurnover(c.Request.Context(), stream, *from, *to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTurnover(t))
}

// History returns filtered movement history for a stream, newest first.
// GET /api/v1/stock/history?stream=Cotton&type=PRODUCTION&limit=50
func (h *StockHandler) History(c *gin.Context) {
	stream := ledger.StreamKey(c.Query("stream"))
	if stream == "" {
		h.Error(c, apperror.NewValidation("stream parameter is required"))
		return
	}

	filter := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if typ := c.Query("type"); typ != "" {
		mt := ledger.MovementType(typ)
		filter.Type = &mt
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

	movements, err := h.ledger.History(c.Request.Context(), stream, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMovements(movements))
}
