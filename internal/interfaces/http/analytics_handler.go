package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/analytics"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// AnalyticsHandler expone alertas, resumen, consumo, costos, rotación y reposición (protegido).
type AnalyticsHandler struct {
	stock   *analytics.StockAnalyticsUseCase
	reorder *analytics.ReorderUseCase
	report  *analytics.ReportUseCase
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(stock *analytics.StockAnalyticsUseCase, reorder *analytics.ReorderUseCase, report *analytics.ReportUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{stock: stock, reorder: reorder, report: report}
}

// LowStock godoc
// @Summary      Ítems en o bajo el mínimo
// @Description  Solo ítems activos, ascendente por stock actual.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockAlertListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/analytics/low-stock [get]
func (h *AnalyticsHandler) LowStock(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.stock.LowStock(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Expiring godoc
// @Summary      Ítems por vencer
// @Description  Incluye los ya vencidos; ascendente por fecha de vencimiento.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        days  query     int  false  "Ventana en días (default EXPIRY_WARNING_DAYS)"
// @Success      200   {object}  dto.StockAlertListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/analytics/expiring [get]
func (h *AnalyticsHandler) Expiring(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	days := c.QueryInt("days", h.stock.ExpiringDays())
	out, err := h.stock.Expiring(c.Context(), actor, days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Expired godoc
// @Summary      Ítems vencidos
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockAlertListResponse
// @Router       /api/analytics/expired [get]
func (h *AnalyticsHandler) Expired(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.stock.Expired(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de existencias
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryDTO
// @Router       /api/analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.stock.Summary(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Usage godoc
// @Summary      Consumo por categoría
// @Description  Σ cantidad de salidas (OUT, TRANSFER, EXPIRED, DAMAGED) en la ventana.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        from      query     string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to        query     string  false  "Hasta"
// @Param        days      query     int     false  "Últimos N días (alternativa a from/to)"
// @Param        category  query     string  false  "Categoría"
// @Success      200       {object}  dto.UsageAnalyticsDTO
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /api/analytics/usage [get]
func (h *AnalyticsHandler) Usage(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var req dto.WindowRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.stock.Usage(c.Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cost godoc
// @Summary      Costo y valor por categoría
// @Description  Σ cantidad * costo unitario y Σ cantidad * precio sobre todos los movimientos de la ventana.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        from      query     string  false  "Desde"
// @Param        to        query     string  false  "Hasta"
// @Param        days      query     int     false  "Últimos N días"
// @Param        category  query     string  false  "Categoría"
// @Success      200       {object}  dto.CostAnalysisDTO
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /api/analytics/cost [get]
func (h *AnalyticsHandler) Cost(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var req dto.WindowRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.stock.Cost(c.Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Turnover godoc
// @Summary      Rotación del ítem
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        id    path      string  true   "ID del ítem"
// @Param        days  query     int     false  "Ventana en días (default 30)"
// @Success      200   {object}  dto.TurnoverDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/turnover [get]
func (h *AnalyticsHandler) Turnover(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.stock.Turnover(c.Context(), actor, c.Params("id"), c.QueryInt("days", 30))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reorder godoc
// @Summary      Sugerencias de reposición
// @Description  Ítems bajo mínimo con la cantidad sugerida, priorizados por días de cobertura.
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReorderSuggestionDTO
// @Router       /api/analytics/reorder [get]
func (h *AnalyticsHandler) Reorder(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	list, err := h.reorder.Suggestions(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":       len(list),
		"suggestions": list,
	})
}

// StockReport godoc
// @Summary      Reporte de existencias en PDF
// @Tags         analytics
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/analytics/report.pdf [get]
func (h *AnalyticsHandler) StockReport(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	pdf, err := h.report.StockReportPDF(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="existencias.pdf"`)
	return c.Send(pdf)
}
