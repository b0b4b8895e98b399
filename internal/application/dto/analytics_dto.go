package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Query parameters ──────────────────────────────────────────────────────────

// WindowRequest parámetros de ventana para GET /api/analytics/usage y /cost.
type WindowRequest struct {
	From     string `query:"from"`     // YYYY-MM-DD o RFC3339; por defecto hace 30 días
	To       string `query:"to"`       // por defecto ahora
	Days     int    `query:"days"`     // alternativa a from/to: últimos N días
	Category string `query:"category"` // opcional
}

// ── Alertas ───────────────────────────────────────────────────────────────────

// StockAlertListResponse lista de ítems en alerta (bajo stock, por vencer, vencidos).
type StockAlertListResponse struct {
	Total int            `json:"total"`
	Items []ItemResponse `json:"items"`
}

// ── Resumen ───────────────────────────────────────────────────────────────────

// StockSummaryDTO agregado sobre ítems activos.
type StockSummaryDTO struct {
	TotalItems        int64            `json:"total_items"`
	TotalValue        decimal.Decimal  `json:"total_value"`
	LowStockCount     int64            `json:"low_stock_count"`
	OutOfStockCount   int64            `json:"out_of_stock_count"`
	ExpiringSoonCount int64            `json:"expiring_soon_count"`
	ExpiredCount      int64            `json:"expired_count"`
	ByCategory        map[string]int64 `json:"by_category"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// ── Consumo y costos ──────────────────────────────────────────────────────────

// CategoryUsageDTO salidas por categoría en la ventana.
type CategoryUsageDTO struct {
	Category      string `json:"category"`
	TotalQuantity int64  `json:"total_quantity"`
	MovementCount int64  `json:"movement_count"`
}

// UsageAnalyticsDTO respuesta de GET /api/analytics/usage.
type UsageAnalyticsDTO struct {
	From       time.Time          `json:"from"`
	To         time.Time          `json:"to"`
	Categories []CategoryUsageDTO `json:"categories"`
	TotalQty   int64              `json:"total_quantity"`
}

// CategoryCostDTO costo y valor por categoría en la ventana.
type CategoryCostDTO struct {
	Category      string          `json:"category"`
	TotalQuantity int64           `json:"total_quantity"`
	MovementCount int64           `json:"movement_count"`
	Cost          decimal.Decimal `json:"cost"`  // Σ quantity * unit_cost
	Value         decimal.Decimal `json:"value"` // Σ quantity * unit_price
}

// CostAnalysisDTO respuesta de GET /api/analytics/cost.
type CostAnalysisDTO struct {
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	Categories []CategoryCostDTO `json:"categories"`
	TotalCost  decimal.Decimal   `json:"total_cost"`
	TotalValue decimal.Decimal   `json:"total_value"`
}

// TurnoverDTO rotación de un ítem: Σ salidas en la ventana / stock actual * 100.
type TurnoverDTO struct {
	ItemID       string          `json:"item_id"`
	SKU          string          `json:"sku"`
	WindowDays   int             `json:"window_days"`
	OutQuantity  int64           `json:"out_quantity"`
	CurrentStock int64           `json:"current_stock"`
	TurnoverRate decimal.Decimal `json:"turnover_rate"` // porcentaje; 0 si current_stock == 0
}

// ── Reposición ────────────────────────────────────────────────────────────────

// ReorderSuggestionDTO ítem bajo mínimo con la cantidad sugerida de pedido.
type ReorderSuggestionDTO struct {
	ItemID          string          `json:"item_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	CurrentStock    int64           `json:"current_stock"`
	MinimumStock    int64           `json:"minimum_stock"`
	TargetStock     int64           `json:"target_stock"`
	SuggestedQty    int64           `json:"suggested_qty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	UsageLast90Days int64           `json:"usage_last_90_days"`
	DaysOfCover     *int64          `json:"days_of_cover,omitempty"` // nil sin consumo en la ventana
	SupplierID      *string         `json:"supplier_id,omitempty"`
	Priority        int             `json:"priority"`
}

// ── Reporte PDF ───────────────────────────────────────────────────────────────

// StockReportDTO datos del reporte de existencias que se renderiza en PDF.
type StockReportDTO struct {
	Title        string
	GeneratedAt  time.Time
	ExpiringDays int
	Summary      StockSummaryDTO
	LowStock     []ItemResponse
	Expiring     []ItemResponse
}
