package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// StockSummaryResult agregado crudo sobre ítems activos.
type StockSummaryResult struct {
	TotalItems   int64
	TotalValue   decimal.Decimal // Σ current_stock * unit_cost
	LowStock     int64
	OutOfStock   int64
	ExpiringSoon int64
	Expired      int64
	ByCategory   map[entity.ItemCategory]int64
}

// CategoryUsageResult consumo (salidas) agrupado por categoría.
type CategoryUsageResult struct {
	Category      entity.ItemCategory
	TotalQuantity int64
	MovementCount int64
}

// CategoryCostResult costo y valor de los movimientos agrupados por categoría.
type CategoryCostResult struct {
	Category      entity.ItemCategory
	TotalQuantity int64
	MovementCount int64
	Cost          decimal.Decimal // Σ quantity * unit_cost
	Value         decimal.Decimal // Σ quantity * unit_price
}

// AnalyticsRepository define las consultas de lectura para alertas y analítica de stock.
// Las implementaciones son read-only (no modifican datos) y no toman bloqueos.
type AnalyticsRepository interface {
	// LowStockItems ítems activos con current_stock <= minimum_stock, ascendente por stock.
	LowStockItems(ctx context.Context) ([]*entity.Item, error)

	// ExpiringItems ítems activos con expiry_date <= until, ascendente por vencimiento.
	ExpiringItems(ctx context.Context, until time.Time) ([]*entity.Item, error)

	// ExpiredItems ítems activos con expiry_date < now (estricto).
	ExpiredItems(ctx context.Context, now time.Time) ([]*entity.Item, error)

	// StockSummary totales sobre ítems activos; expiringUntil delimita "próximo a vencer".
	StockSummary(ctx context.Context, now, expiringUntil time.Time) (*StockSummaryResult, error)

	// UsageByCategory salidas del período agrupadas por categoría. category vacío = todas.
	UsageByCategory(ctx context.Context, from, to time.Time, category entity.ItemCategory) ([]CategoryUsageResult, error)

	// CostByCategory todos los movimientos del período agrupados por categoría.
	CostByCategory(ctx context.Context, from, to time.Time, category entity.ItemCategory) ([]CategoryCostResult, error)
}
