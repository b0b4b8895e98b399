package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para alertas y analítica de stock. No toma bloqueos.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

func (r *AnalyticsRepo) items(ctx context.Context, where, order string, args ...any) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = 'active' AND ` + where + ` ORDER BY ` + order
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics items: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) LowStockItems(ctx context.Context) ([]*entity.Item, error) {
	return r.items(ctx, "current_stock <= minimum_stock", "current_stock, name, id")
}

// ExpiringItems incluye los ya vencidos: todo expiry_date <= until.
func (r *AnalyticsRepo) ExpiringItems(ctx context.Context, until time.Time) ([]*entity.Item, error) {
	return r.items(ctx, "expiry_date IS NOT NULL AND expiry_date <= $1", "expiry_date, name, id", until)
}

func (r *AnalyticsRepo) ExpiredItems(ctx context.Context, now time.Time) ([]*entity.Item, error) {
	return r.items(ctx, "expiry_date IS NOT NULL AND expiry_date < $1", "expiry_date, name, id", now)
}

// StockSummary agrega en una sola pasada sobre ítems activos; el desglose por categoría va aparte.
func (r *AnalyticsRepo) StockSummary(ctx context.Context, now, expiringUntil time.Time) (*repository.StockSummaryResult, error) {
	const query = `
	SELECT
	    COUNT(*)                                                            AS total_items,
	    COALESCE(SUM(current_stock * unit_cost), 0)                         AS total_value,
	    COUNT(*) FILTER (WHERE current_stock <= minimum_stock)              AS low_stock,
	    COUNT(*) FILTER (WHERE current_stock = 0)                           AS out_of_stock,
	    COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date <= $2) AS expiring_soon,
	    COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < $1)  AS expired
	FROM items
	WHERE status = 'active'`

	res := &repository.StockSummaryResult{ByCategory: make(map[entity.ItemCategory]int64)}
	err := r.pool.QueryRow(ctx, query, now, expiringUntil).Scan(
		&res.TotalItems, &res.TotalValue, &res.LowStock, &res.OutOfStock, &res.ExpiringSoon, &res.Expired,
	)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM items WHERE status = 'active' GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("stock summary by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat string
			n   int64
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		res.ByCategory[entity.ItemCategory(cat)] = n
	}
	return res, rows.Err()
}

// UsageByCategory salidas de la ventana agrupadas por categoría, mayor consumo primero.
func (r *AnalyticsRepo) UsageByCategory(
	ctx context.Context,
	from, to time.Time,
	category entity.ItemCategory,
) ([]repository.CategoryUsageResult, error) {
	const query = `
	SELECT
	    i.category,
	    SUM(m.quantity)::bigint AS total_quantity,
	    COUNT(*)        AS movement_count
	FROM stock_movements m
	JOIN items i ON i.id = m.item_id
	WHERE m.transaction_date BETWEEN $1 AND $2
	  AND m.type = ANY($3)
	  AND ($4::text = '' OR i.category = $4)
	GROUP BY i.category
	ORDER BY total_quantity DESC`

	rows, err := r.pool.Query(ctx, query, from, to, typeNames(entity.DirectionDecrease), string(category))
	if err != nil {
		return nil, fmt.Errorf("usage by category: %w", err)
	}
	defer rows.Close()

	out := make([]repository.CategoryUsageResult, 0)
	for rows.Next() {
		var (
			row repository.CategoryUsageResult
			cat string
		)
		if err := rows.Scan(&cat, &row.TotalQuantity, &row.MovementCount); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		row.Category = entity.ItemCategory(cat)
		out = append(out, row)
	}
	return out, rows.Err()
}

// CostByCategory costo (unit_cost del movimiento) y valor (unit_price del ítem) de todos los movimientos.
func (r *AnalyticsRepo) CostByCategory(
	ctx context.Context,
	from, to time.Time,
	category entity.ItemCategory,
) ([]repository.CategoryCostResult, error) {
	const query = `
	SELECT
	    i.category,
	    SUM(m.quantity)::bigint        AS total_quantity,
	    COUNT(*)                       AS movement_count,
	    SUM(m.quantity * m.unit_cost)  AS cost,
	    SUM(m.quantity * i.unit_price) AS value
	FROM stock_movements m
	JOIN items i ON i.id = m.item_id
	WHERE m.transaction_date BETWEEN $1 AND $2
	  AND ($3::text = '' OR i.category = $3)
	GROUP BY i.category
	ORDER BY cost DESC`

	rows, err := r.pool.Query(ctx, query, from, to, string(category))
	if err != nil {
		return nil, fmt.Errorf("cost by category: %w", err)
	}
	defer rows.Close()

	out := make([]repository.CategoryCostResult, 0)
	for rows.Next() {
		var (
			row repository.CategoryCostResult
			cat string
		)
		if err := rows.Scan(&cat, &row.TotalQuantity, &row.MovementCount, &row.Cost, &row.Value); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		row.Category = entity.ItemCategory(cat)
		out = append(out, row)
	}
	return out, rows.Err()
}
