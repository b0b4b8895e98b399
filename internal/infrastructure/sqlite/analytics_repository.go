package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura. Los montos se suman en Go con decimal: SQLite
// solo sabría sumarlos como REAL.
type AnalyticsRepo struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

func (r *AnalyticsRepo) items(ctx context.Context, where, order string, args ...any) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = 'active' AND ` + where + ` ORDER BY ` + order
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics items: %w", err)
	}
	return scanItems(rows)
}

func (r *AnalyticsRepo) LowStockItems(ctx context.Context) ([]*entity.Item, error) {
	return r.items(ctx, "current_stock <= minimum_stock", "current_stock, name, id")
}

// ExpiringItems incluye los ya vencidos.
func (r *AnalyticsRepo) ExpiringItems(ctx context.Context, until time.Time) ([]*entity.Item, error) {
	return r.items(ctx, "expiry_date IS NOT NULL AND expiry_date <= ?", "expiry_date, name, id", formatTime(until))
}

func (r *AnalyticsRepo) ExpiredItems(ctx context.Context, now time.Time) ([]*entity.Item, error) {
	return r.items(ctx, "expiry_date IS NOT NULL AND expiry_date < ?", "expiry_date, name, id", formatTime(now))
}

func (r *AnalyticsRepo) StockSummary(ctx context.Context, now, expiringUntil time.Time) (*repository.StockSummaryResult, error) {
	const query = `
	SELECT category, current_stock, minimum_stock, unit_cost, expiry_date
	FROM items
	WHERE status = 'active'`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	defer rows.Close()

	res := &repository.StockSummaryResult{ByCategory: make(map[entity.ItemCategory]int64)}
	nowS, untilS := formatTime(now), formatTime(expiringUntil)
	for rows.Next() {
		var (
			cat            string
			stock, minimum int64
			unitCost       decimal.Decimal
			expiry         sql.NullString
		)
		if err := rows.Scan(&cat, &stock, &minimum, &unitCost, &expiry); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		res.TotalItems++
		res.TotalValue = res.TotalValue.Add(decimal.NewFromInt(stock).Mul(unitCost))
		if stock <= minimum {
			res.LowStock++
		}
		if stock == 0 {
			res.OutOfStock++
		}
		if expiry.Valid {
			if expiry.String <= untilS {
				res.ExpiringSoon++
			}
			if expiry.String < nowS {
				res.Expired++
			}
		}
		res.ByCategory[entity.ItemCategory(cat)]++
	}
	return res, rows.Err()
}

// UsageByCategory salidas de la ventana, mayor consumo primero.
func (r *AnalyticsRepo) UsageByCategory(
	ctx context.Context,
	from, to time.Time,
	category entity.ItemCategory,
) ([]repository.CategoryUsageResult, error) {
	dec := typeArgs(entity.DirectionDecrease)
	query := `
	SELECT
	    i.category,
	    SUM(m.quantity) AS total_quantity,
	    COUNT(*)        AS movement_count
	FROM stock_movements m
	JOIN items i ON i.id = m.item_id
	WHERE m.transaction_date BETWEEN ? AND ?
	  AND m.type IN (` + placeholders(len(dec)) + `)
	  AND (? = '' OR i.category = ?)
	GROUP BY i.category
	ORDER BY total_quantity DESC, i.category`

	args := append([]any{formatTime(from), formatTime(to)}, dec...)
	args = append(args, string(category), string(category))
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// CostByCategory recorre los movimientos de la ventana y acumula costo y valor por categoría.
func (r *AnalyticsRepo) CostByCategory(
	ctx context.Context,
	from, to time.Time,
	category entity.ItemCategory,
) ([]repository.CategoryCostResult, error) {
	const query = `
	SELECT i.category, m.quantity, m.unit_cost, i.unit_price
	FROM stock_movements m
	JOIN items i ON i.id = m.item_id
	WHERE m.transaction_date BETWEEN ? AND ?
	  AND (? = '' OR i.category = ?)`

	rows, err := r.db.QueryContext(ctx, query, formatTime(from), formatTime(to), string(category), string(category))
	if err != nil {
		return nil, fmt.Errorf("cost by category: %w", err)
	}
	defer rows.Close()

	acc := make(map[entity.ItemCategory]*repository.CategoryCostResult)
	for rows.Next() {
		var (
			cat             string
			qty             int64
			unitCost, price decimal.Decimal
		)
		if err := rows.Scan(&cat, &qty, &unitCost, &price); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		c := entity.ItemCategory(cat)
		row, ok := acc[c]
		if !ok {
			row = &repository.CategoryCostResult{Category: c}
			acc[c] = row
		}
		q := decimal.NewFromInt(qty)
		row.TotalQuantity += qty
		row.MovementCount++
		row.Cost = row.Cost.Add(q.Mul(unitCost))
		row.Value = row.Value.Add(q.Mul(price))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]repository.CategoryCostResult, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Cost.Cmp(out[j].Cost); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
