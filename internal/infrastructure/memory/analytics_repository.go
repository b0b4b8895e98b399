package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// AnalyticsRepository implementa repository.AnalyticsRepository recorriendo el almacén.
type AnalyticsRepository struct {
	s *Store
}

var _ repository.AnalyticsRepository = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) activeItems() []entity.Item {
	all := (&ItemRepository{s: r.s}).view(nil)
	out := make([]entity.Item, 0, len(all))
	for _, it := range all {
		if it.IsActive() {
			out = append(out, it)
		}
	}
	return out
}

func (r *AnalyticsRepository) LowStockItems(ctx context.Context) ([]*entity.Item, error) {
	out := make([]*entity.Item, 0)
	for _, it := range r.activeItems() {
		if it.IsLowStock() {
			out = append(out, cloneItem(it))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentStock < out[j].CurrentStock })
	return out, nil
}

func (r *AnalyticsRepository) ExpiringItems(ctx context.Context, until time.Time) ([]*entity.Item, error) {
	return r.byExpiry(func(exp time.Time) bool { return !exp.After(until) }), nil
}

func (r *AnalyticsRepository) ExpiredItems(ctx context.Context, now time.Time) ([]*entity.Item, error) {
	return r.byExpiry(func(exp time.Time) bool { return exp.Before(now) }), nil
}

func (r *AnalyticsRepository) byExpiry(match func(time.Time) bool) []*entity.Item {
	out := make([]*entity.Item, 0)
	for _, it := range r.activeItems() {
		if it.ExpiryDate != nil && match(*it.ExpiryDate) {
			out = append(out, cloneItem(it))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out
}

func (r *AnalyticsRepository) StockSummary(ctx context.Context, now, expiringUntil time.Time) (*repository.StockSummaryResult, error) {
	res := &repository.StockSummaryResult{
		TotalValue: decimal.Zero,
		ByCategory: make(map[entity.ItemCategory]int64),
	}
	for _, it := range r.activeItems() {
		res.TotalItems++
		res.TotalValue = res.TotalValue.Add(it.TotalValue())
		res.ByCategory[it.Category]++
		if it.IsLowStock() {
			res.LowStock++
		}
		if it.IsOutOfStock() {
			res.OutOfStock++
		}
		if it.ExpiryDate != nil {
			if it.ExpiryDate.Before(now) {
				res.Expired++
			}
			if !it.ExpiryDate.After(expiringUntil) {
				res.ExpiringSoon++
			}
		}
	}
	return res, nil
}

// joined movimientos de la ventana con su ítem.
func (r *AnalyticsRepository) joined(from, to time.Time, category entity.ItemCategory, decreaseOnly bool) ([]entity.StockMovement, map[string]entity.Item) {
	items := make(map[string]entity.Item)
	for _, it := range (&ItemRepository{s: r.s}).view(nil) {
		items[it.ID] = it
	}
	movs := (&StockMovementRepository{s: r.s}).all()
	out := make([]entity.StockMovement, 0)
	for _, m := range movs {
		it, ok := items[m.ItemID]
		if !ok || !inWindow(m.TransactionDate, &from, &to) {
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		if decreaseOnly && m.Type.Direction() != entity.DirectionDecrease {
			continue
		}
		out = append(out, m)
	}
	return out, items
}

func (r *AnalyticsRepository) UsageByCategory(ctx context.Context, from, to time.Time, category entity.ItemCategory) ([]repository.CategoryUsageResult, error) {
	movs, items := r.joined(from, to, category, true)
	acc := make(map[entity.ItemCategory]*repository.CategoryUsageResult)
	for _, m := range movs {
		cat := items[m.ItemID].Category
		row, ok := acc[cat]
		if !ok {
			row = &repository.CategoryUsageResult{Category: cat}
			acc[cat] = row
		}
		row.TotalQuantity += m.Quantity
		row.MovementCount++
	}
	out := make([]repository.CategoryUsageResult, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalQuantity > out[j].TotalQuantity })
	return out, nil
}

func (r *AnalyticsRepository) CostByCategory(ctx context.Context, from, to time.Time, category entity.ItemCategory) ([]repository.CategoryCostResult, error) {
	movs, items := r.joined(from, to, category, false)
	acc := make(map[entity.ItemCategory]*repository.CategoryCostResult)
	for _, m := range movs {
		it := items[m.ItemID]
		row, ok := acc[it.Category]
		if !ok {
			row = &repository.CategoryCostResult{Category: it.Category, Cost: decimal.Zero, Value: decimal.Zero}
			acc[it.Category] = row
		}
		q := decimal.NewFromInt(m.Quantity)
		row.TotalQuantity += m.Quantity
		row.MovementCount++
		row.Cost = row.Cost.Add(q.Mul(m.UnitCost))
		row.Value = row.Value.Add(q.Mul(it.UnitPrice))
	}
	out := make([]repository.CategoryCostResult, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cost.GreaterThan(out[j].Cost) })
	return out, nil
}
