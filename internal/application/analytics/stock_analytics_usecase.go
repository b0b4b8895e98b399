// Package analytics contiene las consultas de alertas y analítica de stock.
// Son de solo lectura y no toman bloqueos: la consistencia eventual es aceptable.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 3650
)

var hundred = decimal.NewFromInt(100)

// StockAnalyticsUseCase alertas (bajo stock, vencimientos) y analítica de consumo y costos.
type StockAnalyticsUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	itemRepo      repository.ItemRepository
	movRepo       repository.StockMovementRepository
	policy        access.Policy
	expiringDays  int
	now           func() time.Time
}

// NewStockAnalyticsUseCase construye el caso de uso. expiringDays define "próximo a vencer"
// en el resumen (EXPIRY_WARNING_DAYS); 0 usa entity.ExpiringSoonDays.
func NewStockAnalyticsUseCase(
	analyticsRepo repository.AnalyticsRepository,
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
	policy access.Policy,
	expiringDays int,
) *StockAnalyticsUseCase {
	if expiringDays <= 0 {
		expiringDays = entity.ExpiringSoonDays
	}
	return &StockAnalyticsUseCase{
		analyticsRepo: analyticsRepo,
		itemRepo:      itemRepo,
		movRepo:       movRepo,
		policy:        policy,
		expiringDays:  expiringDays,
		now:           time.Now,
	}
}

// SetClock reemplaza time.Now (tests).
func (uc *StockAnalyticsUseCase) SetClock(now func() time.Time) { uc.now = now }

// ExpiringDays ventana por defecto de "próximo a vencer".
func (uc *StockAnalyticsUseCase) ExpiringDays() int { return uc.expiringDays }

// LowStock ítems activos con current_stock <= minimum_stock, ascendente por stock.
func (uc *StockAnalyticsUseCase) LowStock(ctx context.Context, actor access.Actor) (*dto.StockAlertListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	items, err := uc.analyticsRepo.LowStockItems(ctx)
	if err != nil {
		return nil, err
	}
	return uc.alertList(items), nil
}

// Expiring ítems activos que vencen dentro de days (incluye los ya vencidos), ascendente por vencimiento.
// days=0 deja solo los vencidos a la fecha; el valor por defecto lo aplica el handler.
func (uc *StockAnalyticsUseCase) Expiring(ctx context.Context, actor access.Actor, days int) (*dto.StockAlertListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	if days < 0 || days > maxWindowDays {
		return nil, domain.Invalid("days", "fuera de rango")
	}
	items, err := uc.analyticsRepo.ExpiringItems(ctx, uc.now().UTC().AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return uc.alertList(items), nil
}

// Expired ítems activos con vencimiento estrictamente pasado.
func (uc *StockAnalyticsUseCase) Expired(ctx context.Context, actor access.Actor) (*dto.StockAlertListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	items, err := uc.analyticsRepo.ExpiredItems(ctx, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	return uc.alertList(items), nil
}

func (uc *StockAnalyticsUseCase) alertList(items []*entity.Item) *dto.StockAlertListResponse {
	return &dto.StockAlertListResponse{Total: len(items), Items: dto.FromItems(items, uc.now().UTC())}
}

// Summary agregado sobre ítems activos.
func (uc *StockAnalyticsUseCase) Summary(ctx context.Context, actor access.Actor) (*dto.StockSummaryDTO, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	now := uc.now().UTC()
	res, err := uc.analyticsRepo.StockSummary(ctx, now, now.AddDate(0, 0, uc.expiringDays))
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string]int64, len(res.ByCategory))
	for cat, n := range res.ByCategory {
		byCategory[string(cat)] = n
	}
	return &dto.StockSummaryDTO{
		TotalItems:        res.TotalItems,
		TotalValue:        res.TotalValue.Round(2),
		LowStockCount:     res.LowStock,
		OutOfStockCount:   res.OutOfStock,
		ExpiringSoonCount: res.ExpiringSoon,
		ExpiredCount:      res.Expired,
		ByCategory:        byCategory,
		GeneratedAt:       now,
	}, nil
}

// Usage salidas (todo tipo con sentido de salida) por categoría en la ventana.
func (uc *StockAnalyticsUseCase) Usage(ctx context.Context, actor access.Actor, req dto.WindowRequest) (*dto.UsageAnalyticsDTO, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	from, to, category, err := uc.parseWindow(req)
	if err != nil {
		return nil, err
	}
	rows, err := uc.analyticsRepo.UsageByCategory(ctx, from, to, category)
	if err != nil {
		return nil, err
	}
	out := &dto.UsageAnalyticsDTO{From: from, To: to, Categories: make([]dto.CategoryUsageDTO, 0, len(rows))}
	for _, r := range rows {
		out.Categories = append(out.Categories, dto.CategoryUsageDTO{
			Category:      string(r.Category),
			TotalQuantity: r.TotalQuantity,
			MovementCount: r.MovementCount,
		})
		out.TotalQty += r.TotalQuantity
	}
	return out, nil
}

// Cost Σ quantity*unit_cost y Σ quantity*unit_price de todos los movimientos de la ventana.
func (uc *StockAnalyticsUseCase) Cost(ctx context.Context, actor access.Actor, req dto.WindowRequest) (*dto.CostAnalysisDTO, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	from, to, category, err := uc.parseWindow(req)
	if err != nil {
		return nil, err
	}
	rows, err := uc.analyticsRepo.CostByCategory(ctx, from, to, category)
	if err != nil {
		return nil, err
	}
	out := &dto.CostAnalysisDTO{
		From:       from,
		To:         to,
		Categories: make([]dto.CategoryCostDTO, 0, len(rows)),
		TotalCost:  decimal.Zero,
		TotalValue: decimal.Zero,
	}
	for _, r := range rows {
		out.Categories = append(out.Categories, dto.CategoryCostDTO{
			Category:      string(r.Category),
			TotalQuantity: r.TotalQuantity,
			MovementCount: r.MovementCount,
			Cost:          r.Cost.Round(2),
			Value:         r.Value.Round(2),
		})
		out.TotalCost = out.TotalCost.Add(r.Cost)
		out.TotalValue = out.TotalValue.Add(r.Value)
	}
	out.TotalCost = out.TotalCost.Round(2)
	out.TotalValue = out.TotalValue.Round(2)
	return out, nil
}

// Turnover (Σ salidas en la ventana / stock actual) * 100. Con stock actual 0 la rotación es 0.
func (uc *StockAnalyticsUseCase) Turnover(ctx context.Context, actor access.Actor, itemID string, windowDays int) (*dto.TurnoverDTO, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	if windowDays < 0 || windowDays > maxWindowDays {
		return nil, domain.Invalid("days", "fuera de rango")
	}
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	var out int64
	// Ventana vacía: sin salidas que sumar.
	if windowDays > 0 {
		to := uc.now().UTC()
		out, err = uc.movRepo.SumDecrease(ctx, itemID, to.AddDate(0, 0, -windowDays), to)
		if err != nil {
			return nil, err
		}
	}
	rate := decimal.Zero
	if item.CurrentStock > 0 {
		rate = decimal.NewFromInt(out).Div(decimal.NewFromInt(item.CurrentStock)).Mul(hundred).Round(2)
	}
	return &dto.TurnoverDTO{
		ItemID:       item.ID,
		SKU:          item.SKU,
		WindowDays:   windowDays,
		OutQuantity:  out,
		CurrentStock: item.CurrentStock,
		TurnoverRate: rate,
	}, nil
}

// parseWindow resuelve la ventana: days tiene prioridad; por defecto los últimos 30 días.
func (uc *StockAnalyticsUseCase) parseWindow(req dto.WindowRequest) (time.Time, time.Time, entity.ItemCategory, error) {
	now := uc.now().UTC()
	category := entity.ItemCategory(req.Category)
	if category != "" && !category.Valid() {
		return time.Time{}, time.Time{}, "", domain.Invalid("category", "categoría desconocida: "+req.Category)
	}
	if req.Days < 0 || req.Days > maxWindowDays {
		return time.Time{}, time.Time{}, "", domain.Invalid("days", "fuera de rango")
	}
	if req.Days > 0 {
		return now.AddDate(0, 0, -req.Days), now, category, nil
	}
	from := now.AddDate(0, 0, -defaultWindowDays)
	to := now
	f, err := dto.ParseDateParam("from", req.From, false)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	if f != nil {
		from = *f
	}
	t, err := dto.ParseDateParam("to", req.To, true)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	if t != nil {
		to = *t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, "", domain.Invalid("to", "debe ser posterior a from")
	}
	return from, to, category, nil
}
