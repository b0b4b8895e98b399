package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

const usageLookbackDays = 90

// ReorderUseCase genera la lista de reposición: ítems bajo mínimo, cantidad sugerida hasta el
// máximo configurado y prioridad por días de cobertura según el consumo de los últimos 90 días.
type ReorderUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	movRepo       repository.StockMovementRepository
	policy        access.Policy
	now           func() time.Time
}

// NewReorderUseCase construye el caso de uso de reposición.
func NewReorderUseCase(
	analyticsRepo repository.AnalyticsRepository,
	movRepo repository.StockMovementRepository,
	policy access.Policy,
) *ReorderUseCase {
	return &ReorderUseCase{
		analyticsRepo: analyticsRepo,
		movRepo:       movRepo,
		policy:        policy,
		now:           time.Now,
	}
}

// Suggestions devuelve las sugerencias ordenadas por urgencia (1 = más urgente).
func (uc *ReorderUseCase) Suggestions(ctx context.Context, actor access.Actor) ([]dto.ReorderSuggestionDTO, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}

	// 1. Ítems activos por debajo (o en) el mínimo
	items, err := uc.analyticsRepo.LowStockItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []dto.ReorderSuggestionDTO{}, nil
	}

	end := uc.now().UTC()
	start := end.AddDate(0, 0, -usageLookbackDays)

	// 2. Cantidad sugerida y consumo histórico
	suggestions := make([]dto.ReorderSuggestionDTO, 0, len(items))
	for _, item := range items {
		target := item.MaximumStock
		if target <= item.MinimumStock {
			// sin máximo configurado: reponer al doble del mínimo
			target = item.MinimumStock * 2
		}
		qty := target - item.CurrentStock
		if qty <= 0 {
			continue
		}
		used, err := uc.movRepo.SumDecrease(ctx, item.ID, start, end)
		if err != nil {
			return nil, err
		}
		s := dto.ReorderSuggestionDTO{
			ItemID:          item.ID,
			SKU:             item.SKU,
			Name:            item.Name,
			Category:        string(item.Category),
			CurrentStock:    item.CurrentStock,
			MinimumStock:    item.MinimumStock,
			TargetStock:     target,
			SuggestedQty:    qty,
			UnitCost:        item.UnitCost,
			EstimatedCost:   decimal.NewFromInt(qty).Mul(item.UnitCost).Round(2),
			UsageLast90Days: used,
			SupplierID:      item.SupplierID,
		}
		if used > 0 {
			cover := item.CurrentStock * usageLookbackDays / used
			s.DaysOfCover = &cover
		}
		suggestions = append(suggestions, s)
	}

	// 3. Ordenar: menos días de cobertura primero; sin consumo al final, por mayor déficit
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		switch {
		case a.DaysOfCover != nil && b.DaysOfCover != nil && *a.DaysOfCover != *b.DaysOfCover:
			return *a.DaysOfCover < *b.DaysOfCover
		case a.DaysOfCover != nil && b.DaysOfCover == nil:
			return true
		case a.DaysOfCover == nil && b.DaysOfCover != nil:
			return false
		}
		return a.MinimumStock-a.CurrentStock > b.MinimumStock-b.CurrentStock
	})

	// 4. Asignar prioridad
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
