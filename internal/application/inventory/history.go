package inventory

import (
	"context"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// HistoryUseCase consultas de solo lectura sobre el libro.
type HistoryUseCase struct {
	itemRepo repository.ItemRepository
	movRepo  repository.StockMovementRepository
	policy   access.Policy
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(itemRepo repository.ItemRepository, movRepo repository.StockMovementRepository, policy access.Policy) *HistoryUseCase {
	return &HistoryUseCase{itemRepo: itemRepo, movRepo: movRepo, policy: policy}
}

// ListMovements lista el libro con filtros y paginación, más recientes primero.
func (uc *HistoryUseCase) ListMovements(ctx context.Context, actor access.Actor, in dto.MovementListRequest) (*dto.MovementListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	in.PageRequest = in.PageRequest.Normalized()

	filter := repository.MovementFilter{ItemID: in.ItemID, PerformedBy: in.PerformedBy}
	if in.Type != "" {
		typ, ok := entity.ParseMovementType(in.Type)
		if !ok {
			return nil, domain.Invalid("type", "tipo de movimiento desconocido: "+in.Type)
		}
		filter.Type = typ
	}
	var err error
	if filter.From, err = dto.ParseDateParam("from", in.From, false); err != nil {
		return nil, err
	}
	if filter.To, err = dto.ParseDateParam("to", in.To, true); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.Invalid("to", "debe ser posterior a from")
	}

	list, total, err := uc.movRepo.List(ctx, filter, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: dto.FromMovements(list),
		Page:  in.Page(total),
	}, nil
}

// ItemHistory devuelve los movimientos de un ítem en orden de registro ascendente.
// from/to aceptan YYYY-MM-DD o RFC3339; vacíos no acotan.
func (uc *HistoryUseCase) ItemHistory(ctx context.Context, actor access.Actor, itemID, from, to string) ([]dto.MovementResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	fromT, err := dto.ParseDateParam("from", from, false)
	if err != nil {
		return nil, err
	}
	toT, err := dto.ParseDateParam("to", to, true)
	if err != nil {
		return nil, err
	}
	list, err := uc.movRepo.ListByItem(ctx, itemID, fromT, toT)
	if err != nil {
		return nil, err
	}
	return dto.FromMovements(list), nil
}
