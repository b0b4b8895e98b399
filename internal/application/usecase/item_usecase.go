package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

// maxUpdateAttempts reintentos de lectura-aplicación-escritura ante conflicto de versión.
const maxUpdateAttempts = 3

// InitialStockReason motivo del movimiento #0 al crear un ítem con existencias.
const InitialStockReason = "stock inicial"

// ItemUseCase casos de uso del catálogo. CurrentStock y el costo promedio se manejan vía movimientos.
type ItemUseCase struct {
	txRunner     inventory.TxRunner
	itemRepo     repository.ItemRepository
	movRepo      repository.StockMovementRepository
	supplierRepo repository.SupplierRepository
	policy       access.Policy
	log          *logger.Logger
	now          func() time.Time
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(
	txRunner inventory.TxRunner,
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
	supplierRepo repository.SupplierRepository,
	policy access.Policy,
	log *logger.Logger,
) *ItemUseCase {
	return &ItemUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		movRepo:      movRepo,
		supplierRepo: supplierRepo,
		policy:       policy,
		log:          log,
		now:          time.Now,
	}
}

// Create crea un ítem. Si InitialStock > 0 registra el movimiento #0 (ADJUSTMENT) en la misma
// transacción, de modo que el saldo cacheado coincide con el libro desde el primer instante.
func (uc *ItemUseCase) Create(ctx context.Context, actor access.Actor, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if !uc.policy.Allows(actor, access.CapManageCatalog) {
		return nil, domain.ErrForbidden
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" {
		return nil, domain.Invalid("sku", "requerido")
	}
	if in.Name == "" {
		return nil, domain.Invalid("name", "requerido")
	}
	if in.InitialStock < 0 {
		return nil, domain.Invalid("initial_stock", "no puede ser negativo")
	}
	status := entity.ItemStatusActive
	if in.Status != "" {
		status = entity.ItemStatus(in.Status)
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "unidad"
	}
	if err := uc.checkSupplier(ctx, in.SupplierID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	item := &entity.Item{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Barcode:      strings.TrimSpace(in.Barcode),
		Name:         in.Name,
		Description:  in.Description,
		Category:     entity.ItemCategory(in.Category),
		CurrentStock: in.InitialStock,
		MinimumStock: in.MinimumStock,
		MaximumStock: in.MaximumStock,
		UnitCost:     in.UnitCost,
		UnitPrice:    in.UnitPrice,
		UnitMeasure:  in.UnitMeasure,
		SupplierID:   in.SupplierID,
		ExpiryDate:   in.ExpiryDate,
		BatchNumber:  in.BatchNumber,
		Location:     in.Location,
		Status:       status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		movRepo repository.StockMovementRepository,
	) error {
		existing, err := itemRepo.GetBySKU(ctx, item.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if item.Barcode != "" {
			existing, err = itemRepo.GetByBarcode(ctx, item.Barcode)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicate
			}
		}
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		if item.CurrentStock == 0 {
			return nil
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:              uuid.New().String(),
			ItemID:          item.ID,
			Type:            entity.MovementTypeADJUSTMENT,
			Quantity:        item.CurrentStock,
			PreviousStock:   0,
			NewStock:        item.CurrentStock,
			UnitCost:        item.UnitCost,
			Reason:          InitialStockReason,
			PerformedBy:     actor.UserID,
			TransactionDate: now,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("item_id", item.ID).
		Str("sku", item.SKU).
		Int64("initial_stock", item.CurrentStock).
		Str("performed_by", actor.UserID).
		Msg("ítem creado")
	return dto.FromItem(item, now), nil
}

// GetByID obtiene un ítem por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, actor access.Actor, id string) (*dto.ItemResponse, error) {
	return uc.get(ctx, actor, func() (*entity.Item, error) { return uc.itemRepo.GetByID(ctx, id) })
}

// GetBySKU obtiene un ítem por SKU.
func (uc *ItemUseCase) GetBySKU(ctx context.Context, actor access.Actor, sku string) (*dto.ItemResponse, error) {
	return uc.get(ctx, actor, func() (*entity.Item, error) { return uc.itemRepo.GetBySKU(ctx, sku) })
}

// GetByBarcode obtiene un ítem por código de barras (lectores en farmacia y bodega).
func (uc *ItemUseCase) GetByBarcode(ctx context.Context, actor access.Actor, code string) (*dto.ItemResponse, error) {
	return uc.get(ctx, actor, func() (*entity.Item, error) { return uc.itemRepo.GetByBarcode(ctx, code) })
}

func (uc *ItemUseCase) get(ctx context.Context, actor access.Actor, load func() (*entity.Item, error)) (*dto.ItemResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	item, err := load()
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return dto.FromItem(item, uc.now().UTC()), nil
}

// Update aplica un parche de atributos. No permite modificar el stock ni el costo promedio
// (se manejan vía movimientos). Escritura optimista condicionada a la versión leída.
func (uc *ItemUseCase) Update(ctx context.Context, actor access.Actor, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	if !uc.policy.Allows(actor, access.CapManageCatalog) {
		return nil, domain.ErrForbidden
	}
	if in.CurrentStock != nil {
		return nil, domain.ErrStockFieldImmutable
	}
	if in.SupplierID != nil {
		if err := uc.checkSupplier(ctx, in.SupplierID); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		item, err := uc.itemRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrNotFound
		}
		applyItemPatch(item, in)
		item.UpdatedAt = uc.now().UTC()
		if err := validateItem(item); err != nil {
			return nil, err
		}
		err = uc.itemRepo.UpdateAttributes(ctx, item)
		if errors.Is(err, domain.ErrConflict) {
			uc.log.Debug().Str("item_id", id).Int("attempt", attempt).Msg("conflicto de versión, reintentando")
			continue
		}
		if err != nil {
			return nil, err
		}
		// releer: UpdateAttributes no devuelve el stock vigente
		fresh, err := uc.itemRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			return nil, domain.ErrNotFound
		}
		uc.log.Info().Str("item_id", id).Int64("version", fresh.Version).Str("performed_by", actor.UserID).Msg("ítem actualizado")
		return dto.FromItem(fresh, uc.now().UTC()), nil
	}
	return nil, domain.ErrConflict
}

func applyItemPatch(item *entity.Item, in dto.UpdateItemRequest) {
	if in.Barcode != nil {
		item.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Category != nil {
		item.Category = entity.ItemCategory(*in.Category)
	}
	if in.MinimumStock != nil {
		item.MinimumStock = *in.MinimumStock
	}
	if in.MaximumStock != nil {
		item.MaximumStock = *in.MaximumStock
	}
	if in.UnitPrice != nil {
		item.UnitPrice = *in.UnitPrice
	}
	if in.UnitMeasure != nil {
		item.UnitMeasure = *in.UnitMeasure
	}
	if in.SupplierID != nil {
		item.SupplierID = in.SupplierID
	}
	if in.ClearSupplier {
		item.SupplierID = nil
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = in.ExpiryDate
	}
	if in.BatchNumber != nil {
		item.BatchNumber = *in.BatchNumber
	}
	if in.Location != nil {
		item.Location = *in.Location
	}
	if in.Status != nil {
		item.Status = entity.ItemStatus(*in.Status)
	}
}

func validateItem(item *entity.Item) error {
	if item.Name == "" {
		return domain.Invalid("name", "requerido")
	}
	if !item.Category.Valid() {
		return domain.Invalid("category", "categoría desconocida: "+string(item.Category))
	}
	if !item.Status.Valid() {
		return domain.Invalid("status", "estado desconocido: "+string(item.Status))
	}
	if item.MinimumStock < 0 {
		return domain.Invalid("minimum_stock", "no puede ser negativo")
	}
	if item.MaximumStock < 0 {
		return domain.Invalid("maximum_stock", "no puede ser negativo")
	}
	if item.MaximumStock > 0 && item.MaximumStock < item.MinimumStock {
		return domain.Invalid("maximum_stock", "debe ser mayor o igual al mínimo")
	}
	if item.UnitCost.LessThan(decimal.Zero) {
		return domain.Invalid("unit_cost", "no puede ser negativo")
	}
	if item.UnitPrice.LessThan(decimal.Zero) {
		return domain.Invalid("unit_price", "no puede ser negativo")
	}
	return nil
}

func (uc *ItemUseCase) checkSupplier(ctx context.Context, supplierID *string) error {
	if supplierID == nil || *supplierID == "" {
		return nil
	}
	sup, err := uc.supplierRepo.GetByID(ctx, *supplierID)
	if err != nil {
		return err
	}
	if sup == nil {
		return domain.Invalid("supplier_id", "proveedor inexistente")
	}
	return nil
}

// List lista ítems con filtros y paginación.
func (uc *ItemUseCase) List(ctx context.Context, actor access.Actor, in dto.ItemListRequest) (*dto.ItemListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	in.PageRequest = in.PageRequest.Normalized()
	filter := repository.ItemFilter{
		Category:   entity.ItemCategory(in.Category),
		Status:     entity.ItemStatus(in.Status),
		SupplierID: in.SupplierID,
		LowStock:   in.LowStock,
		Search:     in.Search,
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.Invalid("category", "categoría desconocida: "+in.Category)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Invalid("status", "estado desconocido: "+in.Status)
	}
	list, total, err := uc.itemRepo.List(ctx, filter, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.ItemListResponse{
		Items: dto.FromItems(list, uc.now().UTC()),
		Page:  in.Page(total),
	}, nil
}

// Delete elimina un ítem sin historial. Con movimientos registrados falla con ErrItemHasMovements:
// el ítem se retira con status=discontinued y el libro se conserva.
func (uc *ItemUseCase) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !uc.policy.Allows(actor, access.CapManageCatalog) {
		return domain.ErrForbidden
	}
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	n, err := uc.movRepo.CountByItem(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrItemHasMovements
	}
	if err := uc.itemRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("item_id", id).Str("sku", item.SKU).Str("performed_by", actor.UserID).Msg("ítem eliminado")
	return nil
}
