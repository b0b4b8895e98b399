package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// SupplierUseCase CRUD de proveedores. El proveedor es solo una referencia desde Item y Movement.
type SupplierUseCase struct {
	repo     repository.SupplierRepository
	itemRepo repository.ItemRepository
	policy   access.Policy
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository, itemRepo repository.ItemRepository, policy access.Policy) *SupplierUseCase {
	return &SupplierUseCase{repo: repo, itemRepo: itemRepo, policy: policy}
}

// Create registra un proveedor activo.
func (uc *SupplierUseCase) Create(ctx context.Context, actor access.Actor, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	if !uc.policy.Allows(actor, access.CapManageSupplier) {
		return nil, domain.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Invalid("name", "requerido")
	}
	now := time.Now().UTC()
	sup := &entity.Supplier{
		ID:          uuid.New().String(),
		Name:        in.Name,
		ContactName: in.ContactName,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       in.Phone,
		Address:     in.Address,
		TaxID:       in.TaxID,
		Status:      entity.SupplierStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, sup); err != nil {
		return nil, err
	}
	return dto.FromSupplier(sup), nil
}

// GetByID obtiene un proveedor.
func (uc *SupplierUseCase) GetByID(ctx context.Context, actor access.Actor, id string) (*dto.SupplierResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	sup, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, domain.ErrNotFound
	}
	return dto.FromSupplier(sup), nil
}

// List lista proveedores, opcionalmente por estado.
func (uc *SupplierUseCase) List(ctx context.Context, actor access.Actor, status string, page dto.PageRequest) (*dto.SupplierListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	if status != "" && status != entity.SupplierStatusActive && status != entity.SupplierStatusInactive {
		return nil, domain.Invalid("status", "use active o inactive")
	}
	page = page.Normalized()
	list, total, err := uc.repo.List(ctx, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *dto.FromSupplier(s))
	}
	return &dto.SupplierListResponse{
		Items: items,
		Page:  page.Page(total),
	}, nil
}

// Update aplica un parche al proveedor.
func (uc *SupplierUseCase) Update(ctx context.Context, actor access.Actor, id string, in dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	if !uc.policy.Allows(actor, access.CapManageSupplier) {
		return nil, domain.ErrForbidden
	}
	sup, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "requerido")
		}
		sup.Name = name
	}
	if in.ContactName != nil {
		sup.ContactName = *in.ContactName
	}
	if in.Email != nil {
		sup.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		sup.Phone = *in.Phone
	}
	if in.Address != nil {
		sup.Address = *in.Address
	}
	if in.TaxID != nil {
		sup.TaxID = *in.TaxID
	}
	if in.Status != nil {
		if *in.Status != entity.SupplierStatusActive && *in.Status != entity.SupplierStatusInactive {
			return nil, domain.Invalid("status", "use active o inactive")
		}
		sup.Status = *in.Status
	}
	sup.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	return dto.FromSupplier(sup), nil
}

// ListItems ítems que referencian al proveedor.
func (uc *SupplierUseCase) ListItems(ctx context.Context, actor access.Actor, id string, page dto.PageRequest) (*dto.ItemListResponse, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return nil, domain.ErrForbidden
	}
	sup, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, domain.ErrNotFound
	}
	page = page.Normalized()
	list, total, err := uc.itemRepo.List(ctx, repository.ItemFilter{SupplierID: id}, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.ItemListResponse{
		Items: dto.FromItems(list, time.Now().UTC()),
		Page:  page.Page(total),
	}, nil
}
