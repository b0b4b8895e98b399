package repository

import (
	"context"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Supplier, int, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
}
