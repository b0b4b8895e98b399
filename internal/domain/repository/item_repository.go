package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// ItemFilter filtros de listado del catálogo. Campos vacíos no filtran.
type ItemFilter struct {
	Category   entity.ItemCategory
	Status     entity.ItemStatus
	SupplierID string
	LowStock   bool
	Search     string // coincide contra sku, nombre, código de barras o lote
}

// ItemRepository define el puerto de persistencia para Item (DIP).
// CurrentStock solo se escribe con UpdateStock, que únicamente invocan el libro y la conciliación.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Item, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error)
	// GetForUpdate bloquea la fila del ítem hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]*entity.Item, int, error)
	ListIDs(ctx context.Context) ([]string, error)
	// UpdateAttributes escribe atributos no-stock condicionado a item.Version; ErrConflict si cambió.
	UpdateAttributes(ctx context.Context, item *entity.Item) error
	UpdateStock(ctx context.Context, id string, stock int64, unitCost decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}
