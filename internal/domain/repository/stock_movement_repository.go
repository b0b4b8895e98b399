package repository

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
)

// MovementFilter filtros para listar el libro.
type MovementFilter struct {
	ItemID      string
	Type        entity.MovementType
	PerformedBy string
	From        *time.Time
	To          *time.Time
}

// StockMovementRepository puerto del libro de movimientos. Solo inserta y lee: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error)
	// ListByItem devuelve el historial en orden de registro ascendente.
	ListByItem(ctx context.Context, itemID string, from, to *time.Time) ([]*entity.StockMovement, error)
	TotalsByItem(ctx context.Context, itemID string) (inventory.Totals, error)
	CountByItem(ctx context.Context, itemID string) (int64, error)
	// SumDecrease Σ cantidad de movimientos con sentido de salida en [from, to].
	SumDecrease(ctx context.Context, itemID string, from, to time.Time) (int64, error)
}
