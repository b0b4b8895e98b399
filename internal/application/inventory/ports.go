package inventory

import (
	"context"

	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error o el contexto se cancela,
// nada de lo escrito dentro es visible para otros lectores.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.ItemRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// IdempotencyCache atajo para resolver reintentos sin abrir transacción.
// La fuente de verdad es el índice único de stock_movements.idempotency_key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (movementID string, found bool, err error)
	Put(ctx context.Context, key, movementID string) error
}

// EventPublisher publica eventos de stock hacia colaboradores externos (notificaciones, alertas).
type EventPublisher interface {
	Publish(ctx context.Context, event StockEvent) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noopCache) Put(context.Context, string, string) error          { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, StockEvent) error { return nil }
