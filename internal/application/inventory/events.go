package inventory

import (
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
)

// Tipos de evento publicados por el libro.
const (
	EventMovementRecorded = "movement.recorded"
	EventStockAlert       = "stock.alert"
	EventStockReconciled  = "stock.reconciled"
)

// Motivos de alerta.
const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
)

// StockEvent mensaje publicado después de confirmar la transacción.
type StockEvent struct {
	Type          string    `json:"type"`
	ItemID        string    `json:"item_id"`
	SKU           string    `json:"sku"`
	MovementID    string    `json:"movement_id,omitempty"`
	MovementType  string    `json:"movement_type,omitempty"`
	Quantity      int64     `json:"quantity,omitempty"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	MinimumStock  int64     `json:"minimum_stock,omitempty"`
	Alert         string    `json:"alert,omitempty"`
	Difference    int64     `json:"difference,omitempty"`
	PerformedBy   string    `json:"performed_by,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func movementRecordedEvent(item *entity.Item, mov *entity.StockMovement) StockEvent {
	return StockEvent{
		Type:          EventMovementRecorded,
		ItemID:        item.ID,
		SKU:           item.SKU,
		MovementID:    mov.ID,
		MovementType:  string(mov.Type),
		Quantity:      mov.Quantity,
		PreviousStock: mov.PreviousStock,
		NewStock:      mov.NewStock,
		MinimumStock:  item.MinimumStock,
		PerformedBy:   mov.PerformedBy,
		OccurredAt:    mov.CreatedAt,
	}
}

// alertEvent devuelve el evento de alerta si el movimiento cruzó a bajo stock o agotado.
// Solo alerta en la transición para no repetir la misma alerta en cada salida.
func alertEvent(item *entity.Item, mov *entity.StockMovement, wasLow bool) (StockEvent, bool) {
	if mov.Type.Direction() != entity.DirectionDecrease || !item.IsActive() {
		return StockEvent{}, false
	}
	alert := ""
	switch {
	case item.IsOutOfStock():
		alert = AlertOutOfStock
	case item.IsLowStock() && !wasLow:
		alert = AlertLowStock
	default:
		return StockEvent{}, false
	}
	ev := movementRecordedEvent(item, mov)
	ev.Type = EventStockAlert
	ev.Alert = alert
	return ev, true
}

func reconciledEvent(rep inventory.ReconciliationReport, performedBy string) StockEvent {
	return StockEvent{
		Type:          EventStockReconciled,
		ItemID:        rep.ItemID,
		SKU:           rep.SKU,
		PreviousStock: rep.Cached,
		NewStock:      rep.Derived,
		Difference:    rep.Difference,
		PerformedBy:   performedBy,
		OccurredAt:    rep.CheckedAt,
	}
}
