package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

func TestFingerprint(t *testing.T) {
	base := MovementInputDTO{ItemID: "i1", Type: "OUT", Quantity: 3, Reason: "dispensación"}
	h := Fingerprint(base, entity.MovementTypeOUT)
	assert.Len(t, h, 64)

	later := time.Now().Add(time.Hour)
	withDate := base
	withDate.TransactionDate = &later
	assert.Equal(t, h, Fingerprint(withDate, entity.MovementTypeOUT), "la fecha no participa")

	other := base
	other.Quantity = 4
	assert.NotEqual(t, h, Fingerprint(other, entity.MovementTypeOUT))

	cost := decimal.NewFromInt(2)
	withCost := base
	withCost.UnitCost = &cost
	assert.NotEqual(t, h, Fingerprint(withCost, entity.MovementTypeOUT))
}

func TestAlertEvent_SoloEnTransicion(t *testing.T) {
	item := &entity.Item{ID: "i", SKU: "S", CurrentStock: 5, MinimumStock: 10, Status: entity.ItemStatusActive}
	out := &entity.StockMovement{Type: entity.MovementTypeOUT, Quantity: 1}

	ev, ok := alertEvent(item, out, false)
	assert.True(t, ok)
	assert.Equal(t, AlertLowStock, ev.Alert)

	_, ok = alertEvent(item, out, true)
	assert.False(t, ok, "ya estaba bajo mínimo")

	item.CurrentStock = 0
	ev, ok = alertEvent(item, out, true)
	assert.True(t, ok)
	assert.Equal(t, AlertOutOfStock, ev.Alert)

	in := &entity.StockMovement{Type: entity.MovementTypeIN, Quantity: 1}
	_, ok = alertEvent(item, in, true)
	assert.False(t, ok)
}
