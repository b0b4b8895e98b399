package inventory

import (
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// ApplyMovement calcula el nuevo saldo para un movimiento sobre previous.
// Devuelve ValidationError si la cantidad o el tipo no son válidos e InsufficientStockError
// si el saldo resultante sería negativo. No tiene efectos: el llamador decide si escribe.
func ApplyMovement(item *entity.Item, t entity.MovementType, quantity int64) (int64, error) {
	if t.Direction() == entity.DirectionUnknown {
		return 0, domain.Invalid("type", "tipo de movimiento desconocido: "+string(t))
	}
	if quantity <= 0 {
		return 0, domain.Invalid("quantity", "la cantidad debe ser un entero positivo")
	}
	next := item.CurrentStock + t.SignedDelta(quantity)
	if next < 0 {
		return 0, &domain.InsufficientStockError{
			ItemID:    item.ID,
			SKU:       item.SKU,
			Requested: quantity,
			Available: item.CurrentStock,
		}
	}
	return next, nil
}

// Totals sumas por sentido sobre un conjunto de movimientos.
type Totals struct {
	Increase int64
	Decrease int64
	Count    int64
}

// Balance saldo derivado Σentradas − Σsalidas.
func (t Totals) Balance() int64 {
	return t.Increase - t.Decrease
}

// Add acumula un movimiento.
func (t *Totals) Add(typ entity.MovementType, quantity int64) {
	switch typ.Direction() {
	case entity.DirectionIncrease:
		t.Increase += quantity
	case entity.DirectionDecrease:
		t.Decrease += quantity
	}
	t.Count++
}

// DerivedBalance recorre el libro completo de un ítem.
func DerivedBalance(movements []*entity.StockMovement) Totals {
	var t Totals
	for _, m := range movements {
		t.Add(m.Type, m.Quantity)
	}
	return t
}

// ReconciliationReport resultado de comparar el saldo cacheado contra el libro.
type ReconciliationReport struct {
	ItemID        string
	SKU           string
	Cached        int64
	Derived       int64
	Difference    int64 // Derived - Cached
	Corrected     bool
	MovementCount int64
	CheckedAt     time.Time
}

// HasDiscrepancy indica si el cacheado difería del derivado.
func (r ReconciliationReport) HasDiscrepancy() bool {
	return r.Difference != 0
}

// ChainBreak eslabón donde previousStock no coincide con el newStock anterior.
type ChainBreak struct {
	MovementID       string
	ExpectedPrevious int64
	ActualPrevious   int64
}

// ChainReport resultado de verificar el encadenamiento del libro de un ítem.
type ChainReport struct {
	ItemID        string
	MovementCount int
	Breaks        []ChainBreak
	LastNewStock  int64
}

// Consistent indica que no hay eslabones rotos.
func (r ChainReport) Consistent() bool {
	return len(r.Breaks) == 0
}

// VerifyChain comprueba movement[n+1].previousStock == movement[n].newStock y
// que cada movimiento respete newStock = previousStock + delta. Espera orden de registro ascendente.
func VerifyChain(itemID string, movements []*entity.StockMovement) ChainReport {
	rep := ChainReport{ItemID: itemID, MovementCount: len(movements)}
	var prev *entity.StockMovement
	for _, m := range movements {
		expected := int64(0)
		if prev != nil {
			expected = prev.NewStock
		}
		if m.PreviousStock != expected || m.NewStock != m.PreviousStock+m.SignedQuantity() {
			rep.Breaks = append(rep.Breaks, ChainBreak{
				MovementID:       m.ID,
				ExpectedPrevious: expected,
				ActualPrevious:   m.PreviousStock,
			})
		}
		prev = m
	}
	if prev != nil {
		rep.LastNewStock = prev.NewStock
	}
	return rep
}
