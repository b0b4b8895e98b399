package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType vocabulario único de tipos de movimiento (compartido por todos los consumidores).
type MovementType string

const (
	MovementTypeIN         MovementType = "IN"         // recepción
	MovementTypeOUT        MovementType = "OUT"        // consumo/dispensación
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste positivo
	MovementTypeTRANSFER   MovementType = "TRANSFER"   // salida por traslado
	MovementTypeEXPIRED    MovementType = "EXPIRED"    // baja por vencimiento
	MovementTypeDAMAGED    MovementType = "DAMAGED"    // baja por daño
	MovementTypeRETURN     MovementType = "RETURN"     // devolución
)

// MovementTypes todos los tipos conocidos, en orden estable.
var MovementTypes = []MovementType{
	MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT, MovementTypeTRANSFER,
	MovementTypeEXPIRED, MovementTypeDAMAGED, MovementTypeRETURN,
}

// Direction sentido del efecto de un movimiento sobre el stock.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionIncrease
	DirectionDecrease
)

func (d Direction) String() string {
	switch d {
	case DirectionIncrease:
		return "increase"
	case DirectionDecrease:
		return "decrease"
	}
	return "unknown"
}

// ParseMovementType normaliza y valida un tipo recibido desde fuera.
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Direction() != DirectionUnknown
}

// Direction política fija tipo -> sentido. No es configurable.
func (t MovementType) Direction() Direction {
	switch t {
	case MovementTypeIN, MovementTypeADJUSTMENT, MovementTypeRETURN:
		return DirectionIncrease
	case MovementTypeOUT, MovementTypeEXPIRED, MovementTypeDAMAGED, MovementTypeTRANSFER:
		return DirectionDecrease
	}
	return DirectionUnknown
}

// SignedDelta cantidad con signo según el sentido del tipo.
func (t MovementType) SignedDelta(quantity int64) int64 {
	if t.Direction() == DirectionDecrease {
		return -quantity
	}
	return quantity
}

// DecreaseTypes tipos con sentido de salida (usado por analítica y rotación).
func DecreaseTypes() []MovementType {
	out := make([]MovementType, 0, 4)
	for _, t := range MovementTypes {
		if t.Direction() == DirectionDecrease {
			out = append(out, t)
		}
	}
	return out
}

// StockMovement registro inmutable del libro de movimientos.
// Quantity es siempre la magnitud (> 0); el signo lo da Type.
type StockMovement struct {
	ID              string
	ItemID          string
	Type            MovementType
	Quantity        int64
	PreviousStock   int64
	NewStock        int64
	UnitCost        decimal.Decimal // costo unitario vigente al momento del movimiento
	Reason          string
	Notes           string
	Reference       string
	SupplierID      *string
	PatientID       *string
	PrescriptionID  *string
	AppointmentID   *string
	PerformedBy     string
	IdempotencyKey  string
	RequestHash     string
	TransactionDate time.Time
	CreatedAt       time.Time
}

// SignedQuantity cantidad con signo aplicada al saldo.
func (m *StockMovement) SignedQuantity() int64 {
	return m.Type.SignedDelta(m.Quantity)
}
