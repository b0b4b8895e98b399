package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/inventory/movements.
// La clave de idempotencia llega en el header Idempotency-Key o en el body.
type RecordMovementRequest struct {
	ItemID          string           `json:"item_id" validate:"required"`
	Type            string           `json:"type" validate:"required"`
	Quantity        int64            `json:"quantity" validate:"required,gt=0"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"` // solo IN: recalcula costo promedio
	Reason          string           `json:"reason" validate:"max=500"`
	Notes           string           `json:"notes"`
	Reference       string           `json:"reference" validate:"max=200"`
	SupplierID      *string          `json:"supplier_id,omitempty"`
	PatientID       *string          `json:"patient_id,omitempty"`
	PrescriptionID  *string          `json:"prescription_id,omitempty"`
	AppointmentID   *string          `json:"appointment_id,omitempty"`
	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
	IdempotencyKey  string           `json:"idempotency_key,omitempty" validate:"max=200"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	Type            string          `json:"type"`
	Direction       string          `json:"direction"`
	Quantity        int64           `json:"quantity"`
	PreviousStock   int64           `json:"previous_stock"`
	NewStock        int64           `json:"new_stock"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Reason          string          `json:"reason,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	SupplierID      *string         `json:"supplier_id,omitempty"`
	PatientID       *string         `json:"patient_id,omitempty"`
	PrescriptionID  *string         `json:"prescription_id,omitempty"`
	AppointmentID   *string         `json:"appointment_id,omitempty"`
	PerformedBy     string          `json:"performed_by"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RecordMovementResponse resultado del registro; Replayed indica que se devolvió un movimiento previo.
type RecordMovementResponse struct {
	Movement   MovementResponse `json:"movement"`
	Replayed   bool             `json:"replayed"`
	IsLowStock bool             `json:"is_low_stock"`
}

// MovementListRequest filtros de GET /api/inventory/movements.
type MovementListRequest struct {
	PageRequest
	ItemID      string `query:"item_id"`
	Type        string `query:"type"`
	PerformedBy string `query:"performed_by"`
	From        string `query:"from"` // RFC3339 o YYYY-MM-DD
	To          string `query:"to"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse saldo de un ítem según el modo de lectura.
type BalanceResponse struct {
	ItemID string `json:"item_id"`
	Mode   string `json:"mode"` // cached | derived
	Stock  int64  `json:"stock"`
}

// ReconciliationResponse reporte de conciliación de un ítem.
type ReconciliationResponse struct {
	ItemID        string    `json:"item_id"`
	SKU           string    `json:"sku"`
	Cached        int64     `json:"cached_stock"`
	Derived       int64     `json:"derived_stock"`
	Difference    int64     `json:"difference"`
	Corrected     bool      `json:"corrected"`
	MovementCount int64     `json:"movement_count"`
	CheckedAt     time.Time `json:"checked_at"`
}

// ChainBreakResponse eslabón roto del libro.
type ChainBreakResponse struct {
	MovementID       string `json:"movement_id"`
	ExpectedPrevious int64  `json:"expected_previous_stock"`
	ActualPrevious   int64  `json:"actual_previous_stock"`
}

// ChainResponse verificación de encadenamiento del libro de un ítem.
type ChainResponse struct {
	ItemID        string               `json:"item_id"`
	MovementCount int                  `json:"movement_count"`
	Consistent    bool                 `json:"consistent"`
	LastNewStock  int64                `json:"last_new_stock"`
	Breaks        []ChainBreakResponse `json:"breaks"`
}
