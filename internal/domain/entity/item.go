package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiringSoonDays ventana por defecto para considerar un ítem "próximo a vencer".
const ExpiringSoonDays = 30

// ItemCategory conjunto cerrado de categorías del catálogo.
type ItemCategory string

const (
	CategoryMedication  ItemCategory = "medication"
	CategorySupplies    ItemCategory = "supplies"
	CategoryEquipment   ItemCategory = "equipment"
	CategoryConsumables ItemCategory = "consumables"
	CategoryLaboratory  ItemCategory = "laboratory"
	CategorySurgical    ItemCategory = "surgical"
	CategoryOther       ItemCategory = "other"
)

// Valid indica si la categoría pertenece al conjunto cerrado.
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryMedication, CategorySupplies, CategoryEquipment, CategoryConsumables,
		CategoryLaboratory, CategorySurgical, CategoryOther:
		return true
	}
	return false
}

// ItemStatus estado de ciclo de vida del ítem.
type ItemStatus string

const (
	ItemStatusActive       ItemStatus = "active"
	ItemStatusInactive     ItemStatus = "inactive"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// Valid indica si el estado es conocido.
func (s ItemStatus) Valid() bool {
	return s == ItemStatusActive || s == ItemStatusInactive || s == ItemStatusDiscontinued
}

// Item representa un ítem físico del inventario (medicamento, insumo o equipo).
// CurrentStock es una vista materializada del libro de movimientos: solo lo escribe el motor de saldos.
type Item struct {
	ID           string
	SKU          string // único en todos los estados
	Barcode      string // opcional, único si no está vacío
	Name         string
	Description  string
	Category     ItemCategory
	CurrentStock int64
	MinimumStock int64
	MaximumStock int64
	UnitCost     decimal.Decimal // costo promedio ponderado
	UnitPrice    decimal.Decimal
	UnitMeasure  string
	SupplierID   *string
	ExpiryDate   *time.Time
	BatchNumber  string
	Location     string
	Status       ItemStatus
	Version      int64 // sello para edición optimista de atributos
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLowStock currentStock <= minimumStock.
func (i *Item) IsLowStock() bool {
	return i.CurrentStock <= i.MinimumStock
}

// IsOutOfStock currentStock == 0.
func (i *Item) IsOutOfStock() bool {
	return i.CurrentStock == 0
}

// IsExpired expiryDate estrictamente anterior a now.
func (i *Item) IsExpired(now time.Time) bool {
	return i.ExpiryDate != nil && i.ExpiryDate.Before(now)
}

// IsExpiringWithin expiryDate <= now + days.
func (i *Item) IsExpiringWithin(now time.Time, days int) bool {
	if i.ExpiryDate == nil {
		return false
	}
	return !i.ExpiryDate.After(now.AddDate(0, 0, days))
}

// IsExpiringSoon usa la ventana por defecto de 30 días.
func (i *Item) IsExpiringSoon(now time.Time) bool {
	return i.IsExpiringWithin(now, ExpiringSoonDays)
}

// TotalValue currentStock * unitCost.
func (i *Item) TotalValue() decimal.Decimal {
	return decimal.NewFromInt(i.CurrentStock).Mul(i.UnitCost)
}

// IsActive indica si el ítem participa en alertas y resúmenes.
func (i *Item) IsActive() bool {
	return i.Status == ItemStatusActive
}
