package entity

import "time"

// Estados de proveedor.
const (
	SupplierStatusActive   = "active"
	SupplierStatusInactive = "inactive"
)

// Supplier proveedor de referencia. Los ítems lo referencian débilmente (nunca es dueño).
type Supplier struct {
	ID          string
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	TaxID       string
	Status      string // active, inactive
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
