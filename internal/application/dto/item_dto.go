package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem. InitialStock se registra como movimiento #0.
type CreateItemRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode      string          `json:"barcode" validate:"max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description"`
	Category     string          `json:"category" validate:"required"`
	InitialStock int64           `json:"initial_stock" validate:"min=0"`
	MinimumStock int64           `json:"minimum_stock" validate:"min=0"`
	MaximumStock int64           `json:"maximum_stock" validate:"min=0"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"min=0"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"min=0"`
	UnitMeasure  string          `json:"unit_measure"`
	SupplierID   *string         `json:"supplier_id" validate:"omitempty,uuid"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	BatchNumber  string          `json:"batch_number"`
	Location     string          `json:"location"`
	Status       string          `json:"status"`
}

// UpdateItemRequest parche de atributos. El costo promedio lo mantiene el libro (entradas IN).
// CurrentStock existe solo para rechazar explícitamente cualquier intento de escribir el stock
// fuera del libro de movimientos.
type UpdateItemRequest struct {
	Barcode       *string          `json:"barcode" validate:"omitempty,max=100"`
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	MinimumStock  *int64           `json:"minimum_stock" validate:"omitempty,min=0"`
	MaximumStock  *int64           `json:"maximum_stock" validate:"omitempty,min=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	UnitMeasure   *string          `json:"unit_measure"`
	SupplierID    *string          `json:"supplier_id" validate:"omitempty,uuid"`
	ClearSupplier bool             `json:"clear_supplier"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	BatchNumber   *string          `json:"batch_number"`
	Location      *string          `json:"location"`
	Status        *string          `json:"status"`
	CurrentStock  *int64           `json:"current_stock,omitempty"`
}

// ItemListRequest filtros de GET /api/items.
type ItemListRequest struct {
	PageRequest
	Category   string `query:"category"`
	Status     string `query:"status"`
	SupplierID string `query:"supplier_id"`
	LowStock   bool   `query:"low_stock"`
	Search     string `query:"q"`
}

// ItemResponse salida de un ítem con sus derivados calculados al momento de la respuesta.
type ItemResponse struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Barcode        string          `json:"barcode,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	CurrentStock   int64           `json:"current_stock"`
	MinimumStock   int64           `json:"minimum_stock"`
	MaximumStock   int64           `json:"maximum_stock"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	UnitMeasure    string          `json:"unit_measure"`
	SupplierID     *string         `json:"supplier_id,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	Location       string          `json:"location,omitempty"`
	Status         string          `json:"status"`
	Version        int64           `json:"version"`
	IsLowStock     bool            `json:"is_low_stock"`
	IsOutOfStock   bool            `json:"is_out_of_stock"`
	IsExpired      bool            `json:"is_expired"`
	IsExpiringSoon bool            `json:"is_expiring_soon"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
