package dto

import (
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
)

// FromItem convierte la entidad en respuesta, calculando los derivados contra now.
func FromItem(i *entity.Item, now time.Time) *ItemResponse {
	if i == nil {
		return nil
	}
	return &ItemResponse{
		ID:             i.ID,
		SKU:            i.SKU,
		Barcode:        i.Barcode,
		Name:           i.Name,
		Description:    i.Description,
		Category:       string(i.Category),
		CurrentStock:   i.CurrentStock,
		MinimumStock:   i.MinimumStock,
		MaximumStock:   i.MaximumStock,
		UnitCost:       i.UnitCost,
		UnitPrice:      i.UnitPrice,
		UnitMeasure:    i.UnitMeasure,
		SupplierID:     i.SupplierID,
		ExpiryDate:     i.ExpiryDate,
		BatchNumber:    i.BatchNumber,
		Location:       i.Location,
		Status:         string(i.Status),
		Version:        i.Version,
		IsLowStock:     i.IsLowStock(),
		IsOutOfStock:   i.IsOutOfStock(),
		IsExpired:      i.IsExpired(now),
		IsExpiringSoon: i.IsExpiringSoon(now),
		TotalValue:     i.TotalValue(),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// FromItems convierte una lista de ítems.
func FromItems(list []*entity.Item, now time.Time) []ItemResponse {
	out := make([]ItemResponse, 0, len(list))
	for _, i := range list {
		out = append(out, *FromItem(i, now))
	}
	return out
}

// FromMovement convierte un movimiento del libro.
func FromMovement(m *entity.StockMovement) *MovementResponse {
	if m == nil {
		return nil
	}
	return &MovementResponse{
		ID:              m.ID,
		ItemID:          m.ItemID,
		Type:            string(m.Type),
		Direction:       m.Type.Direction().String(),
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		UnitCost:        m.UnitCost,
		Reason:          m.Reason,
		Notes:           m.Notes,
		Reference:       m.Reference,
		SupplierID:      m.SupplierID,
		PatientID:       m.PatientID,
		PrescriptionID:  m.PrescriptionID,
		AppointmentID:   m.AppointmentID,
		PerformedBy:     m.PerformedBy,
		IdempotencyKey:  m.IdempotencyKey,
		TransactionDate: m.TransactionDate,
		CreatedAt:       m.CreatedAt,
	}
}

// FromMovements convierte una lista de movimientos.
func FromMovements(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *FromMovement(m))
	}
	return out
}

// FromReconciliation convierte el reporte de conciliación.
func FromReconciliation(r inventory.ReconciliationReport) ReconciliationResponse {
	return ReconciliationResponse{
		ItemID:        r.ItemID,
		SKU:           r.SKU,
		Cached:        r.Cached,
		Derived:       r.Derived,
		Difference:    r.Difference,
		Corrected:     r.Corrected,
		MovementCount: r.MovementCount,
		CheckedAt:     r.CheckedAt,
	}
}

// FromChain convierte el reporte de encadenamiento.
func FromChain(r inventory.ChainReport) ChainResponse {
	breaks := make([]ChainBreakResponse, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		breaks = append(breaks, ChainBreakResponse{
			MovementID:       b.MovementID,
			ExpectedPrevious: b.ExpectedPrevious,
			ActualPrevious:   b.ActualPrevious,
		})
	}
	return ChainResponse{
		ItemID:        r.ItemID,
		MovementCount: r.MovementCount,
		Consistent:    r.Consistent(),
		LastNewStock:  r.LastNewStock,
		Breaks:        breaks,
	}
}

// FromSupplier convierte un proveedor.
func FromSupplier(s *entity.Supplier) *SupplierResponse {
	if s == nil {
		return nil
	}
	return &SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		TaxID:       s.TaxID,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
