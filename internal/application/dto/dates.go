package dto

import (
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain"
)

// ParseDateParam acepta YYYY-MM-DD o RFC3339. Vacío devuelve nil.
// endOfDay extiende una fecha corta hasta el final del día (para límites superiores).
func ParseDateParam(field, s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, domain.Invalid(field, "formato de fecha inválido (use YYYY-MM-DD o RFC3339)")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
