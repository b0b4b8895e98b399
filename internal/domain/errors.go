package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrBusy                = errors.New("recurso ocupado, reintente")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrStockFieldImmutable = errors.New("el stock solo cambia mediante movimientos")
	ErrItemHasMovements    = errors.New("el ítem tiene movimientos registrados")
	ErrIdempotencyMismatch = errors.New("la clave de idempotencia ya se usó con otro contenido")
)

// IsConflict indica si err pertenece a la familia Conflict (SKU duplicado, versión, ocupado, idempotencia).
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrItemHasMovements) ||
		errors.Is(err, ErrIdempotencyMismatch)
}

// IsValidation indica si err es un error de validación de entrada.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrStockFieldImmutable)
}

// InsufficientStockError lleva el contexto necesario para que el operador corrija la solicitud.
type InsufficientStockError struct {
	ItemID    string
	SKU       string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s (%s): solicitado %d, disponible %d",
		e.SKU, e.ItemID, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError describe el campo inválido y el motivo.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "entrada inválida: " + e.Reason
	}
	return fmt.Sprintf("entrada inválida en %s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
