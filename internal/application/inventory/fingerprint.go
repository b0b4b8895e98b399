package inventory

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// Fingerprint huella del payload de un movimiento para detectar reutilización de una llave
// de idempotencia con datos distintos. TransactionDate no participa: un reintento puede
// recalcularla en el cliente.
func Fingerprint(input MovementInputDTO, typ entity.MovementType) string {
	cost := ""
	if input.UnitCost != nil {
		cost = input.UnitCost.String()
	}
	parts := []string{
		input.ItemID,
		string(typ),
		strconv.FormatInt(input.Quantity, 10),
		cost,
		input.Reason,
		input.Reference,
		deref(input.SupplierID),
		deref(input.PatientID),
		deref(input.PrescriptionID),
		deref(input.AppointmentID),
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
