package inventory

import (
	"context"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
)

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement(ctx, actor, MovementInputDTO).
// idempotencyKey (header Idempotency-Key) tiene prioridad sobre la del body.
func (uc *RecordMovementUseCase) RecordMovementFromRequest(
	ctx context.Context,
	actor access.Actor,
	in dto.RecordMovementRequest,
	idempotencyKey string,
) (*dto.RecordMovementResponse, error) {
	key := in.IdempotencyKey
	if idempotencyKey != "" {
		key = idempotencyKey
	}
	res, err := uc.RecordMovement(ctx, actor, MovementInputDTO{
		ItemID:          in.ItemID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		Reason:          in.Reason,
		Notes:           in.Notes,
		Reference:       in.Reference,
		SupplierID:      in.SupplierID,
		PatientID:       in.PatientID,
		PrescriptionID:  in.PrescriptionID,
		AppointmentID:   in.AppointmentID,
		TransactionDate: in.TransactionDate,
		IdempotencyKey:  key,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.RecordMovementResponse{
		Movement: *dto.FromMovement(res.Movement),
		Replayed: res.Replayed,
	}
	if res.Item != nil {
		out.IsLowStock = res.Item.IsLowStock()
	}
	return out, nil
}
