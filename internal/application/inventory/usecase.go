package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

// RecordMovementUseCase registra movimientos en el libro de forma transaccional
// (IN, OUT, ADJUSTMENT, TRANSFER, EXPIRED, DAMAGED, RETURN) con bloqueo de fila (SELECT FOR UPDATE).
// El movimiento y el nuevo saldo del ítem se confirman juntos o no se confirma ninguno.
type RecordMovementUseCase struct {
	txRunner  TxRunner
	movRepo   repository.StockMovementRepository
	policy    access.Policy
	cache     IdempotencyCache
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// Option configura colaboradores opcionales de los casos de uso del libro.
type Option func(*options)

type options struct {
	cache     IdempotencyCache
	publisher EventPublisher
	now       func() time.Time
}

// WithIdempotencyCache usa una caché (Redis) para resolver reintentos sin transacción.
func WithIdempotencyCache(c IdempotencyCache) Option {
	return func(o *options) { o.cache = c }
}

// WithPublisher publica eventos de stock tras el commit.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{cache: noopCache{}, publisher: noopPublisher{}, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	policy access.Policy,
	log *logger.Logger,
	opts ...Option,
) *RecordMovementUseCase {
	o := buildOptions(opts)
	return &RecordMovementUseCase{
		txRunner:  txRunner,
		movRepo:   movRepo,
		policy:    policy,
		cache:     o.cache,
		publisher: o.publisher,
		log:       log.Component("ledger"),
		now:       o.now,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// UnitCost solo se admite en IN y recalcula el costo promedio ponderado del ítem.
type MovementInputDTO struct {
	ItemID          string
	Type            string
	Quantity        int64
	UnitCost        *decimal.Decimal
	Reason          string
	Notes           string
	Reference       string
	SupplierID      *string
	PatientID       *string
	PrescriptionID  *string
	AppointmentID   *string
	TransactionDate *time.Time
	IdempotencyKey  string
}

// MovementResult resultado de RecordMovement. Item refleja el saldo tras el movimiento.
type MovementResult struct {
	Movement *entity.StockMovement
	Item     *entity.Item
	Replayed bool
}

// RecordMovement bloquea la fila del ítem, valida el saldo resultante, inserta el movimiento
// con sus snapshots y actualiza items.current_stock en la misma transacción.
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, actor access.Actor, input MovementInputDTO) (*MovementResult, error) {
	if !uc.policy.Allows(actor, access.CapRecordMovement) {
		return nil, domain.ErrForbidden
	}
	typ, err := validateMovementInput(input)
	if err != nil {
		return nil, err
	}
	hash := Fingerprint(input, typ)

	if input.IdempotencyKey != "" {
		if res, err := uc.replayFromCache(ctx, input.IdempotencyKey, hash); res != nil || err != nil {
			return res, err
		}
	}

	now := uc.now().UTC()
	txDate := now
	if input.TransactionDate != nil {
		txDate = input.TransactionDate.UTC()
	}

	var (
		result *MovementResult
		wasLow bool
	)
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		movRepo repository.StockMovementRepository,
	) error {
		result = nil
		// Bloquea la fila del ítem (SELECT FOR UPDATE): previousStock se lee bajo el candado
		item, err := itemRepo.GetForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		if input.IdempotencyKey != "" {
			existing, err := movRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != hash {
					return domain.ErrIdempotencyMismatch
				}
				result = &MovementResult{Movement: existing, Item: item, Replayed: true}
				return nil
			}
		}

		newStock, err := inventory.ApplyMovement(item, typ, input.Quantity)
		if err != nil {
			return err
		}

		movCost := item.UnitCost
		itemCost := item.UnitCost
		if typ == entity.MovementTypeIN && input.UnitCost != nil {
			movCost = *input.UnitCost
			itemCost = inventory.WeightedUnitCost(item.CurrentStock, item.UnitCost, input.Quantity, movCost)
		}

		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			ItemID:          item.ID,
			Type:            typ,
			Quantity:        input.Quantity,
			PreviousStock:   item.CurrentStock,
			NewStock:        newStock,
			UnitCost:        movCost,
			Reason:          input.Reason,
			Notes:           input.Notes,
			Reference:       input.Reference,
			SupplierID:      input.SupplierID,
			PatientID:       input.PatientID,
			PrescriptionID:  input.PrescriptionID,
			AppointmentID:   input.AppointmentID,
			PerformedBy:     actor.UserID,
			IdempotencyKey:  input.IdempotencyKey,
			RequestHash:     hash,
			TransactionDate: txDate,
			CreatedAt:       now,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		if err := itemRepo.UpdateStock(ctx, item.ID, newStock, itemCost); err != nil {
			return err
		}

		wasLow = item.IsLowStock()
		item.CurrentStock = newStock
		item.UnitCost = itemCost
		item.UpdatedAt = now
		result = &MovementResult{Movement: mov, Item: item}
		return nil
	})
	if err != nil {
		// Otra petición con la misma llave confirmó primero: el índice único lo detecta
		if input.IdempotencyKey != "" && errors.Is(err, domain.ErrDuplicate) {
			return uc.replayCommitted(ctx, input.IdempotencyKey, hash)
		}
		uc.logFailure(input, typ, actor, err)
		return nil, err
	}

	if input.IdempotencyKey != "" {
		if err := uc.cache.Put(ctx, input.IdempotencyKey, result.Movement.ID); err != nil {
			uc.log.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("no se pudo cachear la llave de idempotencia")
		}
	}
	if result.Replayed {
		uc.log.Info().
			Str("movement_id", result.Movement.ID).
			Str("idempotency_key", input.IdempotencyKey).
			Msg("movimiento repetido, se devuelve el original")
		return result, nil
	}

	mov := result.Movement
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("item_id", mov.ItemID).
		Str("sku", result.Item.SKU).
		Str("type", string(mov.Type)).
		Int64("quantity", mov.Quantity).
		Int64("previous_stock", mov.PreviousStock).
		Int64("new_stock", mov.NewStock).
		Str("performed_by", mov.PerformedBy).
		Msg("movimiento registrado")

	uc.publish(ctx, movementRecordedEvent(result.Item, mov))
	if ev, ok := alertEvent(result.Item, mov, wasLow); ok {
		uc.publish(ctx, ev)
	}
	return result, nil
}

func validateMovementInput(input MovementInputDTO) (entity.MovementType, error) {
	if input.ItemID == "" {
		return "", domain.Invalid("item_id", "requerido")
	}
	typ, ok := entity.ParseMovementType(input.Type)
	if !ok {
		return "", domain.Invalid("type", "tipo de movimiento desconocido: "+input.Type)
	}
	if input.Quantity <= 0 {
		return "", domain.Invalid("quantity", "la cantidad debe ser un entero positivo")
	}
	if input.UnitCost != nil {
		if typ != entity.MovementTypeIN {
			return "", domain.Invalid("unit_cost", "solo se admite en movimientos IN")
		}
		if input.UnitCost.IsNegative() {
			return "", domain.Invalid("unit_cost", "no puede ser negativo")
		}
	}
	return typ, nil
}

// replayFromCache resuelve un reintento sin abrir transacción. Un fallo de la caché no es fatal:
// la transacción vuelve a comprobar la llave bajo el candado del ítem.
func (uc *RecordMovementUseCase) replayFromCache(ctx context.Context, key, hash string) (*MovementResult, error) {
	movID, found, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Warn().Err(err).Str("idempotency_key", key).Msg("caché de idempotencia no disponible")
		return nil, nil
	}
	if !found {
		return nil, nil
	}
	mov, err := uc.movRepo.GetByID(ctx, movID)
	if err != nil || mov == nil {
		return nil, nil
	}
	if mov.RequestHash != hash {
		return nil, domain.ErrIdempotencyMismatch
	}
	return &MovementResult{Movement: mov, Replayed: true}, nil
}

func (uc *RecordMovementUseCase) replayCommitted(ctx context.Context, key, hash string) (*MovementResult, error) {
	mov, err := uc.movRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("leer movimiento por llave de idempotencia: %w", err)
	}
	if mov == nil {
		return nil, domain.ErrConflict
	}
	if mov.RequestHash != hash {
		return nil, domain.ErrIdempotencyMismatch
	}
	return &MovementResult{Movement: mov, Replayed: true}, nil
}

func (uc *RecordMovementUseCase) logFailure(input MovementInputDTO, typ entity.MovementType, actor access.Actor, err error) {
	var ev = uc.log.Error()
	if domain.IsValidation(err) || domain.IsConflict(err) ||
		errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
		ev = uc.log.Info()
	}
	ev.Err(err).
		Str("item_id", input.ItemID).
		Str("type", string(typ)).
		Int64("quantity", input.Quantity).
		Str("performed_by", actor.UserID).
		Msg("movimiento rechazado")
}

func (uc *RecordMovementUseCase) publish(ctx context.Context, ev StockEvent) {
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", ev.Type).Str("item_id", ev.ItemID).Msg("no se pudo publicar el evento")
	}
}
