package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

// Modos de lectura del saldo.
const (
	BalanceModeCached  = "cached"
	BalanceModeDerived = "derived"
)

// BalanceUseCase motor de saldos: lectura cacheada o derivada, conciliación y verificación del libro.
type BalanceUseCase struct {
	txRunner  TxRunner
	itemRepo  repository.ItemRepository
	movRepo   repository.StockMovementRepository
	policy    access.Policy
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewBalanceUseCase construye el caso de uso. Acepta WithPublisher y WithClock.
func NewBalanceUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
	policy access.Policy,
	log *logger.Logger,
	opts ...Option,
) *BalanceUseCase {
	o := buildOptions(opts)
	return &BalanceUseCase{
		txRunner:  txRunner,
		itemRepo:  itemRepo,
		movRepo:   movRepo,
		policy:    policy,
		publisher: o.publisher,
		log:       log.Component("reconcile"),
		now:       o.now,
	}
}

// CurrentStock devuelve el saldo cacheado (items.current_stock) o el derivado del libro.
func (uc *BalanceUseCase) CurrentStock(ctx context.Context, actor access.Actor, itemID, mode string) (int64, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return 0, domain.ErrForbidden
	}
	if mode == "" {
		mode = BalanceModeCached
	}
	if mode != BalanceModeCached && mode != BalanceModeDerived {
		return 0, domain.Invalid("mode", "use cached o derived")
	}
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, domain.ErrNotFound
	}
	if mode == BalanceModeCached {
		return item.CurrentStock, nil
	}
	totals, err := uc.movRepo.TotalsByItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return totals.Balance(), nil
}

// Reconcile compara el saldo cacheado contra el libro bajo el candado del ítem y, si difieren,
// corrige items.current_stock con una sola escritura.
func (uc *BalanceUseCase) Reconcile(ctx context.Context, actor access.Actor, itemID string) (inventory.ReconciliationReport, error) {
	if !uc.policy.Allows(actor, access.CapReconcile) {
		return inventory.ReconciliationReport{}, domain.ErrForbidden
	}
	return uc.reconcile(ctx, actor, itemID)
}

// ReconcileAll concilia ítem por ítem y devuelve solo los que tenían discrepancia.
// Cada ítem usa su propia transacción para no bloquear el catálogo completo.
func (uc *BalanceUseCase) ReconcileAll(ctx context.Context, actor access.Actor) ([]inventory.ReconciliationReport, error) {
	if !uc.policy.Allows(actor, access.CapReconcile) {
		return nil, domain.ErrForbidden
	}
	ids, err := uc.itemRepo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]inventory.ReconciliationReport, 0)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rep, err := uc.reconcile(ctx, actor, id)
		if err != nil {
			// ítem borrado entre el listado y la conciliación
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return out, err
		}
		if rep.HasDiscrepancy() {
			out = append(out, rep)
		}
	}
	uc.log.Info().Int("items", len(ids)).Int("discrepancies", len(out)).Msg("conciliación completa")
	return out, nil
}

func (uc *BalanceUseCase) reconcile(ctx context.Context, actor access.Actor, itemID string) (inventory.ReconciliationReport, error) {
	var rep inventory.ReconciliationReport
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		movRepo repository.StockMovementRepository,
	) error {
		item, err := itemRepo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		totals, err := movRepo.TotalsByItem(ctx, itemID)
		if err != nil {
			return err
		}
		derived := totals.Balance()
		rep = inventory.ReconciliationReport{
			ItemID:        item.ID,
			SKU:           item.SKU,
			Cached:        item.CurrentStock,
			Derived:       derived,
			Difference:    derived - item.CurrentStock,
			MovementCount: totals.Count,
			CheckedAt:     uc.now().UTC(),
		}
		if !rep.HasDiscrepancy() || derived < 0 {
			return nil
		}
		if err := itemRepo.UpdateStock(ctx, item.ID, derived, item.UnitCost); err != nil {
			return err
		}
		rep.Corrected = true
		return nil
	})
	if err != nil {
		return inventory.ReconciliationReport{}, err
	}
	if !rep.HasDiscrepancy() {
		return rep, nil
	}

	ev := uc.log.Warn()
	msg := "saldo cacheado corregido desde el libro"
	if !rep.Corrected {
		ev = uc.log.Error()
		msg = "saldo derivado negativo, requiere revisión manual"
	}
	ev.Str("item_id", rep.ItemID).
		Str("sku", rep.SKU).
		Int64("cached", rep.Cached).
		Int64("derived", rep.Derived).
		Int64("difference", rep.Difference).
		Int64("movements", rep.MovementCount).
		Str("performed_by", actor.UserID).
		Msg(msg)

	if err := uc.publisher.Publish(ctx, reconciledEvent(rep, actor.UserID)); err != nil {
		uc.log.Warn().Err(err).Str("item_id", rep.ItemID).Msg("no se pudo publicar el evento de conciliación")
	}
	return rep, nil
}

// VerifyChain recorre el historial y reporta eslabones donde previousStock no coincide
// con el newStock del movimiento anterior.
func (uc *BalanceUseCase) VerifyChain(ctx context.Context, actor access.Actor, itemID string) (inventory.ChainReport, error) {
	if !uc.policy.Allows(actor, access.CapReadInventory) {
		return inventory.ChainReport{}, domain.ErrForbidden
	}
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return inventory.ChainReport{}, err
	}
	if item == nil {
		return inventory.ChainReport{}, domain.ErrNotFound
	}
	movs, err := uc.movRepo.ListByItem(ctx, itemID, nil, nil)
	if err != nil {
		return inventory.ChainReport{}, err
	}
	rep := inventory.VerifyChain(itemID, movs)
	if !rep.Consistent() {
		uc.log.Warn().Str("item_id", itemID).Int("breaks", len(rep.Breaks)).Msg("libro con eslabones rotos")
	}
	return rep, nil
}
