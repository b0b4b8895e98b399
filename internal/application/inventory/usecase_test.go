package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

var nurse = access.Actor{UserID: "nurse-1", Role: access.RoleNurse}

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.StockEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev inventory.StockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	record    *inventory.RecordMovementUseCase
	balance   *inventory.BalanceUseCase
	history   *inventory.HistoryUseCase
	publisher *recordingPublisher
	cache     *memory.IdempotencyCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	cache := memory.NewIdempotencyCache()
	policy := access.DefaultPolicy()
	record := inventory.NewRecordMovementUseCase(store.TxRunner(), store.Movements(), policy, logger.Nop(),
		inventory.WithPublisher(pub), inventory.WithIdempotencyCache(cache))
	balance := inventory.NewBalanceUseCase(store.TxRunner(), store.Items(), store.Movements(), policy, logger.Nop(),
		inventory.WithPublisher(pub))
	return &fixture{
		store:     store,
		record:    record,
		balance:   balance,
		history:   inventory.NewHistoryUseCase(store.Items(), store.Movements(), policy),
		publisher: pub,
		cache:     cache,
	}
}

// seedItem crea el ítem en cero y lleva el stock inicial por el libro, como lo hace el catálogo.
func (f *fixture) seedItem(t *testing.T, sku string, stock, minimum int64) *entity.Item {
	t.Helper()
	now := time.Now().UTC()
	item := &entity.Item{
		ID:           uuid.New().String(),
		SKU:          sku,
		Name:         "Ítem " + sku,
		Category:     entity.CategoryMedication,
		MinimumStock: minimum,
		UnitCost:     decimal.NewFromInt(10),
		UnitPrice:    decimal.NewFromInt(15),
		UnitMeasure:  "unidad",
		Status:       entity.ItemStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.store.Items().Create(context.Background(), item))
	if stock > 0 {
		_, err := f.record.RecordMovement(context.Background(), access.System, inventory.MovementInputDTO{
			ItemID: item.ID, Type: "ADJUSTMENT", Quantity: stock, Reason: "stock inicial",
		})
		require.NoError(t, err)
	}
	return item
}

func (f *fixture) stock(t *testing.T, id string) int64 {
	t.Helper()
	it, err := f.store.Items().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.CurrentStock
}

func (f *fixture) movementsOf(t *testing.T, id string) []*entity.StockMovement {
	t.Helper()
	list, err := f.store.Movements().ListByItem(context.Background(), id, nil, nil)
	require.NoError(t, err)
	return list
}

// assertInvariant saldo cacheado == Σ entradas − Σ salidas.
func (f *fixture) assertInvariant(t *testing.T, id string) {
	t.Helper()
	totals, err := f.store.Movements().TotalsByItem(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, totals.Balance(), f.stock(t, id), "saldo cacheado difiere del libro")
}

// ─── Escenarios ──────────────────────────────────────────────────────────────

func TestRecordMovement_SalidaDejaBajoStockYLuegoInsuficiente(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "PAR500", 100, 20)

	res, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "OUT", Quantity: 90, Reason: "dispensación",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Movement.PreviousStock)
	assert.Equal(t, int64(10), res.Movement.NewStock)
	assert.Equal(t, "nurse-1", res.Movement.PerformedBy)
	assert.True(t, res.Item.IsLowStock())
	assert.Contains(t, f.publisher.types(), inventory.EventStockAlert)

	_, err = f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "OUT", Quantity: 20,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "PAR500", ise.SKU)
	assert.Equal(t, int64(20), ise.Requested)
	assert.Equal(t, int64(10), ise.Available)

	assert.Equal(t, int64(10), f.stock(t, item.ID))
	assert.Len(t, f.movementsOf(t, item.ID), 2)
	f.assertInvariant(t, item.ID)
}

func TestRecordMovement_EntradaRegistraSnapshots(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "GAS-01", 10, 5)

	res, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "IN", Quantity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIN, res.Movement.Type)
	assert.Equal(t, int64(10), res.Movement.PreviousStock)
	assert.Equal(t, int64(60), res.Movement.NewStock)
	assert.Equal(t, int64(60), f.stock(t, item.ID))
	f.assertInvariant(t, item.ID)
}

func TestRecordMovement_EntradaConCostoRecalculaPromedio(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "AMOX", 10, 0) // costo 10

	cost := decimal.NewFromInt(20)
	res, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "IN", Quantity: 10, UnitCost: &cost,
	})
	require.NoError(t, err)
	assert.True(t, res.Movement.UnitCost.Equal(cost))
	got, _ := f.store.Items().GetByID(context.Background(), item.ID)
	assert.True(t, got.UnitCost.Equal(decimal.NewFromInt(15)), "promedio ponderado (10*10+10*20)/20")
}

func TestRecordMovement_TiposDeSalidaYEntrada(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "SUERO", 50, 0)

	steps := []struct {
		typ  string
		qty  int64
		want int64
	}{
		{"EXPIRED", 5, 45},
		{"DAMAGED", 5, 40},
		{"TRANSFER", 10, 30},
		{"RETURN", 3, 33},
		{"ADJUSTMENT", 7, 40},
	}
	for _, s := range steps {
		res, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
			ItemID: item.ID, Type: s.typ, Quantity: s.qty,
		})
		require.NoError(t, err, s.typ)
		assert.Equal(t, s.want, res.Movement.NewStock, s.typ)
	}
	rep, err := f.balance.VerifyChain(context.Background(), nurse, item.ID)
	require.NoError(t, err)
	assert.True(t, rep.Consistent())
	assert.Equal(t, len(steps)+1, rep.MovementCount)
	f.assertInvariant(t, item.ID)
}

// ─── Validación y autorización ───────────────────────────────────────────────

func TestRecordMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "VAL", 5, 0)
	cost := decimal.NewFromInt(1)
	neg := decimal.NewFromInt(-1)

	cases := map[string]inventory.MovementInputDTO{
		"cantidad cero":     {ItemID: item.ID, Type: "OUT", Quantity: 0},
		"cantidad negativa": {ItemID: item.ID, Type: "IN", Quantity: -3},
		"tipo desconocido":  {ItemID: item.ID, Type: "SALE", Quantity: 1},
		"sin item":          {Type: "IN", Quantity: 1},
		"costo fuera de IN": {ItemID: item.ID, Type: "OUT", Quantity: 1, UnitCost: &cost},
		"costo negativo":    {ItemID: item.ID, Type: "IN", Quantity: 1, UnitCost: &neg},
	}
	for name, in := range cases {
		_, err := f.record.RecordMovement(context.Background(), nurse, in)
		assert.True(t, domain.IsValidation(err), name)
	}
	assert.Len(t, f.movementsOf(t, item.ID), 1)
}

func TestRecordMovement_ItemInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: uuid.New().String(), Type: "IN", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_ActorSinCapacidad(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "RO", 5, 0)
	viewer := access.Actor{UserID: "v1", Role: access.RoleViewer}

	_, err := f.record.RecordMovement(context.Background(), viewer, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "OUT", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, int64(5), f.stock(t, item.ID))
}

// ─── Idempotencia ────────────────────────────────────────────────────────────

func TestRecordMovement_LlaveRepetidaDevuelveOriginal(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "IDEM", 10, 0)
	in := inventory.MovementInputDTO{ItemID: item.ID, Type: "OUT", Quantity: 3, IdempotencyKey: "req-1"}

	first, err := f.record.RecordMovement(context.Background(), nurse, in)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.record.RecordMovement(context.Background(), nurse, in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Movement.ID, second.Movement.ID)
	assert.Equal(t, int64(7), f.stock(t, item.ID))
	assert.Len(t, f.movementsOf(t, item.ID), 2)
}

func TestRecordMovement_LlaveRepetidaSinCache(t *testing.T) {
	store := memory.NewStore()
	uc := inventory.NewRecordMovementUseCase(store.TxRunner(), store.Movements(), access.DefaultPolicy(), logger.Nop())
	f := &fixture{store: store, record: uc}
	item := f.seedItem(t, "IDEM2", 10, 0)
	in := inventory.MovementInputDTO{ItemID: item.ID, Type: "OUT", Quantity: 3, IdempotencyKey: "req-2"}

	_, err := uc.RecordMovement(context.Background(), nurse, in)
	require.NoError(t, err)
	res, err := uc.RecordMovement(context.Background(), nurse, in)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, int64(7), f.stock(t, item.ID))
}

func TestRecordMovement_LlaveConOtroContenido(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "IDEM3", 10, 0)

	_, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "OUT", Quantity: 3, IdempotencyKey: "req-3",
	})
	require.NoError(t, err)
	_, err = f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
		ItemID: item.ID, Type: "OUT", Quantity: 4, IdempotencyKey: "req-3",
	})
	assert.ErrorIs(t, err, domain.ErrIdempotencyMismatch)
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, int64(7), f.stock(t, item.ID))
}

func TestRecordMovement_LlaveConcurrente(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "IDEM4", 100, 0)
	in := inventory.MovementInputDTO{ItemID: item.ID, Type: "OUT", Quantity: 1, IdempotencyKey: "req-4"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.record.RecordMovement(context.Background(), nurse, in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(99), f.stock(t, item.ID))
	assert.Len(t, f.movementsOf(t, item.ID), 2)
}

// ─── Concurrencia y cancelación ──────────────────────────────────────────────

func TestRecordMovement_SalidasConcurrentesSinPerdidas(t *testing.T) {
	const (
		n = 50
		q = 3
	)
	f := newFixture(t)
	item := f.seedItem(t, "CONC", n*q, 0)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
				ItemID: item.ID, Type: "OUT", Quantity: q,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(0), f.stock(t, item.ID))
	movs := f.movementsOf(t, item.ID)
	assert.Len(t, movs, n+1)
	for i := 1; i < len(movs); i++ {
		assert.Equal(t, movs[i-1].NewStock, movs[i].PreviousStock, "eslabón %d", i)
	}
	f.assertInvariant(t, item.ID)
}

func TestRecordMovement_SobregiroConcurrenteNuncaNegativo(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "OVER", 10, 0)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
				ItemID: item.ID, Type: "OUT", Quantity: 1,
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	assert.Equal(t, int64(0), f.stock(t, item.ID))
	f.assertInvariant(t, item.ID)
}

func TestTxRunner_ContextoCanceladoHaceRollback(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "CANCEL", 10, 0)
	ctx, cancel := context.WithCancel(context.Background())

	err := f.store.TxRunner().Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.StockMovementRepository) error {
		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{
			ID: uuid.New().String(), ItemID: item.ID, Type: entity.MovementTypeOUT,
			Quantity: 4, PreviousStock: 10, NewStock: 6, TransactionDate: time.Now(), CreatedAt: time.Now(),
		}))
		cancel()
		return itemRepo.UpdateStock(ctx, item.ID, 6, item.UnitCost)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), f.stock(t, item.ID))
	assert.Len(t, f.movementsOf(t, item.ID), 1)
}

// ─── Historial ───────────────────────────────────────────────────────────────

func TestItemHistory_OrdenAscendenteYFiltros(t *testing.T) {
	f := newFixture(t)
	item := f.seedItem(t, "HIST", 10, 0)
	for _, q := range []int64{1, 2, 3} {
		_, err := f.record.RecordMovement(context.Background(), nurse, inventory.MovementInputDTO{
			ItemID: item.ID, Type: "OUT", Quantity: q,
		})
		require.NoError(t, err)
	}

	hist, err := f.history.ItemHistory(context.Background(), nurse, item.ID, "", "")
	require.NoError(t, err)
	require.Len(t, hist, 4)
	assert.Equal(t, "ADJUSTMENT", hist[0].Type)
	assert.Equal(t, int64(4), hist[3].NewStock)

	_, err = f.history.ItemHistory(context.Background(), nurse, item.ID, "ayer", "")
	assert.True(t, domain.IsValidation(err))

	_, err = f.history.ItemHistory(context.Background(), nurse, uuid.New().String(), "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
