package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

var pharmacist = access.Actor{UserID: "pharm-1", Role: access.RolePharmacist}

type sqliteEnv struct {
	db        *sql.DB
	items     *usecase.ItemUseCase
	suppliers *sqlite.SupplierRepo
	record    *inventory.RecordMovementUseCase
	balance   *inventory.BalanceUseCase
	analytics *sqlite.AnalyticsRepo
}

func setupSQLite(t *testing.T) *sqliteEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))
	require.NoError(t, sqlite.Migrate(ctx, db), "la migración es idempotente")

	log := logger.Nop()
	policy := access.DefaultPolicy()
	tx := sqlite.NewTxRunner(db, 3, log)
	itemRepo := sqlite.NewItemRepository(db)
	movRepo := sqlite.NewStockMovementRepository(db)
	supRepo := sqlite.NewSupplierRepository(db)
	return &sqliteEnv{
		db:        db,
		items:     usecase.NewItemUseCase(tx, itemRepo, movRepo, supRepo, policy, log),
		suppliers: supRepo,
		record:    inventory.NewRecordMovementUseCase(tx, movRepo, policy, log),
		balance:   inventory.NewBalanceUseCase(tx, itemRepo, movRepo, policy, log),
		analytics: sqlite.NewAnalyticsRepository(db),
	}
}

func (e *sqliteEnv) createItem(t *testing.T, sku string, stock int64) string {
	t.Helper()
	res, err := e.items.Create(context.Background(), access.System, dto.CreateItemRequest{
		SKU: sku, Name: sku, Category: "medication", InitialStock: stock, MinimumStock: 20,
		UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	return res.ID
}

// ─── Libro y saldos ─────────────────────────────────────────────────────────

func TestSQLite_LibroYSaldo(t *testing.T) {
	env := setupSQLite(t)
	ctx := context.Background()
	id := env.createItem(t, "PAR500", 100)

	res, err := env.record.RecordMovement(ctx, pharmacist, inventory.MovementInputDTO{
		ItemID: id, Type: "OUT", Quantity: 30, Reason: "dispensación",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Movement.PreviousStock)
	assert.Equal(t, int64(70), res.Movement.NewStock)

	_, err = env.record.RecordMovement(ctx, pharmacist, inventory.MovementInputDTO{ItemID: id, Type: "OUT", Quantity: 71})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = env.record.RecordMovement(ctx, pharmacist, inventory.MovementInputDTO{
		ItemID: id, Type: "IN", Quantity: 30, UnitCost: ptrDecimal(20),
	})
	require.NoError(t, err)

	cached, err := env.balance.CurrentStock(ctx, pharmacist, id, inventory.BalanceModeCached)
	require.NoError(t, err)
	derived, err := env.balance.CurrentStock(ctx, pharmacist, id, inventory.BalanceModeDerived)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cached)
	assert.Equal(t, cached, derived)

	item, err := env.items.GetByID(ctx, pharmacist, id)
	require.NoError(t, err)
	assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(13)), "(70*10 + 30*20) / 100")

	chain, err := env.balance.VerifyChain(ctx, pharmacist, id)
	require.NoError(t, err)
	assert.True(t, chain.Consistent())
	assert.Equal(t, 3, chain.MovementCount)
}

func TestSQLite_ConcurrenciaSinSobregiro(t *testing.T) {
	env := setupSQLite(t)
	id := env.createItem(t, "GASA", 100)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.record.RecordMovement(context.Background(), pharmacist, inventory.MovementInputDTO{
				ItemID: id, Type: "OUT", Quantity: 3,
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 33, accepted)
	stock, err := env.balance.CurrentStock(context.Background(), pharmacist, id, inventory.BalanceModeDerived)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock)
}

func TestSQLite_Idempotencia(t *testing.T) {
	env := setupSQLite(t)
	id := env.createItem(t, "AMOX", 10)
	in := inventory.MovementInputDTO{ItemID: id, Type: "OUT", Quantity: 4, IdempotencyKey: "req-1"}

	first, err := env.record.RecordMovement(context.Background(), pharmacist, in)
	require.NoError(t, err)
	again, err := env.record.RecordMovement(context.Background(), pharmacist, in)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Movement.ID, again.Movement.ID)
	assert.Equal(t, int64(6), again.Item.CurrentStock)

	in.Quantity = 5
	_, err = env.record.RecordMovement(context.Background(), pharmacist, in)
	assert.ErrorIs(t, err, domain.ErrIdempotencyMismatch)
}

// ─── Restricciones del esquema ──────────────────────────────────────────────

func TestSQLite_AppendOnlyYBorradoRestringido(t *testing.T) {
	env := setupSQLite(t)
	ctx := context.Background()
	id := env.createItem(t, "JER5", 5)

	_, err := env.db.ExecContext(ctx, `UPDATE stock_movements SET quantity = 1 WHERE item_id = ?`, id)
	assert.Error(t, err, "el trigger rechaza UPDATE")
	_, err = env.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE item_id = ?`, id)
	assert.Error(t, err, "el trigger rechaza DELETE")

	err = env.items.Delete(ctx, access.System, id)
	assert.ErrorIs(t, err, domain.ErrItemHasMovements)

	empty := env.createItem(t, "VACIO", 0)
	require.NoError(t, env.items.Delete(ctx, access.System, empty))
}

func TestSQLite_IndicesDeConsulta(t *testing.T) {
	env := setupSQLite(t)
	for _, name := range []string{
		"idx_items_category", "idx_items_status", "idx_items_current_stock",
		"idx_stock_movements_type", "idx_suppliers_email", "idx_suppliers_status", "idx_suppliers_name",
	} {
		var n int
		err := env.db.QueryRowContext(context.Background(),
			`SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}
}

func TestSQLite_SKUDuplicadoSinDistinguirMayusculas(t *testing.T) {
	env := setupSQLite(t)
	env.createItem(t, "ibu400", 0)

	_, err := env.items.Create(context.Background(), access.System, dto.CreateItemRequest{
		SKU: "IBU400", Name: "Ibuprofeno", Category: "medication",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestSQLite_ConciliacionCorrigeDesvio(t *testing.T) {
	env := setupSQLite(t)
	ctx := context.Background()
	id := env.createItem(t, "SUERO", 40)

	_, err := env.db.ExecContext(ctx, `UPDATE items SET current_stock = 55 WHERE id = ?`, id)
	require.NoError(t, err)

	rep, err := env.balance.Reconcile(ctx, access.System, id)
	require.NoError(t, err)
	assert.Equal(t, int64(55), rep.Cached)
	assert.Equal(t, int64(40), rep.Derived)
	assert.True(t, rep.Corrected)

	cached, err := env.balance.CurrentStock(ctx, access.System, id, inventory.BalanceModeCached)
	require.NoError(t, err)
	assert.Equal(t, int64(40), cached)
}

// ─── Proveedores y analítica ────────────────────────────────────────────────

func TestSQLite_Proveedores(t *testing.T) {
	env := setupSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	s := &entity.Supplier{ID: "sup-1", Name: "Droguería Central", Status: entity.SupplierStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, env.suppliers.Create(ctx, s))
	require.NoError(t, env.suppliers.Create(ctx, &entity.Supplier{
		ID: "sup-2", Name: "Alfa", Status: entity.SupplierStatusInactive, CreatedAt: now, UpdatedAt: now,
	}))

	list, total, err := env.suppliers.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Alfa", list[0].Name)

	active, total, err := env.suppliers.List(ctx, entity.SupplierStatusActive, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "sup-1", active[0].ID)

	s.Phone = "601 555 0101"
	require.NoError(t, env.suppliers.Update(ctx, s))
	got, err := env.suppliers.GetByID(ctx, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "601 555 0101", got.Phone)

	missing, err := env.suppliers.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_AnaliticaPorCategoria(t *testing.T) {
	env := setupSQLite(t)
	ctx := context.Background()
	id := env.createItem(t, "DIPI", 50)

	_, err := env.record.RecordMovement(ctx, pharmacist, inventory.MovementInputDTO{ItemID: id, Type: "OUT", Quantity: 35})
	require.NoError(t, err)

	from, to := time.Now().Add(-time.Hour), time.Now().Add(time.Hour)
	usage, err := env.analytics.UsageByCategory(ctx, from, to, "")
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, entity.CategoryMedication, usage[0].Category)
	assert.Equal(t, int64(35), usage[0].TotalQuantity)
	assert.Equal(t, int64(1), usage[0].MovementCount)

	cost, err := env.analytics.CostByCategory(ctx, from, to, entity.CategoryMedication)
	require.NoError(t, err)
	require.Len(t, cost, 1)
	assert.Equal(t, int64(85), cost[0].TotalQuantity, "ajuste inicial 50 + salida 35")
	assert.True(t, cost[0].Cost.Equal(decimal.NewFromInt(850)))
	assert.True(t, cost[0].Value.Equal(decimal.NewFromInt(2125)))

	none, err := env.analytics.CostByCategory(ctx, from, to, entity.CategorySurgical)
	require.NoError(t, err)
	assert.Empty(t, none)

	low, err := env.analytics.LowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, id, low[0].ID)

	sum, err := env.analytics.StockSummary(ctx, time.Now(), time.Now().AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.TotalItems)
	assert.Equal(t, int64(1), sum.LowStock)
	assert.True(t, sum.TotalValue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, int64(1), sum.ByCategory[entity.CategoryMedication])
}

func ptrDecimal(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
