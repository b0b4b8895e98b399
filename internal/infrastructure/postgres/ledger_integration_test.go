//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

var pharmacist = access.Actor{UserID: "pharm-1", Role: access.RolePharmacist}

type pgEnv struct {
	pool    *pgxpool.Pool
	items   *usecase.ItemUseCase
	record  *inventory.RecordMovementUseCase
	balance *inventory.BalanceUseCase
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("ledger_test"),
		tcPostgres.WithUsername("ledger"),
		tcPostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 40})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	require.NoError(t, postgres.Migrate(ctx, pool), "la migración es idempotente")

	log := logger.Nop()
	policy := access.DefaultPolicy()
	tx := postgres.NewTxRunner(pool, 5, log)
	itemRepo := postgres.NewItemRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	return &pgEnv{
		pool:    pool,
		items:   usecase.NewItemUseCase(tx, itemRepo, movRepo, postgres.NewSupplierRepository(pool), policy, log),
		record:  inventory.NewRecordMovementUseCase(tx, movRepo, policy, log),
		balance: inventory.NewBalanceUseCase(tx, itemRepo, movRepo, policy, log),
	}
}

func (e *pgEnv) createItem(t *testing.T, sku string, stock int64) string {
	t.Helper()
	res, err := e.items.Create(context.Background(), access.System, dto.CreateItemRequest{
		SKU: sku, Name: sku, Category: "medication", InitialStock: stock, MinimumStock: 20,
		UnitCost: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	return res.ID
}

func TestPostgres_LibroYSaldo(t *testing.T) {
	env := setupPostgres(t)
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

func TestPostgres_ConcurrenciaSinSobregiro(t *testing.T) {
	env := setupPostgres(t)
	id := env.createItem(t, "GASA", 100)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
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

	chain, err := env.balance.VerifyChain(context.Background(), pharmacist, id)
	require.NoError(t, err)
	assert.True(t, chain.Consistent())
}

func TestPostgres_Idempotencia(t *testing.T) {
	env := setupPostgres(t)
	id := env.createItem(t, "AMOX", 10)
	in := inventory.MovementInputDTO{ItemID: id, Type: "OUT", Quantity: 4, IdempotencyKey: "req-1"}

	first, err := env.record.RecordMovement(context.Background(), pharmacist, in)
	require.NoError(t, err)
	again, err := env.record.RecordMovement(context.Background(), pharmacist, in)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Movement.ID, again.Movement.ID)

	in.Quantity = 5
	_, err = env.record.RecordMovement(context.Background(), pharmacist, in)
	assert.ErrorIs(t, err, domain.ErrIdempotencyMismatch)
}

func TestPostgres_AppendOnlyYBorradoRestringido(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	id := env.createItem(t, "JER5", 5)

	_, err := env.pool.Exec(ctx, `UPDATE stock_movements SET quantity = 1 WHERE item_id = $1`, id)
	assert.Error(t, err, "el trigger rechaza UPDATE")
	_, err = env.pool.Exec(ctx, `DELETE FROM stock_movements WHERE item_id = $1`, id)
	assert.Error(t, err, "el trigger rechaza DELETE")

	err = env.items.Delete(ctx, access.System, id)
	assert.ErrorIs(t, err, domain.ErrItemHasMovements)

	empty := env.createItem(t, "VACIO", 0)
	require.NoError(t, env.items.Delete(ctx, access.System, empty))
}

func TestPostgres_IndicesDeConsulta(t *testing.T) {
	env := setupPostgres(t)
	for _, name := range []string{
		"idx_items_category", "idx_items_status", "idx_items_current_stock",
		"idx_stock_movements_type", "idx_suppliers_email", "idx_suppliers_status", "idx_suppliers_name",
	} {
		var n int
		err := env.pool.QueryRow(context.Background(),
			`SELECT count(*) FROM pg_indexes WHERE schemaname = current_schema() AND indexname = $1`, name).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}
}

func TestPostgres_ConciliacionCorrigeDesvio(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	id := env.createItem(t, "SUERO", 40)

	_, err := env.pool.Exec(ctx, `UPDATE items SET current_stock = 55 WHERE id = $1`, id)
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

func TestPostgres_ReintentosAgotadosDevuelvenOcupado(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	id := env.createItem(t, "LOCK", 10)

	// una transacción externa retiene el candado más allá del lock_timeout de cada intento
	holder, err := env.pool.Begin(ctx)
	require.NoError(t, err)
	_, err = holder.Exec(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, id)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()

	runner := postgres.NewTxRunner(env.pool, 1, logger.Nop())
	short, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	rec := inventory.NewRecordMovementUseCase(runner, postgres.NewStockMovementRepository(env.pool),
		access.DefaultPolicy(), logger.Nop())
	_, err = rec.RecordMovement(short, pharmacist, inventory.MovementInputDTO{ItemID: id, Type: "OUT", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrBusy)
}

func ptrDecimal(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
