package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

const (
	defaultMaxRetries = 3
	retryBaseDelay    = 25 * time.Millisecond
	// lockTimeout acota la espera por el candado de fila; al vencer Postgres devuelve 55P03 y se reintenta.
	lockTimeout = "5s"
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los abortos transitorios (serialización, deadlock, lock timeout) se reintentan con la
// transacción completa; agotados los reintentos devuelve domain.ErrBusy.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        *logger.Logger
}

// NewTxRunner construye el runner con el pool. maxRetries <= 0 usa 3.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, log *logger.Logger) *TxRunner {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &TxRunner{pool: pool, maxRetries: maxRetries, log: log.Component("postgres")}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("transacción abortada por concurrencia")
		if attempt == r.maxRetries {
			break
		}
		select {
		case <-time.After(retryBaseDelay * time.Duration(1<<(attempt-1))):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrBusy, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	if err := fn(NewItemRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
