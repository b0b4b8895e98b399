package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

const (
	defaultMaxRetries = 3
	retryBaseDelay    = 25 * time.Millisecond
)

// TxRunner ejecuta callbacks en una transacción IMMEDIATE (ver Open): el candado de escritura se toma
// al iniciar, así dos movimientos sobre la base nunca se intercalan. SQLITE_BUSY se reintenta y,
// agotados los intentos, se devuelve domain.ErrBusy.
type TxRunner struct {
	db         *sql.DB
	maxRetries int
	log        *logger.Logger
}

func NewTxRunner(db *sql.DB, maxRetries int, log *logger.Logger) *TxRunner {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &TxRunner{db: db, maxRetries: maxRetries, log: log.Component("sqlite")}
}

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
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("base ocupada, reintentando transacción")
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewItemRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
