// Package storage elige el adaptador de persistencia según STORAGE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

// Storage puertos del libro ya conectados. Close libera el pool o el archivo.
type Storage struct {
	Tx        inventory.TxRunner
	Items     repository.ItemRepository
	Movements repository.StockMovementRepository
	Suppliers repository.SupplierRepository
	Analytics repository.AnalyticsRepository
	Close     func()
}

// Open conecta el driver configurado y, con DB_AUTO_MIGRATE, deja el esquema al día.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	switch cfg.DB.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &Storage{
			Tx:        store.TxRunner(),
			Items:     store.Items(),
			Movements: store.Movements(),
			Suppliers: store.Suppliers(),
			Analytics: store.Analytics(),
			Close:     func() {},
		}, nil

	case config.StorageDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := sqlite.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
			log.Info().Str("path", cfg.DB.SQLitePath).Msg("esquema del libro al día")
		}
		return &Storage{
			Tx:        sqlite.NewTxRunner(db, cfg.Ledger.MaxTxRetries, log),
			Items:     sqlite.NewItemRepository(db),
			Movements: sqlite.NewStockMovementRepository(db),
			Suppliers: sqlite.NewSupplierRepository(db),
			Analytics: sqlite.NewAnalyticsRepository(db),
			Close:     func() { _ = db.Close() },
		}, nil

	case config.StorageDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			log.Info().Msg("esquema del libro al día")
		}
		return &Storage{
			Tx:        postgres.NewTxRunner(pool, cfg.Ledger.MaxTxRetries, log),
			Items:     postgres.NewItemRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			Suppliers: postgres.NewSupplierRepository(pool),
			Analytics: postgres.NewAnalyticsRepository(pool),
			Close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("storage: driver desconocido %q", cfg.DB.Driver)
}
