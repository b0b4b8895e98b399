package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

func openAndCreate(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer st.Close()

	items := usecase.NewItemUseCase(st.Tx, st.Items, st.Movements, st.Suppliers, access.DefaultPolicy(), logger.Nop())
	res, err := items.Create(ctx, access.System, dto.CreateItemRequest{
		SKU: "SSN-09", Name: "Solución salina", Category: "supplies", InitialStock: 12,
	})
	require.NoError(t, err)

	n, err := st.Movements.CountByItem(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "el stock inicial queda como movimiento #0")
}

func TestOpen_Memoria(t *testing.T) {
	openAndCreate(t, &config.Config{DB: config.DBConfig{Driver: config.StorageDriverMemory}})
}

func TestOpen_SQLiteConMigracion(t *testing.T) {
	openAndCreate(t, &config.Config{
		DB: config.DBConfig{
			Driver:      config.StorageDriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "ledger.db"),
			AutoMigrate: true,
		},
		Ledger: config.LedgerConfig{MaxTxRetries: 3},
	})
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := storage.Open(context.Background(), &config.Config{DB: config.DBConfig{Driver: "mongo"}}, logger.Nop())
	assert.Error(t, err)
}
