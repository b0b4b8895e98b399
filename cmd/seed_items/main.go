// seed_items importa el catálogo inicial de ítems desde un CSV (UTF-8 o ISO-8859-1).
// El stock inicial de cada fila queda registrado como movimiento #0 del libro.
//
// Uso: go run ./cmd/seed_items [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. Usa la misma configuración que la API
// (STORAGE_DRIVER, DATABASE_URL, SQLITE_PATH, ...); con STORAGE_DRIVER=memory no tiene sentido.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	rows, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.DB.Driver == config.StorageDriverMemory {
		fmt.Fprintln(os.Stderr, "STORAGE_DRIVER=memory: el catálogo se perdería al terminar")
		os.Exit(1)
	}
	cfg.DB.AutoMigrate = true
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed_items"})

	ctx := context.Background()
	st, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("apertura del almacenamiento")
	}
	defer st.Close()

	itemUC := usecase.NewItemUseCase(st.Tx, st.Items, st.Movements, st.Suppliers, access.DefaultPolicy(), log)

	var created, skipped, failed int
	for _, req := range rows {
		_, err := itemUC.Create(ctx, access.System, req)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
			log.Debug().Str("sku", req.SKU).Msg("SKU ya existe, se omite")
		default:
			failed++
			log.Error().Err(err).Str("sku", req.SKU).Msg("no se pudo importar")
		}
	}

	fmt.Printf("Importados %d ítems (%d existentes, %d con error) desde %s\n", created, skipped, failed, csvPath)
	if failed > 0 {
		os.Exit(1)
	}
}
