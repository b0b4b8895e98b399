package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	appanalytics "github.com/jhoicas/medstock-ledger/internal/application/analytics"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	infrakafka "github.com/jhoicas/medstock-ledger/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/medstock-ledger/internal/infrastructure/pdf"
	infraredis "github.com/jhoicas/medstock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/medstock-ledger/internal/interfaces/http"
	"github.com/jhoicas/medstock-ledger/pkg/config"
	"github.com/jhoicas/medstock-ledger/pkg/jwt"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("arranque de la aplicación")
	}
	log.Info().Msg("aplicación detenida")
}

// run arma las dependencias y sirve hasta recibir SIGINT/SIGTERM. Los errores se devuelven
// para que los defer de cierre corran antes de terminar el proceso.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	st, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("apertura del almacenamiento (%s): %w", cfg.DB.Driver, err)
	}
	defer st.Close()

	var ledgerOpts []inventory.Option

	// Caché de idempotencia (opcional): sin REDIS_URL los reintentos se resuelven solo contra la BD.
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("conexión a Redis: %w", err)
		}
		defer rdb.Close()
		ledgerOpts = append(ledgerOpts, inventory.WithIdempotencyCache(
			infraredis.NewIdempotencyCache(rdb, cfg.Redis.IdempotencyTTL),
		))
		log.Info().Dur("ttl", cfg.Redis.IdempotencyTTL).Msg("caché de idempotencia en Redis")
	}

	// Eventos de stock (opcional)
	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewPublisher(
			infrakafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout),
			cfg.Kafka.PublishTimeout,
		)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("cierre del publicador Kafka")
			}
		}()
		ledgerOpts = append(ledgerOpts, inventory.WithPublisher(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de eventos en Kafka")
	}

	tokens, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.Expiration)*time.Minute)
	if err != nil {
		return fmt.Errorf("firmador JWT: %w", err)
	}

	policy := access.DefaultPolicy()

	itemUC := usecase.NewItemUseCase(st.Tx, st.Items, st.Movements, st.Suppliers, policy, log)
	supplierUC := usecase.NewSupplierUseCase(st.Suppliers, st.Items, policy)
	recordMovementUC := inventory.NewRecordMovementUseCase(st.Tx, st.Movements, policy, log, ledgerOpts...)
	balanceUC := inventory.NewBalanceUseCase(st.Tx, st.Items, st.Movements, policy, log, ledgerOpts...)
	historyUC := inventory.NewHistoryUseCase(st.Items, st.Movements, policy)

	stockUC := appanalytics.NewStockAnalyticsUseCase(st.Analytics, st.Items, st.Movements, policy, cfg.Ledger.ExpiryWarningDays)
	reorderUC := appanalytics.NewReorderUseCase(st.Analytics, st.Movements, policy)
	reportUC := appanalytics.NewReportUseCase(stockUC, infrapdf.NewMarotoPDFGenerator(), cfg.App.Name)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si existe docs/swagger.json)
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "MedStock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.DB.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:         itemUC,
		SupplierUC:     supplierUC,
		RecordMovement: recordMovementUC,
		Balance:        balanceUC,
		History:        historyUC,
		StockAnalytics: stockUC,
		Reorder:        reorderUC,
		Report:         reportUC,
		Policy:         policy,
		Tokens:         tokens,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	return nil
}
