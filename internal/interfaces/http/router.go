package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/analytics"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC         *usecase.ItemUseCase
	SupplierUC     *usecase.SupplierUseCase
	RecordMovement *inventory.RecordMovementUseCase
	Balance        *inventory.BalanceUseCase
	History        *inventory.HistoryUseCase
	StockAnalytics *analytics.StockAnalyticsUseCase
	Reorder        *analytics.ReorderUseCase
	Report         *analytics.ReportUseCase
	Policy         access.Policy // nil usa access.DefaultPolicy()
	Tokens         TokenVerifier
}

// Router registra las rutas de la API. Todas requieren Bearer Token; los permisos
// por rol los decide la política de acceso de cada caso de uso.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.Tokens))
	policy := deps.Policy
	if policy == nil {
		policy = access.DefaultPolicy()
	}
	canRead := RequireCapability(policy, access.CapReadInventory)

	itemHandler := NewItemHandler(deps.ItemUC)
	inventoryHandler := NewInventoryHandler(deps.RecordMovement, deps.Balance, deps.History)
	analyticsHandler := NewAnalyticsHandler(deps.StockAnalytics, deps.Reorder, deps.Report)
	supplierHandler := NewSupplierHandler(deps.SupplierUC)

	// Items
	items := protected.Group("/items")
	items.Post("/", itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/sku/:sku", itemHandler.GetBySKU)
	items.Get("/barcode/:code", itemHandler.GetByBarcode)
	items.Get("/:id", itemHandler.GetByID)
	items.Patch("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)

	// Libro y saldos por ítem
	items.Get("/:id/history", inventoryHandler.ItemHistory)
	items.Get("/:id/balance", inventoryHandler.Balance)
	items.Post("/:id/reconcile", inventoryHandler.Reconcile)
	items.Get("/:id/chain", inventoryHandler.VerifyChain)
	items.Get("/:id/turnover", analyticsHandler.Turnover)

	// Inventory movements
	invGroup := protected.Group("/inventory")
	invGroup.Post("/movements", inventoryHandler.RecordMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Post("/reconcile", RequireCapability(policy, access.CapReconcile), inventoryHandler.ReconcileAll)

	// Analytics
	analyticsGroup := protected.Group("/analytics", canRead)
	analyticsGroup.Get("/low-stock", analyticsHandler.LowStock)
	analyticsGroup.Get("/expiring", analyticsHandler.Expiring)
	analyticsGroup.Get("/expired", analyticsHandler.Expired)
	analyticsGroup.Get("/summary", analyticsHandler.Summary)
	analyticsGroup.Get("/usage", analyticsHandler.Usage)
	analyticsGroup.Get("/cost", analyticsHandler.Cost)
	analyticsGroup.Get("/reorder", analyticsHandler.Reorder)
	analyticsGroup.Get("/report.pdf", analyticsHandler.StockReport)

	// Suppliers
	suppliers := protected.Group("/suppliers")
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Patch("/:id", supplierHandler.Update)
	suppliers.Get("/:id/items", supplierHandler.ListItems)
}
