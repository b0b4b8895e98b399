package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
)

// HeaderIdempotencyKey identifica reintentos de POST /api/inventory/movements.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja el libro de movimientos y el motor de saldos (protegido).
type InventoryHandler struct {
	record  *inventory.RecordMovementUseCase
	balance *inventory.BalanceUseCase
	history *inventory.HistoryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(record *inventory.RecordMovementUseCase, balance *inventory.BalanceUseCase, history *inventory.HistoryUseCase) *InventoryHandler {
	return &InventoryHandler{record: record, balance: balance, history: history}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Bloquea la fila del ítem, valida el saldo resultante y confirma movimiento y saldo juntos.
// @Description  Un reintento con el mismo Idempotency-Key devuelve el movimiento original (200, replayed=true).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                     false  "Clave de idempotencia"
// @Param        body             body      dto.RecordMovementRequest  true   "item_id, type, quantity, unit_cost (solo IN)"
// @Success      201              {object}  dto.RecordMovementResponse
// @Success      200              {object}  dto.RecordMovementResponse
// @Failure      400              {object}  dto.ErrorResponse
// @Failure      403              {object}  dto.ErrorResponse
// @Failure      404              {object}  dto.ErrorResponse
// @Failure      409              {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.RecordMovementRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.record.RecordMovementFromRequest(c.Context(), actor, in, c.Get(HeaderIdempotencyKey))
	if err != nil {
		return writeError(c, err)
	}
	if out.Replayed {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Description  Más recientes primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id       query     string  false  "Ítem"
// @Param        type          query     string  false  "IN | OUT | ADJUSTMENT | TRANSFER | EXPIRED | DAMAGED | RETURN"
// @Param        performed_by  query     string  false  "Usuario"
// @Param        from          query     string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to            query     string  false  "Hasta (YYYY-MM-DD o RFC3339)"
// @Param        limit         query     int     false  "Límite (default 20)"
// @Param        offset        query     int     false  "Offset"
// @Success      200           {object}  dto.MovementListResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.MovementListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.history.ListMovements(c.Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ItemHistory godoc
// @Summary      Historial del ítem
// @Description  Movimientos en orden de registro, opcionalmente acotados por fecha de transacción.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del ítem"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta"
// @Success      200   {array}   dto.MovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/history [get]
func (h *InventoryHandler) ItemHistory(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	list, err := h.history.ItemHistory(c.Context(), actor, c.Params("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"movements": list,
	})
}

// Balance godoc
// @Summary      Saldo del ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id    path      string  true   "ID del ítem"
// @Param        mode  query     string  false  "cached (default) | derived"
// @Success      200   {object}  dto.BalanceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/balance [get]
func (h *InventoryHandler) Balance(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	mode := c.Query("mode", inventory.BalanceModeCached)
	stock, err := h.balance.CurrentStock(c.Context(), actor, c.Params("id"), mode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ItemID: c.Params("id"), Mode: mode, Stock: stock})
}

// Reconcile godoc
// @Summary      Conciliar saldo del ítem
// @Description  Compara el saldo cacheado con el derivado del libro y corrige el cacheado si difiere.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/reconcile [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	rep, err := h.balance.Reconcile(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromReconciliation(rep))
}

// ReconcileAll godoc
// @Summary      Conciliar todo el catálogo
// @Description  Devuelve solo los ítems que tenían discrepancia.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReconciliationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [post]
func (h *InventoryHandler) ReconcileAll(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	reports, err := h.balance.ReconcileAll(c.Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReconciliationResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, dto.FromReconciliation(r))
	}
	return c.JSON(fiber.Map{
		"total":         len(out),
		"discrepancies": out,
	})
}

// VerifyChain godoc
// @Summary      Verificar encadenamiento del libro
// @Description  Reporta los movimientos cuyo previous_stock no coincide con el new_stock anterior.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  dto.ChainResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/chain [get]
func (h *InventoryHandler) VerifyChain(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	rep, err := h.balance.VerifyChain(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromChain(rep))
}
