package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
)

// ItemHandler maneja las peticiones HTTP del catálogo de ítems (protegido).
type ItemHandler struct {
	uc *usecase.ItemUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ítem
// @Description  El stock inicial se registra como primer movimiento (ADJUSTMENT) del libro.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateItemRequest  true  "sku, name, category, initial_stock, minimum_stock, unit_cost..."
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.CreateItemRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ítems
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        category     query     string  false  "medication | supplies | equipment | consumables | laboratory | surgical | other"
// @Param        status       query     string  false  "active | inactive | discontinued"
// @Param        supplier_id  query     string  false  "Proveedor"
// @Param        low_stock    query     bool    false  "Solo ítems en o bajo el mínimo"
// @Param        q            query     string  false  "Búsqueda por SKU, nombre, código de barras o lote"
// @Param        limit        query     int     false  "Límite (default 20)"
// @Param        offset       query     int     false  "Offset"
// @Success      200          {object}  dto.ItemListResponse
// @Failure      403          {object}  dto.ErrorResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.ItemListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.List(c.Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBySKU godoc
// @Summary      Obtener ítem por SKU
// @Description  Búsqueda sin distinguir mayúsculas.
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        sku  path      string  true  "SKU"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/sku/{sku} [get]
func (h *ItemHandler) GetBySKU(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetBySKU(c.Context(), actor, c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByBarcode godoc
// @Summary      Obtener ítem por código de barras
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        code  path      string  true  "Código de barras"
// @Success      200   {object}  dto.ItemResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/barcode/{code} [get]
func (h *ItemHandler) GetByBarcode(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByBarcode(c.Context(), actor, c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar atributos del ítem
// @Description  current_stock no se acepta: el stock solo cambia mediante movimientos.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "ID del ítem"
// @Param        body  body      dto.UpdateItemRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [patch]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var in dto.UpdateItemRequest
	if ok, err := bindStrictAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.uc.Update(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar ítem
// @Description  Solo ítems sin movimientos en el libro.
// @Tags         items
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	actor := ActorFrom(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
