package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/access"
	"github.com/jhoicas/medstock-ledger/internal/application/dto"
	"github.com/jhoicas/medstock-ledger/internal/application/usecase"
	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/medstock-ledger/pkg/logger"
)

var (
	manager = access.Actor{UserID: "mgr-1", Role: access.RoleInventoryManager}
	nurse   = access.Actor{UserID: "nurse-1", Role: access.RoleNurse}
)

func newItemUseCase(store *memory.Store) *usecase.ItemUseCase {
	return usecase.NewItemUseCase(store.TxRunner(), store.Items(), store.Movements(), store.Suppliers(),
		access.DefaultPolicy(), logger.Nop())
}

func createReq(sku string, stock int64) dto.CreateItemRequest {
	return dto.CreateItemRequest{
		SKU:          sku,
		Name:         "Paracetamol 500mg",
		Category:     "medication",
		InitialStock: stock,
		MinimumStock: 20,
		UnitCost:     decimal.NewFromInt(100),
		UnitPrice:    decimal.NewFromInt(150),
	}
}

// ─── Create ──────────────────────────────────────────────────────────────────

func TestItemCreate_StockInicialQuedaEnElLibro(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUseCase(store)

	item, err := uc.Create(context.Background(), manager, createReq("PAR500", 100))
	require.NoError(t, err)
	assert.Equal(t, int64(100), item.CurrentStock)
	assert.Equal(t, "active", item.Status)
	assert.Equal(t, "unidad", item.UnitMeasure)

	movs, err := store.Movements().ListByItem(context.Background(), item.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "ADJUSTMENT", string(movs[0].Type))
	assert.Equal(t, int64(0), movs[0].PreviousStock)
	assert.Equal(t, int64(100), movs[0].NewStock)
	assert.Equal(t, usecase.InitialStockReason, movs[0].Reason)
	assert.Equal(t, "mgr-1", movs[0].PerformedBy)
}

func TestItemCreate_SinStockNoCreaMovimiento(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUseCase(store)

	item, err := uc.Create(context.Background(), manager, createReq("GASA", 0))
	require.NoError(t, err)
	n, err := store.Movements().CountByItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, item.IsOutOfStock)
	assert.True(t, item.IsLowStock)
}

func TestItemCreate_SKUDuplicado(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	_, err := uc.Create(context.Background(), manager, createReq("DUP", 1))
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), manager, createReq("DUP", 1))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, domain.IsConflict(err))
}

func TestItemCreate_Validaciones(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())

	bad := createReq("X", 0)
	bad.Category = "juguetes"
	_, err := uc.Create(context.Background(), manager, bad)
	assert.True(t, domain.IsValidation(err))

	bad = createReq("Y", 0)
	bad.MaximumStock = 5 // menor que el mínimo 20
	_, err = uc.Create(context.Background(), manager, bad)
	assert.True(t, domain.IsValidation(err))

	bad = createReq("Z", -1)
	_, err = uc.Create(context.Background(), manager, bad)
	assert.True(t, domain.IsValidation(err))

	missing := "00000000-0000-0000-0000-000000000000"
	bad = createReq("W", 0)
	bad.SupplierID = &missing
	_, err = uc.Create(context.Background(), manager, bad)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemCreate_EnfermeraNoAdministraCatalogo(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	_, err := uc.Create(context.Background(), nurse, createReq("NO", 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ─── Update ──────────────────────────────────────────────────────────────────

func TestItemUpdate_RechazaStock(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	item, err := uc.Create(context.Background(), manager, createReq("IMM", 10))
	require.NoError(t, err)

	stock := int64(500)
	_, err = uc.Update(context.Background(), manager, item.ID, dto.UpdateItemRequest{CurrentStock: &stock})
	assert.ErrorIs(t, err, domain.ErrStockFieldImmutable)
	assert.True(t, domain.IsValidation(err))

	got, err := uc.GetByID(context.Background(), manager, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.CurrentStock)
}

func TestItemUpdate_ParcheDeAtributos(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	item, err := uc.Create(context.Background(), manager, createReq("PATCH", 10))
	require.NoError(t, err)

	name := "Paracetamol 500mg x 10"
	minimum := int64(5)
	status := "discontinued"
	expiry := time.Now().Add(48 * time.Hour).UTC()
	got, err := uc.Update(context.Background(), manager, item.ID, dto.UpdateItemRequest{
		Name: &name, MinimumStock: &minimum, Status: &status, ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, int64(5), got.MinimumStock)
	assert.Equal(t, "discontinued", got.Status)
	assert.True(t, got.IsExpiringSoon)
	assert.Equal(t, int64(10), got.CurrentStock)
	assert.Equal(t, item.Version+1, got.Version)

	bad := "perdido"
	_, err = uc.Update(context.Background(), manager, item.ID, dto.UpdateItemRequest{Status: &bad})
	assert.True(t, domain.IsValidation(err))

	_, err = uc.Update(context.Background(), manager, "no-existe", dto.UpdateItemRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Lecturas ────────────────────────────────────────────────────────────────

func TestItemGet_PorSKUYCodigoDeBarras(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	req := createReq("BAR", 3)
	req.Barcode = "7701234567890"
	item, err := uc.Create(context.Background(), manager, req)
	require.NoError(t, err)

	bySKU, err := uc.GetBySKU(context.Background(), nurse, "BAR")
	require.NoError(t, err)
	assert.Equal(t, item.ID, bySKU.ID)

	byCode, err := uc.GetByBarcode(context.Background(), nurse, "7701234567890")
	require.NoError(t, err)
	assert.Equal(t, item.ID, byCode.ID)

	_, err = uc.GetByBarcode(context.Background(), nurse, "000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemList_FiltrosYPaginacion(t *testing.T) {
	uc := newItemUseCase(memory.NewStore())
	for _, sku := range []string{"A1", "A2", "A3"} {
		_, err := uc.Create(context.Background(), manager, createReq(sku, 100))
		require.NoError(t, err)
	}
	low := createReq("LOW", 1)
	low.Category = "supplies"
	_, err := uc.Create(context.Background(), manager, low)
	require.NoError(t, err)

	page, err := uc.List(context.Background(), nurse, dto.ItemListRequest{PageRequest: dto.PageRequest{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 4, page.Page.Total)

	lows, err := uc.List(context.Background(), nurse, dto.ItemListRequest{LowStock: true})
	require.NoError(t, err)
	require.Len(t, lows.Items, 1)
	assert.Equal(t, "LOW", lows.Items[0].SKU)

	sup, err := uc.List(context.Background(), nurse, dto.ItemListRequest{Category: "supplies"})
	require.NoError(t, err)
	assert.Equal(t, 1, sup.Page.Total)

	_, err = uc.List(context.Background(), nurse, dto.ItemListRequest{Category: "otra"})
	assert.True(t, domain.IsValidation(err))
}

// ─── Delete ──────────────────────────────────────────────────────────────────

func TestItemDelete_ConHistorialSeRestringe(t *testing.T) {
	store := memory.NewStore()
	uc := newItemUseCase(store)
	withHistory, err := uc.Create(context.Background(), manager, createReq("HIST", 5))
	require.NoError(t, err)
	empty, err := uc.Create(context.Background(), manager, createReq("EMPTY", 0))
	require.NoError(t, err)

	err = uc.Delete(context.Background(), manager, withHistory.ID)
	assert.ErrorIs(t, err, domain.ErrItemHasMovements)
	assert.True(t, domain.IsConflict(err))
	n, _ := store.Movements().CountByItem(context.Background(), withHistory.ID)
	assert.Equal(t, int64(1), n)

	require.NoError(t, uc.Delete(context.Background(), manager, empty.ID))
	_, err = uc.GetByID(context.Background(), manager, empty.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, uc.Delete(context.Background(), manager, empty.ID), domain.ErrNotFound)
}
