package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, sku, barcode, name, description, category, current_stock, minimum_stock, maximum_stock,
	unit_cost, unit_price, unit_measure, supplier_id, expiry_date, batch_number, location, status, version,
	created_at, updated_at`

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador del catálogo. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var (
		it       entity.Item
		barcode  *string
		category string
		status   string
	)
	err := row.Scan(
		&it.ID, &it.SKU, &barcode, &it.Name, &it.Description, &category, &it.CurrentStock, &it.MinimumStock,
		&it.MaximumStock, &it.UnitCost, &it.UnitPrice, &it.UnitMeasure, &it.SupplierID, &it.ExpiryDate,
		&it.BatchNumber, &it.Location, &status, &it.Version, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Barcode = derefString(barcode)
	it.Category = entity.ItemCategory(category)
	it.Status = entity.ItemStatus(status)
	return &it, nil
}

// Create inserta el ítem. SKU (sin distinguir mayúsculas) y barcode tienen índice único.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.Version == 0 {
		item.Version = 1
	}
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.SKU, nullIfEmpty(item.Barcode), item.Name, item.Description, string(item.Category),
		item.CurrentStock, item.MinimumStock, item.MaximumStock, item.UnitCost, item.UnitPrice, item.UnitMeasure,
		item.SupplierID, item.ExpiryDate, item.BatchNumber, item.Location, string(item.Status), item.Version,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isFKViolation(err):
			return domain.Invalid("supplier_id", "proveedor inexistente")
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *ItemRepo) getOne(ctx context.Context, where string, arg any, suffix string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + where + suffix
	it, err := scanItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// GetByID obtiene un ítem por ID; nil si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, "id = $1", id, "")
}

// GetBySKU búsqueda sin distinguir mayúsculas.
func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	return r.getOne(ctx, "lower(sku) = lower($1)", sku, "")
}

func (r *ItemRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error) {
	if barcode == "" {
		return nil, nil
	}
	return r.getOne(ctx, "barcode = $1", barcode, "")
}

// GetForUpdate obtiene el ítem y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, "id = $1", id, " FOR UPDATE")
}

// List filtra y pagina; orden por nombre e id.
func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if filter.Category != "" {
		add("category = ?", string(filter.Category))
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}
	if filter.SupplierID != "" {
		add("supplier_id = ?", filter.SupplierID)
	}
	if filter.LowStock {
		conds = append(conds, "current_stock <= minimum_stock")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("(sku ILIKE ? OR name ILIKE ? OR barcode ILIKE ? OR batch_number ILIKE ?)", "%"+s+"%")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where + ` ORDER BY name, id`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// ListIDs ids de todo el catálogo (conciliación masiva).
func (r *ItemRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan item ids: %w", err)
	}
	return ids, nil
}

// UpdateAttributes escribe solo atributos no-stock, condicionado a la versión leída.
// current_stock y unit_cost no aparecen en el SET: los mantiene el libro.
func (r *ItemRepo) UpdateAttributes(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET
			sku = $3, barcode = $4, name = $5, description = $6, category = $7, minimum_stock = $8,
			maximum_stock = $9, unit_price = $10, unit_measure = $11, supplier_id = $12, expiry_date = $13,
			batch_number = $14, location = $15, status = $16, updated_at = $17, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query,
		item.ID, item.Version, item.SKU, nullIfEmpty(item.Barcode), item.Name, item.Description,
		string(item.Category), item.MinimumStock, item.MaximumStock, item.UnitPrice, item.UnitMeasure,
		item.SupplierID, item.ExpiryDate, item.BatchNumber, item.Location, string(item.Status), item.UpdatedAt,
	).Scan(&version)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			var exists bool
			if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, item.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check item: %w", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isFKViolation(err):
			return domain.Invalid("supplier_id", "proveedor inexistente")
		}
		return fmt.Errorf("update item: %w", err)
	}
	item.Version = version
	return nil
}

// UpdateStock escribe el saldo cacheado y el costo promedio. Solo lo invocan el libro y la conciliación.
func (r *ItemRepo) UpdateStock(ctx context.Context, id string, stock int64, unitCost decimal.Decimal) error {
	if stock < 0 {
		return domain.ErrInsufficientStock
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE items SET current_stock = $2, unit_cost = $3, updated_at = now() WHERE id = $1`,
		id, stock, unitCost)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el ítem. La FK RESTRICT de stock_movements impide borrar ítems con historial.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		if isFKViolation(err) {
			return domain.ErrItemHasMovements
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
