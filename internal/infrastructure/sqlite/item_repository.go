package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, sku, barcode, name, description, category, current_stock, minimum_stock, maximum_stock,
	unit_cost, unit_price, unit_measure, supplier_id, expiry_date, batch_number, location, status, version,
	created_at, updated_at`

// ItemRepo catálogo sobre SQLite (usable con *sql.DB o *sql.Tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*entity.Item, error) {
	var (
		it                   entity.Item
		barcode              sql.NullString
		category, status     string
		expiry               sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&it.ID, &it.SKU, &barcode, &it.Name, &it.Description, &category, &it.CurrentStock, &it.MinimumStock,
		&it.MaximumStock, &it.UnitCost, &it.UnitPrice, &it.UnitMeasure, &it.SupplierID, &expiry,
		&it.BatchNumber, &it.Location, &status, &it.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Barcode = barcode.String
	it.Category = entity.ItemCategory(category)
	it.Status = entity.ItemStatus(status)
	if it.ExpiryDate, err = parseNullTime(expiry); err != nil {
		return nil, err
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]*entity.Item, error) {
	defer rows.Close()
	out := make([]*entity.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.Version == 0 {
		item.Version = 1
	}
	query := `INSERT INTO items (` + itemColumns + `) VALUES (` + placeholders(20) + `)`
	_, err := r.q.ExecContext(ctx, query,
		item.ID, item.SKU, nullIfEmpty(item.Barcode), item.Name, item.Description, string(item.Category),
		item.CurrentStock, item.MinimumStock, item.MaximumStock, item.UnitCost, item.UnitPrice, item.UnitMeasure,
		item.SupplierID, nullTime(item.ExpiryDate), item.BatchNumber, item.Location, string(item.Status),
		item.Version, formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
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

func (r *ItemRepo) getOne(ctx context.Context, where string, arg any) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	return r.getOne(ctx, "lower(sku) = lower(?)", sku)
}

func (r *ItemRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error) {
	if barcode == "" {
		return nil, nil
	}
	return r.getOne(ctx, "barcode = ?", barcode)
}

// GetForUpdate en SQLite la transacción IMMEDIATE ya tiene el candado de escritura de la base.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *ItemRepo) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.SupplierID != "" {
		conds = append(conds, "supplier_id = ?")
		args = append(args, filter.SupplierID)
	}
	if filter.LowStock {
		conds = append(conds, "current_stock <= minimum_stock")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		// LIKE de SQLite no distingue mayúsculas en ASCII
		like := "%" + s + "%"
		conds = append(conds, "(sku LIKE ? OR name LIKE ? OR barcode LIKE ? OR batch_number LIKE ?)")
		args = append(args, like, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where + ` ORDER BY name, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	out, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ItemRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateAttributes no toca current_stock ni unit_cost.
func (r *ItemRepo) UpdateAttributes(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET
			sku = ?, barcode = ?, name = ?, description = ?, category = ?, minimum_stock = ?,
			maximum_stock = ?, unit_price = ?, unit_measure = ?, supplier_id = ?, expiry_date = ?,
			batch_number = ?, location = ?, status = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`
	res, err := r.q.ExecContext(ctx, query,
		item.SKU, nullIfEmpty(item.Barcode), item.Name, item.Description, string(item.Category),
		item.MinimumStock, item.MaximumStock, item.UnitPrice, item.UnitMeasure, item.SupplierID,
		nullTime(item.ExpiryDate), item.BatchNumber, item.Location, string(item.Status),
		formatTime(item.UpdatedAt), item.ID, item.Version,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isFKViolation(err):
			return domain.Invalid("supplier_id", "proveedor inexistente")
		}
		return fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, item.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check item: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	item.Version++
	return nil
}

func (r *ItemRepo) UpdateStock(ctx context.Context, id string, stock int64, unitCost decimal.Decimal) error {
	if stock < 0 {
		return domain.ErrInsufficientStock
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE items SET current_stock = ?, unit_cost = ?, updated_at = ? WHERE id = ?`,
		stock, unitCost, formatTime(time.Now()), id)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		if isFKViolation(err) {
			return domain.ErrItemHasMovements
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
