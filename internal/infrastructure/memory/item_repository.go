package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// ItemRepository implementa repository.ItemRepository. Con tx != nil lee y escribe sobre la
// transacción en curso.
type ItemRepository struct {
	s  *Store
	tx *txState
}

var _ repository.ItemRepository = (*ItemRepository)(nil)

// lookup devuelve el ítem visible para este repositorio (transacción primero).
func (r *ItemRepository) lookup(tx *txState, id string) (entity.Item, bool) {
	if tx != nil {
		if it, ok := tx.items[id]; ok {
			if it == nil {
				return entity.Item{}, false
			}
			return *it, true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	return it, ok
}

// view todos los ítems visibles, en orden estable por nombre y id.
func (r *ItemRepository) view(tx *txState) []entity.Item {
	r.s.mu.RLock()
	out := make([]entity.Item, 0, len(r.s.items))
	for id, it := range r.s.items {
		if tx != nil {
			if staged, ok := tx.items[id]; ok {
				if staged != nil {
					out = append(out, *staged)
				}
				continue
			}
		}
		out = append(out, it)
	}
	if tx != nil {
		for id, staged := range tx.items {
			if _, exists := r.s.items[id]; !exists && staged != nil {
				out = append(out, *staged)
			}
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *ItemRepository) write(ctx context.Context, fn func(tx *txState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(ctx, fn)
}

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	return r.write(ctx, func(tx *txState) error {
		for _, it := range r.view(tx) {
			if it.ID == item.ID || strings.EqualFold(it.SKU, item.SKU) {
				return domain.ErrDuplicate
			}
			if item.Barcode != "" && it.Barcode == item.Barcode {
				return domain.ErrDuplicate
			}
		}
		if item.Version == 0 {
			item.Version = 1
		}
		tx.items[item.ID] = cloneItem(*item)
		return nil
	})
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	it, ok := r.lookup(r.tx, id)
	if !ok {
		return nil, nil
	}
	return cloneItem(it), nil
}

func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*entity.Item, error) {
	for _, it := range r.view(r.tx) {
		if strings.EqualFold(it.SKU, sku) {
			return cloneItem(it), nil
		}
	}
	return nil, nil
}

func (r *ItemRepository) GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error) {
	if barcode == "" {
		return nil, nil
	}
	for _, it := range r.view(r.tx) {
		if it.Barcode == barcode {
			return cloneItem(it), nil
		}
	}
	return nil, nil
}

// GetForUpdate dentro de Run el candado ya lo tiene la transacción.
func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *ItemRepository) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, int, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]entity.Item, 0)
	for _, it := range r.view(r.tx) {
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.SupplierID != "" && (it.SupplierID == nil || *it.SupplierID != filter.SupplierID) {
			continue
		}
		if filter.LowStock && !it.IsLowStock() {
			continue
		}
		if search != "" && !matchesSearch(it, search) {
			continue
		}
		matched = append(matched, it)
	}
	total := len(matched)
	return paginate(matched, limit, offset, cloneItem), total, nil
}

func matchesSearch(it entity.Item, q string) bool {
	for _, f := range []string{it.SKU, it.Name, it.Barcode, it.BatchNumber} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (r *ItemRepository) ListIDs(ctx context.Context) ([]string, error) {
	all := r.view(r.tx)
	ids := make([]string, 0, len(all))
	for _, it := range all {
		ids = append(ids, it.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ItemRepository) UpdateAttributes(ctx context.Context, item *entity.Item) error {
	return r.write(ctx, func(tx *txState) error {
		cur, ok := r.lookup(tx, item.ID)
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Version != item.Version {
			return domain.ErrConflict
		}
		for _, it := range r.view(tx) {
			if it.ID == item.ID {
				continue
			}
			if strings.EqualFold(it.SKU, item.SKU) || (item.Barcode != "" && it.Barcode == item.Barcode) {
				return domain.ErrDuplicate
			}
		}
		next := *cloneItem(*item)
		// el stock y el costo promedio los escribe solo el libro
		next.CurrentStock = cur.CurrentStock
		next.UnitCost = cur.UnitCost
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		tx.items[item.ID] = &next
		item.Version = next.Version
		return nil
	})
}

func (r *ItemRepository) UpdateStock(ctx context.Context, id string, stock int64, unitCost decimal.Decimal) error {
	if stock < 0 {
		return domain.ErrInsufficientStock
	}
	return r.write(ctx, func(tx *txState) error {
		cur, ok := r.lookup(tx, id)
		if !ok {
			return domain.ErrNotFound
		}
		cur.CurrentStock = stock
		cur.UnitCost = unitCost
		cur.UpdatedAt = time.Now().UTC()
		tx.items[id] = cloneItem(cur)
		return nil
	})
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *txState) error {
		if _, ok := r.lookup(tx, id); !ok {
			return domain.ErrNotFound
		}
		mr := &StockMovementRepository{s: r.s, tx: tx}
		if n, _ := mr.CountByItem(ctx, id); n > 0 {
			return domain.ErrItemHasMovements
		}
		tx.items[id] = nil
		return nil
	})
}

func paginate[T any, P any](list []T, limit, offset int, conv func(T) P) []P {
	if offset > len(list) {
		offset = len(list)
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]P, 0, end-offset)
	for _, v := range list[offset:end] {
		out = append(out, conv(v))
	}
	return out
}
