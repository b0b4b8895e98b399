package memory

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/inventory"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// StockMovementRepository implementa repository.StockMovementRepository. Solo inserta y lee.
type StockMovementRepository struct {
	s  *Store
	tx *txState
}

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// all movimientos visibles en orden de commit (los de la transacción al final).
func (r *StockMovementRepository) all() []entity.StockMovement {
	r.s.mu.RLock()
	out := make([]entity.StockMovement, 0, len(r.s.movements))
	out = append(out, r.s.movements...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		out = append(out, r.tx.movements...)
	}
	return out
}

func (r *StockMovementRepository) Create(ctx context.Context, m *entity.StockMovement) error {
	if r.tx == nil {
		return r.s.autocommit(ctx, func(tx *txState) error {
			return (&StockMovementRepository{s: r.s, tx: tx}).Create(ctx, m)
		})
	}
	for _, existing := range r.all() {
		if existing.ID == m.ID {
			return domain.ErrDuplicate
		}
		if m.IdempotencyKey != "" && existing.IdempotencyKey == m.IdempotencyKey {
			return domain.ErrDuplicate
		}
	}
	r.tx.movements = append(r.tx.movements, *m)
	return nil
}

func (r *StockMovementRepository) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	for _, m := range r.all() {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *StockMovementRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	if key == "" {
		return nil, nil
	}
	for _, m := range r.all() {
		if m.IdempotencyKey == key {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

// List más recientes primero.
func (r *StockMovementRepository) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	all := r.all()
	matched := make([]entity.StockMovement, 0)
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if filter.ItemID != "" && m.ItemID != filter.ItemID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.PerformedBy != "" && m.PerformedBy != filter.PerformedBy {
			continue
		}
		if !inWindow(m.TransactionDate, filter.From, filter.To) {
			continue
		}
		matched = append(matched, m)
	}
	total := len(matched)
	return paginate(matched, limit, offset, cloneMovement), total, nil
}

func (r *StockMovementRepository) ListByItem(ctx context.Context, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	out := make([]*entity.StockMovement, 0)
	for _, m := range r.all() {
		if m.ItemID == itemID && inWindow(m.TransactionDate, from, to) {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}

func (r *StockMovementRepository) TotalsByItem(ctx context.Context, itemID string) (inventory.Totals, error) {
	var t inventory.Totals
	for _, m := range r.all() {
		if m.ItemID == itemID {
			t.Add(m.Type, m.Quantity)
		}
	}
	return t, nil
}

func (r *StockMovementRepository) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	for _, m := range r.all() {
		if m.ItemID == itemID {
			n++
		}
	}
	return n, nil
}

func (r *StockMovementRepository) SumDecrease(ctx context.Context, itemID string, from, to time.Time) (int64, error) {
	var sum int64
	for _, m := range r.all() {
		if m.ItemID != itemID || m.Type.Direction() != entity.DirectionDecrease {
			continue
		}
		if inWindow(m.TransactionDate, &from, &to) {
			sum += m.Quantity
		}
	}
	return sum, nil
}

func inWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
