package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/medstock-ledger/internal/domain"
	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// SupplierRepository implementa repository.SupplierRepository.
type SupplierRepository struct {
	s *Store
}

var _ repository.SupplierRepository = (*SupplierRepository)(nil)

func (r *SupplierRepository) Create(ctx context.Context, sup *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[sup.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.suppliers[sup.ID] = *sup
	return nil
}

func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &sup, nil
}

func (r *SupplierRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Supplier, int, error) {
	r.s.mu.RLock()
	list := make([]entity.Supplier, 0, len(r.s.suppliers))
	for _, sup := range r.s.suppliers {
		if status != "" && sup.Status != status {
			continue
		}
		list = append(list, sup)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	total := len(list)
	return paginate(list, limit, offset, func(s entity.Supplier) *entity.Supplier { return &s }), total, nil
}

func (r *SupplierRepository) Update(ctx context.Context, sup *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.suppliers[sup.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := *sup
	next.CreatedAt = cur.CreatedAt
	r.s.suppliers[sup.ID] = next
	return nil
}
