package memory

import (
	"context"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
	"github.com/jhoicas/medstock-ledger/internal/domain/repository"
)

// TxRunner implementa inventory.TxRunner sobre el almacén en memoria.
// Las escrituras se acumulan en txState y solo se aplican si fn termina sin error y el
// contexto sigue vivo; en cualquier otro caso se descartan (rollback).
type TxRunner struct {
	s *Store
}

// txState escrituras pendientes de una transacción. Un ítem nil en items marca borrado.
type txState struct {
	items     map[string]*entity.Item
	movements []entity.StockMovement
}

// Run adquiere el candado de escritura del almacén, ejecuta fn y hace commit o rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	if err := r.s.acquire(ctx); err != nil {
		return err
	}
	defer r.s.release()

	tx := &txState{items: make(map[string]*entity.Item)}
	if err := fn(&ItemRepository{s: r.s, tx: tx}, &StockMovementRepository{s: r.s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.commit(tx)
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.sem }

// autocommit ejecuta una escritura fuera de transacción con el mismo candado que Run.
func (s *Store) autocommit(ctx context.Context, fn func(tx *txState) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	tx := &txState{items: make(map[string]*entity.Item)}
	if err := fn(tx); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range tx.items {
		if it == nil {
			delete(s.items, id)
			continue
		}
		s.items[id] = *it
	}
	for _, m := range tx.movements {
		s.movements = append(s.movements, m)
		idx := len(s.movements) - 1
		s.movByID[m.ID] = idx
		if m.IdempotencyKey != "" {
			s.movByKey[m.IdempotencyKey] = idx
		}
	}
}
