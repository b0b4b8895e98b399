// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests de casos de uso y con STORAGE_DRIVER=memory para desarrollo local.
package memory

import (
	"sync"

	"github.com/jhoicas/medstock-ledger/internal/domain/entity"
)

// Store estado compartido de todos los repositorios en memoria.
// mu protege los mapas; sem serializa las transacciones del TxRunner (equivale al candado de fila,
// con granularidad de almacén completo).
type Store struct {
	mu        sync.RWMutex
	sem       chan struct{}
	items     map[string]entity.Item
	movements []entity.StockMovement // orden de commit
	movByID   map[string]int
	movByKey  map[string]int
	suppliers map[string]entity.Supplier
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		items:     make(map[string]entity.Item),
		movByID:   make(map[string]int),
		movByKey:  make(map[string]int),
		suppliers: make(map[string]entity.Supplier),
	}
}

// Items repositorio de ítems fuera de transacción.
func (s *Store) Items() *ItemRepository { return &ItemRepository{s: s} }

// Movements repositorio del libro fuera de transacción (solo lectura en la práctica).
func (s *Store) Movements() *StockMovementRepository { return &StockMovementRepository{s: s} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() *SupplierRepository { return &SupplierRepository{s: s} }

// Analytics consultas de analítica.
func (s *Store) Analytics() *AnalyticsRepository { return &AnalyticsRepository{s: s} }

// TxRunner transacciones sobre este almacén.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// TamperStock escribe current_stock sin pasar por el libro. Solo para simular deriva en tests
// de conciliación.
func (s *Store) TamperStock(id string, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok {
		it.CurrentStock = stock
		s.items[id] = it
	}
}

func cloneItem(it entity.Item) *entity.Item {
	c := it
	if it.SupplierID != nil {
		v := *it.SupplierID
		c.SupplierID = &v
	}
	if it.ExpiryDate != nil {
		v := *it.ExpiryDate
		c.ExpiryDate = &v
	}
	return &c
}

func cloneMovement(m entity.StockMovement) *entity.StockMovement {
	c := m
	return &c
}
