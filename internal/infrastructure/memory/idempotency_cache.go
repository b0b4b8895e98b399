package memory

import (
	"context"
	"sync"
)

// IdempotencyCache caché llave -> movimiento en proceso; sustituye a Redis en desarrollo y tests.
type IdempotencyCache struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewIdempotencyCache crea la caché vacía.
func NewIdempotencyCache() *IdempotencyCache {
	return &IdempotencyCache{keys: make(map[string]string)}
}

func (c *IdempotencyCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.keys[key]
	return id, ok, nil
}

func (c *IdempotencyCache) Put(_ context.Context, key, movementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = movementID
	return nil
}
