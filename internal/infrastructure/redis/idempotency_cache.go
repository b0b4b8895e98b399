package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
)

var _ inventory.IdempotencyCache = (*IdempotencyCache)(nil)

const (
	keyPrefix  = "ledger:idem:"
	defaultTTL = 24 * time.Hour
)

// IdempotencyCache llave de idempotencia -> id del movimiento confirmado.
// Es solo un atajo: la verdad está en el índice único de stock_movements.
type IdempotencyCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewIdempotencyCache construye la caché. ttl <= 0 usa 24 h.
func NewIdempotencyCache(rdb *goredis.Client, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyCache{rdb: rdb, ttl: ttl}
}

func (c *IdempotencyCache) Get(ctx context.Context, key string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Put no pisa una entrada existente: la primera confirmación gana.
func (c *IdempotencyCache) Put(ctx context.Context, key, movementID string) error {
	return c.rdb.SetNX(ctx, keyPrefix+key, movementID, c.ttl).Err()
}
