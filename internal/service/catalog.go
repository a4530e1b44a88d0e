package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"foodie/internal/metrics"
	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Catalog resolves a product's current name and price. It is consulted only
// when a line is first added to a cart or an order.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type cachedCatalog struct {
	inner Catalog
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedCatalog puts a Redis read-through cache in front of inner.
// Cache failures fall back to inner; misses are not cached.
func NewCachedCatalog(inner Catalog, rdb *redis.Client, ttl time.Duration) Catalog {
	if rdb == nil || ttl <= 0 {
		return inner
	}
	return &cachedCatalog{inner: inner, rdb: rdb, ttl: ttl}
}

func catalogKey(id uuid.UUID) string { return "catalog:product:" + id.String() }

func (c *cachedCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	key := catalogKey(id)

	// 1. Try Redis cache
	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if jsonErr := json.Unmarshal(cached, &p); jsonErr == nil {
			metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Msg("catalog cache: read failed")
	}
	metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()

	// 2. Cache miss: ask the source
	p, err := c.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Populate cache, best effort
	if b, jsonErr := json.Marshal(p); jsonErr == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return p, nil
}
