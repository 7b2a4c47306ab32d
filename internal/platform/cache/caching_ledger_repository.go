// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticker_sweep/internal/feature/ledger/domain/entity"
	"ticker_sweep/internal/feature/ledger/usecase"
)

// CachingLedgerRepository decorates a LedgerRepository with Redis caching of
// the read-heavy aggregate queries (Stats, ListByStatus) used by the HTTP API.
// Writes pass through and invalidate the affected keys. The batch runner does
// not go through this decorator; only the read-only server does.
type CachingLedgerRepository struct {
	inner     usecase.LedgerRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.LedgerRepository = (*CachingLedgerRepository)(nil)

// NewCachingLedgerRepository decorates a LedgerRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "ledger".
func NewCachingLedgerRepository(rdb *redis.Client, ttl time.Duration, inner usecase.LedgerRepository, namespace string) *CachingLedgerRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "ledger"
	}
	return &CachingLedgerRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Upsert writes through to the underlying repository and invalidates the
// cached aggregates.
func (c *CachingLedgerRepository) Upsert(ctx context.Context, ticker entity.Ticker) error {
	if err := c.inner.Upsert(ctx, ticker); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Get delegates to the underlying repository; single-row reads are not cached.
func (c *CachingLedgerRepository) Get(ctx context.Context, symbol string) (entity.Ticker, error) {
	return c.inner.Get(ctx, symbol)
}

// ListByStatus retrieves the symbol list, checking cache first then falling
// back to the database.
func (c *CachingLedgerRepository) ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.ListByStatus(ctx, status)
	}

	key := c.listKey(status)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Ticker
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	// Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Stats retrieves the ledger aggregates, checking cache first.
func (c *CachingLedgerRepository) Stats(ctx context.Context) (entity.Stats, error) {
	if c.rdb == nil {
		return c.inner.Stats(ctx)
	}

	key := c.statsKey()
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Stats
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Stats(ctx)
	if err != nil {
		return entity.Stats{}, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// WasCheckedWithin delegates to the underlying repository; freshness checks
// must always see the durable state.
func (c *CachingLedgerRepository) WasCheckedWithin(ctx context.Context, symbol string, window time.Duration) (bool, time.Duration, error) {
	return c.inner.WasCheckedWithin(ctx, symbol, window)
}

// BulkInsertUnvalidated writes through and invalidates the cached aggregates.
func (c *CachingLedgerRepository) BulkInsertUnvalidated(ctx context.Context, symbols []string) error {
	if err := c.inner.BulkInsertUnvalidated(ctx, symbols); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// invalidate drops all cached aggregate keys. Best effort: a failed cache
// deletion never fails the write that triggered it.
func (c *CachingLedgerRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	keys := []string{
		c.statsKey(),
		c.listKey(entity.StatusActive),
		c.listKey(entity.StatusDelisted),
		c.listKey(entity.StatusUnvalidated),
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}

func (c *CachingLedgerRepository) statsKey() string {
	return fmt.Sprintf("%s:stats", c.namespace)
}

func (c *CachingLedgerRepository) listKey(status entity.Status) string {
	return fmt.Sprintf("%s:list:%s", c.namespace, status)
}
