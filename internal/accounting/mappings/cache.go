package mappings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix   = "ledger:config:"
	versionKeyPrefix = "ledger:config-version:"
)

// Cache keeps tenant configs in Redis for the posting bridge hot path.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(tenantID uuid.UUID) string {
	return cacheKeyPrefix + tenantID.String()
}

// versionKey holds a per-tenant generation bumped by every invalidation. It has
// no expiry so a loader can always tell whether an update overtook it.
func versionKey(tenantID uuid.UUID) string {
	return versionKeyPrefix + tenantID.String()
}

// Get returns the cached config, or nil on a miss.
func (c *Cache) Get(ctx context.Context, tenantID uuid.UUID) (*Config, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	payload, err := c.client.Get(ctx, cacheKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Version returns the tenant generation. Loaders read it before going to the
// store and hand it back to Set.
func (c *Cache) Version(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores cfg only while the tenant generation still equals version, so a
// load that raced an update never overwrites the invalidation. It reports
// whether the value was written.
func (c *Cache) Set(ctx context.Context, cfg *Config, version int64) (bool, error) {
	if c == nil || c.client == nil || cfg == nil {
		return false, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return false, err
	}
	written := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(cfg.TenantID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(cfg.TenantID), raw, c.ttl)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, versionKey(cfg.TenantID))
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// Invalidate bumps the tenant generation and drops the entry atomically.
func (c *Cache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(tenantID))
		pipe.Del(ctx, cacheKey(tenantID))
		return nil
	})
	return err
}
