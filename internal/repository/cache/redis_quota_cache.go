package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reservation:quota:"

// RedisQuotaCache shares quota snapshots between API replicas. Redis failures
// degrade to cache misses.
type RedisQuotaCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

// NewRedisQuotaCache pings the server before returning so that callers can
// fall back to the in-process cache.
func NewRedisQuotaCache(client *redis.Client, ttl time.Duration, log logger.ILogger) (contract.QuotaCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisQuotaCache{client: client, ttl: ttl, logger: log}, nil
}

func (c *RedisQuotaCache) Get(ctx context.Context, userId uuid.UUID) (*entity.QuotaSnapshot, bool) {
	val, err := c.client.Get(ctx, keyPrefix+userId.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("QuotaCache", "redis get failed", map[string]interface{}{"user_id": userId, "error": err.Error()})
		return nil, false
	}

	var snap entity.QuotaSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		c.logger.Warn("QuotaCache", "cached snapshot is not valid JSON", map[string]interface{}{"user_id": userId, "error": err.Error()})
		return nil, false
	}
	return &snap, true
}

func (c *RedisQuotaCache) Set(ctx context.Context, snapshot *entity.QuotaSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+snapshot.UserId.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("QuotaCache", "redis set failed", map[string]interface{}{"user_id": snapshot.UserId, "error": err.Error()})
	}
}

func (c *RedisQuotaCache) Invalidate(ctx context.Context, userId uuid.UUID) {
	if err := c.client.Del(ctx, keyPrefix+userId.String()).Err(); err != nil {
		c.logger.Warn("QuotaCache", "redis delete failed", map[string]interface{}{"user_id": userId, "error": err.Error()})
	}
}
