package memory

import (
	"context"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type QuotaCache struct {
	cache *cache.Cache
}

// NewQuotaCache keeps snapshots for ttl and purges expired ones every
// cleanupInterval.
func NewQuotaCache(ttl, cleanupInterval time.Duration) contract.QuotaCache {
	return &QuotaCache{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func quotaKey(userId uuid.UUID) string {
	return "quota:" + userId.String()
}

func (c *QuotaCache) Get(ctx context.Context, userId uuid.UUID) (*entity.QuotaSnapshot, bool) {
	if x, found := c.cache.Get(quotaKey(userId)); found {
		snap := *x.(*entity.QuotaSnapshot)
		return &snap, true
	}
	return nil, false
}

func (c *QuotaCache) Set(ctx context.Context, snapshot *entity.QuotaSnapshot) {
	stored := *snapshot
	c.cache.Set(quotaKey(snapshot.UserId), &stored, cache.DefaultExpiration)
}

func (c *QuotaCache) Invalidate(ctx context.Context, userId uuid.UUID) {
	c.cache.Delete(quotaKey(userId))
}
