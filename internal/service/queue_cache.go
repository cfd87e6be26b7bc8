package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/minedata-id/mms-ops-api/internal/models"
)

const queueVersionKey = "approvals:queue:version"

// QueueCache is a redis side cache for open-approval listings. It is
// explicitly invalidated whenever a request is created or resolved, by
// bumping a version counter that prefixes every list key, so stale
// entries simply expire unreferenced.
type QueueCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueueCache constructs the cache. A nil client disables caching.
func NewQueueCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *QueueCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &QueueCache{client: client, ttl: ttl, logger: logger}
}

// GetList returns a cached listing when present.
func (c *QueueCache) GetList(ctx context.Context, key string) ([]models.ApprovalRequest, bool) {
	if c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, c.versionedKey(ctx, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("approval queue cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var requests []models.ApprovalRequest
	if err := json.Unmarshal(payload, &requests); err != nil {
		c.logger.Warn("approval queue cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return requests, true
}

// SetList stores a listing under the current queue version.
func (c *QueueCache) SetList(ctx context.Context, key string, requests []models.ApprovalRequest) {
	if c.client == nil {
		return
	}
	payload, err := json.Marshal(requests)
	if err != nil {
		c.logger.Warn("approval queue cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.versionedKey(ctx, key), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("approval queue cache write failed", zap.Error(err))
	}
}

// Invalidate bumps the queue version, orphaning every cached listing.
func (c *QueueCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, queueVersionKey).Err()
}

func (c *QueueCache) versionedKey(ctx context.Context, key string) string {
	version, err := c.client.Get(ctx, queueVersionKey).Int64()
	if err != nil && err != redis.Nil {
		c.logger.Warn("approval queue version read failed", zap.Error(err))
	}
	return fmt.Sprintf("approvals:queue:v%d:%s", version, key)
}
