package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"volguard/pkg/errors"
)

// ReportCache caches rendered report payloads with a short TTL so
// repeated dashboard polls do not recompute aggregations.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new report cache
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		ttl:    ttl,
	}
}

// Get loads a cached report into dest. Returns false on a cache miss.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.getKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to get cached report: key=%s", key)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, errors.Wrapf(err, "failed to unmarshal cached report: key=%s", key)
	}

	return true, nil
}

// Set stores a report payload with the configured TTL
func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report: key=%s", key)
	}

	if err := c.client.Set(ctx, c.getKey(key), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to cache report: key=%s", key)
	}

	return nil
}

func (c *ReportCache) getKey(key string) string {
	return fmt.Sprintf("report:%s", key)
}
