// Package cache mirrors the finalized snapshot into Redis as a write-only
// fast-read cache for downstream dashboards. A cache outage must never fail
// or block a run that otherwise completed correctly.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terminal-bench/txshard/internal/shard"
)

// DefaultTTL bounds how long a cached run's snapshot survives before Redis
// evicts it, so stale runs don't accumulate forever.
const DefaultTTL = 24 * time.Hour

// Cache writes snapshot rows to Redis, keyed by run id and client id.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect builds a Cache against addr and verifies reachability with a PING.
func Connect(ctx context.Context, addr string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: DefaultTTL}, nil
}

func key(runID string, client uint16) string {
	return fmt.Sprintf("txshard:%s:client:%d", runID, client)
}

// WriteSnapshot stores every row under its own key so a dashboard can read a
// single client's balance without loading the whole run.
func (c *Cache) WriteSnapshot(ctx context.Context, runID string, rows []shard.SnapshotRow) error {
	pipe := c.rdb.Pipeline()
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("cache: marshal client %d: %w", row.Client, err)
		}
		pipe.Set(ctx, key(runID, row.Client), payload, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the underlying Redis client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
