package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// compile-time check that *Redis implements Cache
var _ Cache = (*Redis)(nil)

// Redis is the production Cache backed by a Redis server.
//
// Every backend error is swallowed and logged at debug level: a Redis outage
// turns each operation into a miss or a no-op, and the data store absorbs the
// load until the backend returns.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// New returns a Cache for the given address. An empty address means no cache
// backend is configured; the returned Cache is then a no-op and the system
// serves everything from the data store.
func New(addr, password string, logger *slog.Logger) Cache {
	if addr == "" {
		logger.Warn("cache backend not configured, serving all reads from the data store")
		return Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	// A failed ping is not fatal: the backend may come up later, and every
	// operation already tolerates its absence.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("cache backend unreachable, continuing degraded",
			slog.String("addr", addr),
			slog.String("error", err.Error()),
		)
	}

	return &Redis{client: client, logger: logger}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		// Plain strings are stored unencoded; hand them back directly.
		if s, ok := dest.(*string); ok {
			*s = val
			return true
		}
		// Anything else that fails to decode is treated as absent.
		c.logger.Debug("cache entry undecodable, treating as miss", slog.String("key", key))
		return false
	}
	return true
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	var payload any
	if s, ok := value.(string); ok {
		payload = s
	} else {
		b, err := json.Marshal(value)
		if err != nil {
			c.logger.Debug("cache set skipped, value not serializable",
				slog.String("key", key), slog.String("error", err.Error()))
			return
		}
		payload = b
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("cache delete failed", slog.String("error", err.Error()))
	}
}

func (c *Redis) DeleteMatching(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Debug("cache scan failed", slog.String("pattern", pattern), slog.String("error", err.Error()))
		return
	}

	c.Delete(ctx, keys...)
}

func (c *Redis) Close() error {
	return c.client.Close()
}
