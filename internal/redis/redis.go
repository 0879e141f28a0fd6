package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// PeripheralStatusKey holds the last link-watcher probe result as JSON.
const PeripheralStatusKey = "wakelink:peripheral:status"

// InitRedis connects the package-level client. A nil client (InitRedis never
// called) disables caching; callers treat cache misses and a disabled cache
// the same way.
func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to write to redis")
	}
}

// Get returns the cached value, or "" when the key is absent or the cache is
// disabled or unreachable.
func Get(ctx context.Context, key string) string {
	if Rdb == nil {
		return ""
	}
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to read from redis")
		}
		return ""
	}
	return value
}
