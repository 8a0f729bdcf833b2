package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lmoreau/profilhub/internal/geo"
)

const (
	cacheKeyPrefix = "geocode:"
	cacheTTL       = 24 * time.Hour
)

// RedisCache keeps resolved coordinates in redis so repeated lookups of the
// same address skip the outbound service.
type RedisCache struct {
	redisdb *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisCache{redisdb: redisdb}
}

// Ping checks redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.redisdb.Close()
}

func (c *RedisCache) Get(ctx context.Context, address string) (geo.Point, bool, error) {
	raw, err := c.redisdb.Get(ctx, cacheKeyPrefix+address).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return geo.Point{}, false, nil
		}

		return geo.Point{}, false, err
	}

	var p geo.Point

	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return geo.Point{}, false, err
	}

	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, address string, p geo.Point) error {
	raw, err := json.Marshal(p)

	if err != nil {
		return err
	}

	return c.redisdb.Set(ctx, cacheKeyPrefix+address, raw, cacheTTL).Err()
}
