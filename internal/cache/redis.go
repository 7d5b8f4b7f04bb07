package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/refhub/referralhub/internal/domain/user"
)

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Redis{rdb: rdb, ttl: ttl}
}

// Ping checks redis connectivity, used by the readiness probe.
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) Get(ctx context.Context, key string) (user.Projection, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()

	if err != nil {
		// redis.Nil and transport errors both count as a miss
		return user.Projection{}, false
	}

	var p user.Projection

	if err := json.Unmarshal(raw, &p); err != nil {
		return user.Projection{}, false
	}

	return p, true
}

func (c *Redis) Set(ctx context.Context, key string, p user.Projection) {
	raw, err := json.Marshal(p)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) {
	_ = c.rdb.Del(ctx, key).Err()
}
