package redis

import (
	"context"
	"fmt"
	"time"

	"basketReco/pkg/config"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 3 * time.Second

// Options maps the redis section of the config onto client options. Reads
// and writes share one IO timeout.
func Options(cfg *config.Config) *redis.Options {
	rc := cfg.Redis

	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", rc.RedisHost, rc.RedisPort),
		Password:     rc.RedisPassword,
		DB:           rc.RedisDB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.IOTimeout,
		WriteTimeout: rc.IOTimeout,
		// Retries would multiply the IO timeout on the hot path.
		MaxRetries: 1,
	}
	if rc.RedisPassword != "" {
		opts.Username = "default"
	}
	if opts.MinIdleConns > opts.PoolSize && opts.PoolSize > 0 {
		opts.MinIdleConns = opts.PoolSize
	}

	return opts
}

// NewRedisClient connects and pings within ctx, or within a few seconds when
// ctx has no deadline.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", client.Options().Addr, err)
	}

	return client, nil
}

func CloseRedisClient(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}

	return nil
}
