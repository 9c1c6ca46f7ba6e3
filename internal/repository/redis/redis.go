package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basketReco/business/reco"

	"github.com/redis/go-redis/v9"
)

// ResultCacheRepository stores encoded recommendation payloads in Redis so
// every instance behind the load balancer shares them.
type ResultCacheRepository struct {
	client *redis.Client
	prefix string
}

var _ reco.ResultCache = (*ResultCacheRepository)(nil)

func NewResultCacheRepository(client *redis.Client) *ResultCacheRepository {
	return &ResultCacheRepository{
		client: client,
		prefix: "basketreco:",
	}
}

func (r *ResultCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached result from Redis: %w", err)
	}
	return val, true, nil
}

func (r *ResultCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cached result in Redis: %w", err)
	}
	return nil
}
