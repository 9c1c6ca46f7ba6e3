package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestResultCacheRepository_BackendDown(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	repo := NewResultCacheRepository(client)
	ctx := context.Background()

	val, found, err := repo.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	err = repo.Set(ctx, "k", []byte("v"), time.Second)
	assert.Error(t, err)
}
