package redis

import (
	"context"
	"testing"
	"time"

	"basketReco/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{Redis: config.RedisConfig{
		RedisHost:    "127.0.0.1",
		RedisPort:    "1",
		PoolSize:     8,
		MinIdleConns: 20,
		DialTimeout:  50 * time.Millisecond,
		IOTimeout:    100 * time.Millisecond,
	}}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := Options(testConfig())

	assert.Equal(t, "127.0.0.1:1", opts.Addr)
	assert.Equal(t, 8, opts.PoolSize)
	assert.Equal(t, 8, opts.MinIdleConns)
	assert.Equal(t, 100*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 100*time.Millisecond, opts.WriteTimeout)
	assert.Empty(t, opts.Username)
}

func TestNewRedisClientRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	client, err := NewRedisClient(ctx, testConfig())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCloseRedisClientNil(t *testing.T) {
	assert.NoError(t, CloseRedisClient(nil))
}
