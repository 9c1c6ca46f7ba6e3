package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"basketReco/domain"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyOrders struct {
	err   error
	calls int
}

func (f *flakyOrders) RecentOrders(_ context.Context, _ string, _ int) ([]domain.HistoricalOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []domain.HistoricalOrder{{ID: 1}}, nil
}

type flakyAvailability struct {
	err error
}

func (f *flakyAvailability) GetAvailability(_ context.Context, _ string, ids []string) (map[string]domain.ProductAvailability, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]domain.ProductAvailability{}
	for _, id := range ids {
		out[id] = domain.ProductAvailability{ID: id, Available: true}
	}
	return out, nil
}

func testSettings() Settings {
	return Settings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Hour, FailureThreshold: 2}
}

func TestOrderHistoryOpensAfterFailures(t *testing.T) {
	next := &flakyOrders{err: errors.New("db down")}
	r := NewOrderHistory(next, testSettings())

	for i := 0; i < 2; i++ {
		_, err := r.RecentOrders(context.Background(), "s", 10)
		require.Error(t, err)
	}

	_, err := r.RecentOrders(context.Background(), "s", 10)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the upstream")
}

func TestOrderHistoryPassesThrough(t *testing.T) {
	r := NewOrderHistory(&flakyOrders{}, DefaultSettings())

	orders, err := r.RecentOrders(context.Background(), "s", 10)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCanceledCallsDoNotTrip(t *testing.T) {
	next := &flakyOrders{err: context.Canceled}
	r := NewOrderHistory(next, testSettings())

	for i := 0; i < 5; i++ {
		_, err := r.RecentOrders(context.Background(), "s", 10)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 5, next.calls)
}

func TestAvailabilityBreaker(t *testing.T) {
	next := &flakyAvailability{}
	r := NewAvailability(next, testSettings())

	got, err := r.GetAvailability(context.Background(), "s", []string{"1", "2"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	next.err = errors.New("503")
	for i := 0; i < 2; i++ {
		_, _ = r.GetAvailability(context.Background(), "s", []string{"1"})
	}
	_, err = r.GetAvailability(context.Background(), "s", []string{"1"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
