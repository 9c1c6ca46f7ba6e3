package resilient

import (
	"context"
	"errors"
	"time"

	"basketReco/business/reco"
	"basketReco/domain"
	"basketReco/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Settings configures one upstream circuit breaker.
type Settings struct {
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens it.
	FailureThreshold uint32
}

func DefaultSettings() Settings {
	return Settings{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

var BreakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "upstream_breaker_state",
		Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open).",
	},
	[]string{"upstream"},
)

func init() {
	prometheus.MustRegister(BreakerState)
}

func newBreaker[T any](name string, s Settings) *gobreaker.CircuitBreaker[T] {
	if s.FailureThreshold == 0 {
		s = DefaultSettings()
	}
	BreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not an upstream fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("upstream_breaker_state_change", "upstream", name, "from", from.String(), "to", to.String())
		},
	})
}

// ---- Order history ----

type OrderHistory struct {
	next reco.OrderHistoryRepository
	cb   *gobreaker.CircuitBreaker[[]domain.HistoricalOrder]
}

var _ reco.OrderHistoryRepository = (*OrderHistory)(nil)

func NewOrderHistory(next reco.OrderHistoryRepository, s Settings) *OrderHistory {
	return &OrderHistory{
		next: next,
		cb:   newBreaker[[]domain.HistoricalOrder]("order_history", s),
	}
}

func (r *OrderHistory) RecentOrders(ctx context.Context, shop string, limit int) ([]domain.HistoricalOrder, error) {
	return r.cb.Execute(func() ([]domain.HistoricalOrder, error) {
		return r.next.RecentOrders(ctx, shop, limit)
	})
}

// ---- Availability ----

type Availability struct {
	next reco.AvailabilityRepository
	cb   *gobreaker.CircuitBreaker[map[string]domain.ProductAvailability]
}

var _ reco.AvailabilityRepository = (*Availability)(nil)

func NewAvailability(next reco.AvailabilityRepository, s Settings) *Availability {
	return &Availability{
		next: next,
		cb:   newBreaker[map[string]domain.ProductAvailability]("availability", s),
	}
}

func (r *Availability) GetAvailability(ctx context.Context, shop string, productIDs []string) (map[string]domain.ProductAvailability, error) {
	return r.cb.Execute(func() (map[string]domain.ProductAvailability, error) {
		return r.next.GetAvailability(ctx, shop, productIDs)
	})
}
