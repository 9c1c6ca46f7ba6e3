package reco

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"basketReco/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ---- fakes ----

type fakeSettings struct {
	row     domain.ShopSettings
	found   bool
	err     error
	touched int
}

func (f *fakeSettings) GetSettings(_ context.Context, _ string) (domain.ShopSettings, bool, error) {
	return f.row, f.found, f.err
}

func (f *fakeSettings) TouchHeartbeat(_ context.Context, _ string, _ time.Time) error {
	f.touched++
	return nil
}

type fakeOrders struct {
	orders []domain.HistoricalOrder
	err    error
	calls  int
}

func (f *fakeOrders) RecentOrders(_ context.Context, _ string, limit int) ([]domain.HistoricalOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.orders) {
		return f.orders[:limit], nil
	}
	return f.orders, nil
}

type fakeAvailability struct {
	products map[string]domain.ProductAvailability
	err      error
}

func (f *fakeAvailability) GetAvailability(_ context.Context, _ string, ids []string) (map[string]domain.ProductAvailability, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.ProductAvailability, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeClicks struct {
	stats map[string]domain.ClickStat
	err   error
}

func (f *fakeClicks) ClickStats(_ context.Context, _ string, _ time.Time) (map[string]domain.ClickStat, error) {
	return f.stats, f.err
}

type fakeCatalog struct {
	ids []string
	err error
}

func (f *fakeCatalog) FindSimilar(_ context.Context, _ string, _ []string, _ int) ([]string, error) {
	return f.ids, f.err
}

type fakeResolver struct {
	va domain.VariantAssignment
	ok bool
}

func (f *fakeResolver) Resolve(_ context.Context, _, _, _ string) (domain.VariantAssignment, bool, error) {
	return f.va, f.ok, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// ---- fixture ----

type fixture struct {
	settings *fakeSettings
	orders   *fakeOrders
	avail    *fakeAvailability
	clicks   *fakeClicks
	catalog  *fakeCatalog
	resolver *fakeResolver
	cache    *mapCache
}

func product(id string, price float64) domain.ProductAvailability {
	return domain.ProductAvailability{
		ID:        id,
		Title:     "Product " + id,
		Handle:    fmt.Sprintf("item-%s-variant", id),
		Price:     price,
		Available: true,
	}
}

// newFixture: anchor 100 is bought with 201 (often) and 202 (once); 300 is a
// manual pick. Everything costs 20 unless a test changes it.
func newFixture() *fixture {
	var orders []domain.HistoricalOrder
	for i := 0; i < 6; i++ {
		orders = append(orders, order(testNow, "100", "201"))
	}
	orders = append(orders, order(testNow, "100", "202"))
	for i := 0; i < 10; i++ {
		orders = append(orders, order(testNow, "999"))
	}

	products := map[string]domain.ProductAvailability{}
	for _, id := range []string{"100", "201", "202", "300", "400", "401"} {
		products[id] = product(id, 20)
	}

	return &fixture{
		settings: &fakeSettings{},
		orders:   &fakeOrders{orders: orders},
		avail:    &fakeAvailability{products: products},
		clicks:   &fakeClicks{},
		catalog:  &fakeCatalog{},
		resolver: &fakeResolver{},
		cache:    newMapCache(),
	}
}

func (f *fixture) service() *RecommendationService {
	return NewRecommendationService(
		f.settings, f.orders, f.avail, f.clicks, f.catalog, f.resolver, f.cache,
		Options{Now: func() time.Time { return testNow }},
	)
}

func (f *fixture) withSettings(row domain.ShopSettings) *fixture {
	f.settings.row = row
	f.settings.found = true
	return f
}

func itemIDs(res domain.RecommendationResult) []string {
	out := make([]string, 0, len(res.Recommendations))
	for _, it := range res.Recommendations {
		out = append(out, it.ID)
	}
	return out
}

func req(anchor string) domain.RecommendationRequest {
	return domain.RecommendationRequest{Shop: "shop-a", AnchorID: anchor}
}

// ---- tests ----

func TestRecommendAssociations(t *testing.T) {
	f := newFixture()
	res := f.service().Recommend(context.Background(), req("100"))

	assert.Empty(t, res.Reason)
	assert.Equal(t, domain.SourceAssociation, res.Source)
	assert.Equal(t, []string{"201", "202"}, itemIDs(res))
	assert.Equal(t, "item-201-variant", res.Recommendations[0].Handle)
	assert.Equal(t, 1, f.settings.touched)
}

func TestRecommendHybridManualFirst(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{
		ManualProductIDs: datatypes.JSONSlice[string]{"300", "missing"},
	})
	res := f.service().Recommend(context.Background(), req("100"))

	require.Equal(t, []string{"300", "201", "202"}, itemIDs(res))
	assert.Equal(t, domain.SourceManual, res.Recommendations[0].Source)
	assert.Equal(t, domain.SourceAssociation, res.Recommendations[1].Source)
	assert.Empty(t, res.Source)
}

func TestRecommendRespectsLimit(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{
		ManualProductIDs: datatypes.JSONSlice[string]{"300"},
	})
	r := req("100")
	r.Limit = 1

	res := f.service().Recommend(context.Background(), r)
	assert.Equal(t, []string{"300"}, itemIDs(res))
	assert.Equal(t, domain.SourceManual, res.Source)
}

func TestRecommendUnknownAnchor(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{CatalogFallback: boolPtr(false)})
	res := f.service().Recommend(context.Background(), req("777"))

	assert.Empty(t, res.Recommendations)
	assert.Equal(t, domain.ReasonNoCandidates, res.Reason)

	f = newFixture().withSettings(domain.ShopSettings{
		CatalogFallback:  boolPtr(false),
		ManualProductIDs: datatypes.JSONSlice[string]{"300"},
	})
	res = f.service().Recommend(context.Background(), req("777"))
	assert.Equal(t, []string{"300"}, itemIDs(res))
}

func TestRecommendCatalogFallback(t *testing.T) {
	f := newFixture()
	f.catalog.ids = []string{"777", "400", "401"}

	res := f.service().Recommend(context.Background(), req("777"))

	assert.Equal(t, domain.SourceCatalog, res.Source)
	assert.Equal(t, []string{"400", "401"}, itemIDs(res))
}

func TestRecommendThresholdFilter(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{
		FreeShippingThreshold: 100,
		ThresholdSuggestions:  true,
		PriceGapEnabled:       boolPtr(false),
	})
	f.avail.products["201"] = product("201", 15)
	f.avail.products["202"] = product("202", 25)

	r := req("100")
	subtotal := 80.0
	r.Subtotal = &subtotal

	res := f.service().Recommend(context.Background(), r)
	assert.Equal(t, []string{"202"}, itemIDs(res))
}

func TestRecommendReasons(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{Enabled: boolPtr(false)})
	res := f.service().Recommend(context.Background(), req("100"))
	assert.Equal(t, domain.ReasonDisabled, res.Reason)
	assert.NotNil(t, res.Recommendations)

	f = newFixture().withSettings(domain.ShopSettings{FreeShippingThreshold: 50, HideWhenThresholdMet: true})
	r := req("100")
	subtotal := 60.0
	r.Subtotal = &subtotal
	res = f.service().Recommend(context.Background(), r)
	assert.Equal(t, domain.ReasonThresholdMet, res.Reason)

	f = newFixture()
	res = f.service().Recommend(context.Background(), req(""))
	assert.Equal(t, domain.ReasonNoContext, res.Reason)
	assert.Zero(t, f.orders.calls)
}

func TestRecommendDegradesOnUpstreamFailure(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{
		ManualProductIDs: datatypes.JSONSlice[string]{"300"},
	})
	f.orders.err = errors.New("db down")

	svc := f.service()
	res := svc.Recommend(context.Background(), req("100"))
	assert.Equal(t, []string{"300"}, itemIDs(res))
	assert.Empty(t, res.Reason)

	f = newFixture()
	f.orders.err = errors.New("db down")
	svc = f.service()

	res = svc.Recommend(context.Background(), req("100"))
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, domain.ReasonUnavailable, res.Reason)

	// degraded answers are not cached
	f.orders.err = nil
	res = svc.Recommend(context.Background(), req("100"))
	assert.False(t, res.Cached)
	assert.Equal(t, []string{"201", "202"}, itemIDs(res))
}

func TestRecommendAvailabilityFailure(t *testing.T) {
	f := newFixture()
	f.avail.err = errors.New("storefront timeout")

	res := f.service().Recommend(context.Background(), req("100"))
	assert.Equal(t, domain.ReasonUnavailable, res.Reason)
}

func TestRecommendIgnoresClickFailure(t *testing.T) {
	f := newFixture()
	f.clicks.err = errors.New("events table locked")

	res := f.service().Recommend(context.Background(), req("100"))
	assert.Equal(t, []string{"201", "202"}, itemIDs(res))
}

// stalledSettings and stalledResolver hang until their context is done, like
// a database that stopped answering.
type stalledSettings struct{}

func (stalledSettings) GetSettings(ctx context.Context, _ string) (domain.ShopSettings, bool, error) {
	<-ctx.Done()
	return domain.ShopSettings{}, false, ctx.Err()
}

func (stalledSettings) TouchHeartbeat(ctx context.Context, _ string, _ time.Time) error {
	<-ctx.Done()
	return ctx.Err()
}

type stalledResolver struct{}

func (stalledResolver) Resolve(ctx context.Context, _, _, _ string) (domain.VariantAssignment, bool, error) {
	<-ctx.Done()
	return domain.VariantAssignment{}, false, ctx.Err()
}

func TestRecommendBoundsSettingsAndExperimentLookups(t *testing.T) {
	f := newFixture()
	svc := NewRecommendationService(
		stalledSettings{}, f.orders, f.avail, f.clicks, f.catalog, stalledResolver{}, f.cache,
		Options{Now: func() time.Time { return testNow }, UpstreamTimeout: 50 * time.Millisecond},
	)

	r := req("100")
	r.UnitID = "u1"

	done := make(chan domain.RecommendationResult, 1)
	go func() { done <- svc.Recommend(context.Background(), r) }()

	select {
	case res := <-done:
		assert.Equal(t, []string{"201", "202"}, itemIDs(res))
		assert.Empty(t, res.VariantID)
		assert.Empty(t, res.ExperimentID)
	case <-time.After(3 * time.Second):
		t.Fatal("Recommend did not return while settings and experiments were stalled")
	}
}

func TestRecommendCache(t *testing.T) {
	f := newFixture()
	svc := f.service()

	first := svc.Recommend(context.Background(), req("100"))
	second := svc.Recommend(context.Background(), req("100"))

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, itemIDs(first), itemIDs(second))
	assert.Equal(t, 1, f.orders.calls)

	other := req("100")
	other.Limit = 1
	third := svc.Recommend(context.Background(), other)
	assert.False(t, third.Cached)
	assert.Len(t, third.Recommendations, 1)
}

func TestRecommendIdempotent(t *testing.T) {
	f := newFixture()
	f.cache = nil
	svc := NewRecommendationService(f.settings, f.orders, f.avail, f.clicks, f.catalog, f.resolver, nil,
		Options{Now: func() time.Time { return testNow }})

	a := svc.Recommend(context.Background(), req("100"))
	b := svc.Recommend(context.Background(), req("100"))
	assert.Equal(t, a, b)
	assert.Equal(t, 2, f.orders.calls)
}

func TestRecommendAttachesVariant(t *testing.T) {
	f := newFixture().withSettings(domain.ShopSettings{
		ManualProductIDs: datatypes.JSONSlice[string]{"300"},
	})
	f.resolver.ok = true
	f.resolver.va = domain.VariantAssignment{
		ExperimentID: "exp-1",
		Variant:      "test",
		VariantID:    "var-2",
		Config:       domain.VariantConfig{Mode: domain.ModeManual},
	}

	r := req("100")
	r.UnitID = "session-1"
	res := f.service().Recommend(context.Background(), r)

	assert.Equal(t, "exp-1", res.ExperimentID)
	assert.Equal(t, "var-2", res.VariantID)
	assert.Equal(t, []string{"300"}, itemIDs(res))
	assert.Zero(t, f.orders.calls)
}

func TestCacheKey(t *testing.T) {
	a := domain.RecommendationRequest{Shop: "s", AnchorID: "1", CartIDs: []string{"3", "2"}}
	b := domain.RecommendationRequest{Shop: "s", AnchorID: "1", CartIDs: []string{"2", "3", "2"}}
	assert.Equal(t, cacheKey(a, ""), cacheKey(b, ""))
	assert.NotEqual(t, cacheKey(a, ""), cacheKey(a, "v1"))

	sub := 10.0
	b.Subtotal = &sub
	assert.NotEqual(t, cacheKey(a, ""), cacheKey(b, ""))
}

func TestDebugRecommend(t *testing.T) {
	f := newFixture()
	f.avail.products["202"] = product("202", 200)

	out, err := f.service().DebugRecommend(context.Background(), req("100"))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "201", out[0].ProductID)
	assert.True(t, out[0].Accepted)
	assert.True(t, out[0].AvailabilitySet)

	assert.Equal(t, "202", out[1].ProductID)
	assert.False(t, out[1].Accepted)
	assert.Equal(t, DropPriceGap, out[1].DroppedBy)
}

func TestDebugRecommendPropagatesErrors(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("db down")

	_, err := f.service().DebugRecommend(context.Background(), req("100"))
	assert.Error(t, err)
}

func TestAssociations(t *testing.T) {
	f := newFixture()
	pairs, err := f.service().Associations(context.Background(), "shop-a", 2)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.GreaterOrEqual(t, pairs[0].Lift, pairs[1].Lift)

	f.orders.err = errors.New("db down")
	_, err = f.service().Associations(context.Background(), "shop-a", 2)
	assert.Error(t, err)
}
