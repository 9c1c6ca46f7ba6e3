package reco

import (
	"context"
	"fmt"
	"time"

	"basketReco/domain"
	"basketReco/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ---- Repository interfaces ----

type SettingsRepository interface {
	GetSettings(ctx context.Context, shop string) (domain.ShopSettings, bool, error)
	TouchHeartbeat(ctx context.Context, shop string, at time.Time) error
}

type OrderHistoryRepository interface {
	RecentOrders(ctx context.Context, shop string, limit int) ([]domain.HistoricalOrder, error)
}

type AvailabilityRepository interface {
	GetAvailability(ctx context.Context, shop string, productIDs []string) (map[string]domain.ProductAvailability, error)
}

type ClickStatsRepository interface {
	ClickStats(ctx context.Context, shop string, since time.Time) (map[string]domain.ClickStat, error)
}

type CatalogRepository interface {
	FindSimilar(ctx context.Context, shop string, anchorIDs []string, limit int) ([]string, error)
}

// ExperimentResolver picks the variant a unit sees on a surface without
// writing anything.
type ExperimentResolver interface {
	Resolve(ctx context.Context, shop, surface, unitID string) (domain.VariantAssignment, bool, error)
}

type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ---- Service ----

type Options struct {
	CacheTTL             time.Duration
	UpstreamTimeout      time.Duration
	AnalysisHalfLifeDays float64
	Defaults             Settings
	Now                  func() time.Time
}

const (
	defaultCacheTTL        = 30 * time.Second
	defaultUpstreamTimeout = 1500 * time.Millisecond
	maxShortlist           = 60
	debugShortlist         = 50
)

type RecommendationService struct {
	settingsRepo     SettingsRepository
	orderRepo        OrderHistoryRepository
	availabilityRepo AvailabilityRepository
	clickRepo        ClickStatsRepository
	catalogRepo      CatalogRepository
	experiments      ExperimentResolver
	cache            ResultCache
	opts             Options
}

func NewRecommendationService(
	settingsRepo SettingsRepository,
	orderRepo OrderHistoryRepository,
	availabilityRepo AvailabilityRepository,
	clickRepo ClickStatsRepository,
	catalogRepo CatalogRepository,
	experiments ExperimentResolver,
	cache ResultCache,
	opts Options,
) *RecommendationService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = defaultUpstreamTimeout
	}
	if opts.AnalysisHalfLifeDays <= 0 {
		opts.AnalysisHalfLifeDays = DefaultAnalysisHalfLifeDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Defaults.MaxResults == 0 {
		opts.Defaults = DefaultSettings()
	}
	opts.Defaults = opts.Defaults.validated()

	return &RecommendationService{
		settingsRepo:     settingsRepo,
		orderRepo:        orderRepo,
		availabilityRepo: availabilityRepo,
		clickRepo:        clickRepo,
		catalogRepo:      catalogRepo,
		experiments:      experiments,
		cache:            cache,
		opts:             opts,
	}
}

// Recommend always returns a well-formed result. Upstream failures degrade to
// manual entries or an empty list with a reason code.
func (s *RecommendationService) Recommend(ctx context.Context, req domain.RecommendationRequest) domain.RecommendationResult {
	ctx = WithTraceID(ctx, req.RequestID)
	tid := TraceIDFromContext(ctx)

	anchors := dedupeIDs(append([]string{req.AnchorID}, req.CartIDs...))
	variant, hasVariant := s.resolveVariant(ctx, req)

	key := cacheKey(req, variant.VariantID)
	if res, ok := s.cachedResult(ctx, key); ok {
		ResultCacheTotal.WithLabelValues("hit").Inc()
		return res
	}
	ResultCacheTotal.WithLabelValues("miss").Inc()

	var vc *domain.VariantConfig
	if hasVariant {
		vc = &variant.Config
	}

	res, cacheable := s.compute(ctx, req, anchors, vc)
	if hasVariant {
		res.ExperimentID = variant.ExperimentID
		res.VariantID = variant.VariantID
	}

	logger.Debug("reco_recommend",
		"trace_id", tid,
		"shop", req.Shop,
		"anchors", len(anchors),
		"items", len(res.Recommendations),
		"reason", res.Reason,
		"source", res.Source,
		"variant_id", res.VariantID,
	)

	RecommendationsTotal.WithLabelValues(res.Reason).Inc()
	for _, item := range res.Recommendations {
		RecommendedItemsTotal.WithLabelValues(item.Source).Inc()
	}

	if cacheable {
		s.storeResult(ctx, key, res)
	}
	return res
}

func (s *RecommendationService) resolveVariant(ctx context.Context, req domain.RecommendationRequest) (domain.VariantAssignment, bool) {
	if s.experiments == nil || req.UnitID == "" {
		return domain.VariantAssignment{}, false
	}

	rctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	va, ok, err := s.experiments.Resolve(rctx, req.Shop, s.opts.Defaults.ExperimentSurface, req.UnitID)
	if err != nil {
		logger.Warn("reco_experiment_resolve_failed",
			"trace_id", TraceIDFromContext(ctx),
			"shop", req.Shop,
			"error", err,
		)
		return domain.VariantAssignment{}, false
	}
	return va, ok
}

func (s *RecommendationService) loadSettings(ctx context.Context, shop string) Settings {
	if s.settingsRepo == nil {
		return s.opts.Defaults
	}

	sctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	row, ok, err := s.settingsRepo.GetSettings(sctx, shop)
	if err != nil {
		logger.Warn("reco_settings_load_failed",
			"trace_id", TraceIDFromContext(ctx),
			"shop", shop,
			"error", err,
		)
		return s.opts.Defaults
	}
	return ResolveSettings(s.opts.Defaults, row, ok)
}

// compute runs the tiers. The bool reports whether the result may be cached.
func (s *RecommendationService) compute(
	ctx context.Context,
	req domain.RecommendationRequest,
	anchors []string,
	vc *domain.VariantConfig,
) (domain.RecommendationResult, bool) {

	settings := s.loadSettings(ctx, req.Shop)
	if vc != nil {
		settings = settings.ApplyVariant(*vc)
	}

	if !settings.Enabled {
		return emptyResult(domain.ReasonDisabled), true
	}
	if settings.HideWhenThresholdMet && settings.FreeShippingThreshold > 0 &&
		req.Subtotal != nil && *req.Subtotal >= settings.FreeShippingThreshold {
		return emptyResult(domain.ReasonThresholdMet), true
	}
	if len(anchors) == 0 {
		return emptyResult(domain.ReasonNoContext), true
	}

	s.touchHeartbeat(ctx, req.Shop)

	p := s.newPipeline(req, anchors, settings)

	if settings.Mode != domain.ModeAlgorithmic {
		p.manualTier(ctx)
	}
	if settings.Mode != domain.ModeManual && !p.full() {
		if p.associationTier(ctx) && settings.CatalogFallback && !p.full() {
			p.catalogTier(ctx)
		}
	}

	return p.result(), !p.upstreamFailed
}

func (s *RecommendationService) touchHeartbeat(ctx context.Context, shop string) {
	if s.settingsRepo == nil {
		return
	}
	hctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	if err := s.settingsRepo.TouchHeartbeat(hctx, shop, s.opts.Now()); err != nil {
		logger.Warn("reco_heartbeat_failed", "trace_id", TraceIDFromContext(ctx), "shop", shop, "error", err)
	}
}

// ---- Upstream fetches ----

func (s *RecommendationService) fetchAvailability(ctx context.Context, shop string, ids []string) (map[string]domain.ProductAvailability, error) {
	if len(ids) == 0 {
		return map[string]domain.ProductAvailability{}, nil
	}
	if s.availabilityRepo == nil {
		return nil, fmt.Errorf("availability source not configured")
	}

	fctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	avail, err := s.availabilityRepo.GetAvailability(fctx, shop, ids)
	if err != nil {
		UpstreamFailuresTotal.WithLabelValues("availability").Inc()
		return nil, fmt.Errorf("fetch availability: %w", err)
	}
	return avail, nil
}

// rankAssociations mines the order window and returns candidates sorted by
// final score. Click data is fetched alongside the orders and is optional.
func (s *RecommendationService) rankAssociations(
	ctx context.Context,
	shop string,
	anchors []string,
	settings Settings,
) ([]Candidate, *Stats, error) {

	if s.orderRepo == nil {
		return nil, nil, fmt.Errorf("order history source not configured")
	}

	now := s.opts.Now()
	var (
		orders []domain.HistoricalOrder
		clicks map[string]domain.ClickStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.opts.UpstreamTimeout)
		defer cancel()

		rows, err := s.orderRepo.RecentOrders(fctx, shop, settings.OrderWindow)
		if err != nil {
			UpstreamFailuresTotal.WithLabelValues("order_history").Inc()
			return fmt.Errorf("fetch order history: %w", err)
		}
		orders = rows
		return nil
	})

	if settings.ClickReranking && s.clickRepo != nil {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, s.opts.UpstreamTimeout)
			defer cancel()

			since := now.AddDate(0, 0, -settings.CTRWindowDays)
			stats, err := s.clickRepo.ClickStats(fctx, shop, since)
			if err != nil {
				logger.Warn("reco_click_stats_failed",
					"trace_id", TraceIDFromContext(ctx),
					"shop", shop,
					"error", err,
				)
				return nil
			}
			clicks = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stats := Mine(orders, now, settings.HalfLifeDays)

	exclude := make(map[string]struct{}, len(anchors))
	for _, a := range anchors {
		exclude[a] = struct{}{}
	}

	cands := ScoreCandidates(stats, anchors, exclude, settings.Scoring)
	if settings.ClickReranking {
		ApplyClickStats(cands, clicks, settings.CTR)
	}

	return cands, stats, nil
}

// ---- Admin views ----

// DebugRecommend scores the association tier and reports the guardrail
// decision for every shortlisted candidate.
func (s *RecommendationService) DebugRecommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.DebugCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	anchors := dedupeIDs(append([]string{req.AnchorID}, req.CartIDs...))
	if len(anchors) == 0 {
		return []domain.DebugCandidate{}, nil
	}

	settings := s.loadSettings(ctx, req.Shop)
	if va, ok := s.resolveVariant(ctx, req); ok {
		settings = settings.ApplyVariant(va.Config)
	}

	cands, stats, err := s.rankAssociations(ctx, req.Shop, anchors, settings)
	if err != nil {
		return nil, err
	}
	if len(cands) > debugShortlist {
		cands = cands[:debugShortlist]
	}

	ids := make([]string, 0, len(cands)+len(anchors))
	for _, c := range cands {
		ids = append(ids, c.ProductID)
	}
	ids = append(ids, anchors...)

	avail, err := s.fetchAvailability(ctx, req.Shop, ids)
	if err != nil {
		return nil, err
	}

	limit := settings.EffectiveLimit(req.Limit)
	params := guardrailParams(settings, req.Subtotal, targetPrice(anchors, avail, stats))
	g := NewGuardrails(params, anchors)

	out := make([]domain.DebugCandidate, 0, len(cands))
	accepted := 0
	for _, c := range cands {
		a, ok := avail[c.ProductID]
		dc := domain.DebugCandidate{
			ProductID:       c.ProductID,
			Confidence:      c.Confidence,
			Lift:            c.Lift,
			Popularity:      c.Popularity,
			BaseScore:       c.Score,
			CTRMultiplier:   c.Multiplier,
			FinalScore:      c.FinalScore,
			Price:           a.Price,
			Handle:          normalizeHandle(a.Handle),
			AvailabilitySet: ok,
		}
		if accepted >= limit {
			dc.DroppedBy = "limit"
		} else if reason := g.Admit(a, ok); reason != "" {
			dc.DroppedBy = reason
		} else {
			dc.Accepted = true
			accepted++
		}
		out = append(out, dc)
	}

	return out, nil
}

// Associations lists the strongest product pairs using the slower analysis
// half-life.
func (s *RecommendationService) Associations(ctx context.Context, shop string, limit int) ([]domain.PairAssociation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.orderRepo == nil {
		return nil, fmt.Errorf("order history source not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	settings := s.loadSettings(ctx, shop)
	orders, err := s.orderRepo.RecentOrders(ctx, shop, settings.OrderWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch order history: %w", err)
	}

	stats := Mine(orders, s.opts.Now(), s.opts.AnalysisHalfLifeDays)
	return stats.TopPairs(limit), nil
}

func emptyResult(reason string) domain.RecommendationResult {
	return domain.RecommendationResult{
		Recommendations: []domain.RecommendationItem{},
		Reason:          reason,
	}
}
