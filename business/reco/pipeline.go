package reco

import (
	"context"

	"basketReco/domain"
	"basketReco/pkg/logger"
)

// pipeline holds the state of one recommendation request as it moves through
// the manual, association and catalog tiers.
type pipeline struct {
	svc      *RecommendationService
	req      domain.RecommendationRequest
	anchors  []string
	settings Settings
	limit    int
	guards   *Guardrails
	items    []domain.RecommendationItem

	upstreamFailed bool
}

func (s *RecommendationService) newPipeline(req domain.RecommendationRequest, anchors []string, settings Settings) *pipeline {
	limit := settings.EffectiveLimit(req.Limit)
	return &pipeline{
		svc:      s,
		req:      req,
		anchors:  anchors,
		settings: settings,
		limit:    limit,
		guards:   NewGuardrails(guardrailParams(settings, req.Subtotal, 0), anchors),
		items:    make([]domain.RecommendationItem, 0, limit),
	}
}

func (p *pipeline) full() bool {
	return len(p.items) >= p.limit
}

func (p *pipeline) fail(ctx context.Context, stage string, err error) {
	p.upstreamFailed = true
	logger.Warn("reco_upstream_failed",
		"trace_id", TraceIDFromContext(ctx),
		"shop", p.req.Shop,
		"stage", stage,
		"error", err,
	)
}

func (p *pipeline) manualTier(ctx context.Context) {
	ids := p.settings.ManualProductIDs
	if len(ids) == 0 {
		return
	}

	avail, err := p.svc.fetchAvailability(ctx, p.req.Shop, ids)
	if err != nil {
		p.fail(ctx, "manual", err)
		return
	}

	for _, id := range ids {
		if p.full() {
			return
		}
		a, ok := avail[id]
		a.ID = id
		if p.guards.AdmitManual(a, ok) == "" {
			p.items = append(p.items, toItem(a, domain.SourceManual))
		}
	}
}

// associationTier reports false when order history or availability could not
// be read, in which case the catalog tier is skipped as well.
func (p *pipeline) associationTier(ctx context.Context) bool {
	cands, stats, err := p.svc.rankAssociations(ctx, p.req.Shop, p.anchors, p.settings)
	if err != nil {
		p.fail(ctx, "association", err)
		return false
	}

	if n := shortlistSize(p.limit); len(cands) > n {
		cands = cands[:n]
	}
	if len(cands) == 0 && !p.settings.CatalogFallback {
		return true
	}

	ids := make([]string, 0, len(cands)+len(p.anchors))
	for _, c := range cands {
		ids = append(ids, c.ProductID)
	}
	ids = append(ids, p.anchors...)

	avail, err := p.svc.fetchAvailability(ctx, p.req.Shop, ids)
	if err != nil {
		p.fail(ctx, "association", err)
		return false
	}
	p.guards.SetTargetPrice(targetPrice(p.anchors, avail, stats))

	for _, c := range cands {
		if p.full() {
			break
		}
		a, ok := avail[c.ProductID]
		a.ID = c.ProductID
		if p.guards.Admit(a, ok) == "" {
			p.items = append(p.items, toItem(a, domain.SourceAssociation))
		}
	}
	return true
}

func (p *pipeline) catalogTier(ctx context.Context) {
	if p.svc.catalogRepo == nil {
		return
	}

	fctx, cancel := context.WithTimeout(ctx, p.svc.opts.UpstreamTimeout)
	ids, err := p.svc.catalogRepo.FindSimilar(fctx, p.req.Shop, p.anchors, p.limit*3)
	cancel()
	if err != nil {
		UpstreamFailuresTotal.WithLabelValues("catalog").Inc()
		p.fail(ctx, "catalog", err)
		return
	}

	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return
	}

	avail, err := p.svc.fetchAvailability(ctx, p.req.Shop, ids)
	if err != nil {
		p.fail(ctx, "catalog", err)
		return
	}

	for _, id := range ids {
		if p.full() {
			return
		}
		a, ok := avail[id]
		a.ID = id
		if p.guards.Admit(a, ok) == "" {
			p.items = append(p.items, toItem(a, domain.SourceCatalog))
		}
	}
}

func (p *pipeline) result() domain.RecommendationResult {
	if len(p.items) == 0 {
		if p.upstreamFailed {
			return emptyResult(domain.ReasonUnavailable)
		}
		return emptyResult(domain.ReasonNoCandidates)
	}

	source := p.items[0].Source
	for _, it := range p.items[1:] {
		if it.Source != source {
			source = ""
			break
		}
	}

	return domain.RecommendationResult{
		Recommendations: p.items,
		Source:          source,
	}
}

func guardrailParams(s Settings, subtotal *float64, target float64) GuardrailParams {
	needed := 0.0
	if s.FreeShippingThreshold > 0 && subtotal != nil && *subtotal < s.FreeShippingThreshold {
		needed = s.FreeShippingThreshold - *subtotal
	}

	return GuardrailParams{
		NeededAmount:       needed,
		ThresholdFilter:    s.ThresholdSuggestions,
		TargetPrice:        target,
		PriceGapEnabled:    s.PriceGapEnabled,
		PriceGapMin:        s.PriceGapMin,
		PriceGapMax:        s.PriceGapMax,
		DiversityStemParts: s.DiversityStemParts,
	}
}

// targetPrice is the median live price of the context products, falling back
// to the last mined unit prices when none are known.
func targetPrice(anchors []string, avail map[string]domain.ProductAvailability, stats *Stats) float64 {
	prices := make([]float64, 0, len(anchors))
	for _, id := range anchors {
		if a, ok := avail[id]; ok && a.Price > 0 {
			prices = append(prices, a.Price)
		}
	}
	if len(prices) == 0 && stats != nil {
		for _, id := range anchors {
			if v, ok := stats.LastPrice(id); ok && v > 0 {
				prices = append(prices, v)
			}
		}
	}
	return median(prices)
}

func shortlistSize(limit int) int {
	n := limit * 4
	if n < 16 {
		n = 16
	}
	if n > maxShortlist {
		n = maxShortlist
	}
	return n
}
