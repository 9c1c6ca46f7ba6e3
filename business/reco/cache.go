package reco

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"basketReco/domain"
	"basketReco/pkg/logger"

	"github.com/goccy/go-json"
)

const cacheKeyPrefix = "reco:v1:"

// cacheKey hashes every request input that can change the response. Cart
// order is irrelevant to the result, so the ids are sorted first.
func cacheKey(req domain.RecommendationRequest, variantID string) string {
	cart := dedupeIDs(req.CartIDs)
	sort.Slice(cart, func(i, j int) bool { return compareIDs(cart[i], cart[j]) < 0 })

	subtotal := "-"
	if req.Subtotal != nil {
		subtotal = strconv.FormatFloat(*req.Subtotal, 'f', 2, 64)
	}

	raw := strings.Join([]string{
		req.Shop,
		strings.TrimSpace(req.AnchorID),
		strings.Join(cart, ","),
		strconv.Itoa(req.Limit),
		subtotal,
		variantID,
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (s *RecommendationService) cachedResult(ctx context.Context, key string) (domain.RecommendationResult, bool) {
	if s.cache == nil {
		return domain.RecommendationResult{}, false
	}

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("reco_cache_get_failed", "trace_id", TraceIDFromContext(ctx), "error", err)
		return domain.RecommendationResult{}, false
	}
	if !ok {
		return domain.RecommendationResult{}, false
	}

	var res domain.RecommendationResult
	if err := json.Unmarshal(data, &res); err != nil {
		logger.Warn("reco_cache_decode_failed", "trace_id", TraceIDFromContext(ctx), "error", err)
		return domain.RecommendationResult{}, false
	}
	if res.Recommendations == nil {
		res.Recommendations = []domain.RecommendationItem{}
	}
	res.Cached = true
	return res, true
}

func (s *RecommendationService) storeResult(ctx context.Context, key string, res domain.RecommendationResult) {
	if s.cache == nil {
		return
	}

	res.Cached = false
	data, err := json.Marshal(res)
	if err != nil {
		logger.Warn("reco_cache_encode_failed", "trace_id", TraceIDFromContext(ctx), "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		logger.Warn("reco_cache_set_failed", "trace_id", TraceIDFromContext(ctx), "error", err)
	}
}
