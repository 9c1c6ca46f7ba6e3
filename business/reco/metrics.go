package reco

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_requests_total",
			Help: "Recommendation responses by reason code (empty reason means a non-empty list).",
		},
		[]string{"reason"},
	)

	RecommendedItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_items_total",
			Help: "Recommended items served by source tier.",
		},
		[]string{"source"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_result_cache_total",
			Help: "Result cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	UpstreamFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_upstream_failures_total",
			Help: "Failed upstream fetches that degraded a response.",
		},
		[]string{"upstream"},
	)
)

func init() {
	prometheus.MustRegister(
		RecommendationsTotal,
		RecommendedItemsTotal,
		ResultCacheTotal,
		UpstreamFailuresTotal,
	)
}
