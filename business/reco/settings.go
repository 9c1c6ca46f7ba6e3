package reco

import (
	"basketReco/domain"
)

const (
	minResults = 1
	maxResults = 12

	defaultMaxResults         = 4
	defaultPriceGapMin        = 0.5
	defaultPriceGapMax        = 2.0
	defaultDiversityStemParts = 2
	defaultOrderWindow        = 500
	maxOrderWindow            = 5000
	defaultSurface            = "recommendations"
)

// Settings is the validated per-request configuration of the pipeline.
// It is resolved once from the settings store and never consulted lazily.
type Settings struct {
	Enabled bool

	// MaxResults is the default limit when the request has none.
	MaxResults int

	// Mode selects which tiers run: manual only, algorithmic only, or
	// manual first with algorithmic fill (hybrid).
	Mode             string
	ManualProductIDs []string

	FreeShippingThreshold float64
	ThresholdSuggestions  bool
	HideWhenThresholdMet  bool

	PriceGapEnabled bool
	PriceGapMin     float64
	PriceGapMax     float64

	DiversityStemParts int
	CatalogFallback    bool
	ClickReranking     bool

	HalfLifeDays      float64
	OrderWindow       int
	CTRWindowDays     int
	ExperimentSurface string

	Scoring ScoreParams
	CTR     CTRParams
}

func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		MaxResults:         defaultMaxResults,
		Mode:               domain.ModeHybrid,
		PriceGapEnabled:    true,
		PriceGapMin:        defaultPriceGapMin,
		PriceGapMax:        defaultPriceGapMax,
		DiversityStemParts: defaultDiversityStemParts,
		CatalogFallback:    true,
		ClickReranking:     true,
		HalfLifeDays:       DefaultMiningHalfLifeDays,
		OrderWindow:        defaultOrderWindow,
		CTRWindowDays:      defaultCTRWindowDays,
		ExperimentSurface:  defaultSurface,
		Scoring:            DefaultScoreParams(),
		CTR:                DefaultCTRParams(),
	}
}

// ResolveSettings overlays a settings row on the defaults and clamps every
// value into its valid range.
func ResolveSettings(defaults Settings, row domain.ShopSettings, found bool) Settings {
	s := defaults
	if !found {
		return s.validated()
	}

	if row.Enabled != nil {
		s.Enabled = *row.Enabled
	}
	if row.MaxResults != 0 {
		s.MaxResults = row.MaxResults
	}
	if row.Mode != "" {
		s.Mode = row.Mode
	}
	if len(row.ManualProductIDs) > 0 {
		s.ManualProductIDs = []string(row.ManualProductIDs)
	}

	s.FreeShippingThreshold = row.FreeShippingThreshold
	s.ThresholdSuggestions = row.ThresholdSuggestions
	s.HideWhenThresholdMet = row.HideWhenThresholdMet

	if row.PriceGapEnabled != nil {
		s.PriceGapEnabled = *row.PriceGapEnabled
	}
	if row.PriceGapMin != 0 {
		s.PriceGapMin = row.PriceGapMin
	}
	if row.PriceGapMax != 0 {
		s.PriceGapMax = row.PriceGapMax
	}
	if row.DiversityStemParts != 0 {
		s.DiversityStemParts = row.DiversityStemParts
	}
	if row.CatalogFallback != nil {
		s.CatalogFallback = *row.CatalogFallback
	}
	if row.ClickReranking != nil {
		s.ClickReranking = *row.ClickReranking
	}
	if row.HalfLifeDays != 0 {
		s.HalfLifeDays = row.HalfLifeDays
	}
	if row.OrderWindow != 0 {
		s.OrderWindow = row.OrderWindow
	}

	if row.LiftWeight != 0 || row.PopularityWeight != 0 {
		s.Scoring.LiftWeight = row.LiftWeight
		s.Scoring.PopularityWeight = row.PopularityWeight
	}
	if row.LiftCap != 0 {
		s.Scoring.LiftCap = row.LiftCap
	}
	if row.PopularityBand != 0 {
		s.Scoring.PopularityBand = row.PopularityBand
	}

	if row.CTRAlpha > 0 {
		s.CTR.Alpha = row.CTRAlpha
	}
	if row.CTRBeta > 0 {
		s.CTR.Beta = row.CTRBeta
	}
	if row.CTRWeight > 0 {
		s.CTR.Weight = row.CTRWeight
	}
	if row.BaselineCTR > 0 {
		s.CTR.Baseline = row.BaselineCTR
	}
	if row.CTRWindowDays != 0 {
		s.CTRWindowDays = row.CTRWindowDays
	}

	return s.validated()
}

// ApplyVariant layers an experiment variant's payload over the settings.
func (s Settings) ApplyVariant(vc domain.VariantConfig) Settings {
	if vc.LiftWeight > 0 || vc.PopularityWeight > 0 {
		lw, pw := vc.LiftWeight, vc.PopularityWeight
		switch {
		case lw > 0 && pw <= 0 && lw <= 1:
			pw = 1 - lw
		case pw > 0 && lw <= 0 && pw <= 1:
			lw = 1 - pw
		}
		s.Scoring.LiftWeight = lw
		s.Scoring.PopularityWeight = pw
	}
	if validMode(vc.Mode) {
		s.Mode = vc.Mode
	}
	if vc.ClickReranking != nil {
		s.ClickReranking = *vc.ClickReranking
	}
	return s.validated()
}

func (s Settings) validated() Settings {
	d := DefaultSettings()

	if s.MaxResults < minResults || s.MaxResults > maxResults {
		s.MaxResults = clampInt(s.MaxResults, minResults, maxResults)
	}
	if !validMode(s.Mode) {
		s.Mode = d.Mode
	}
	s.ManualProductIDs = dedupeIDs(s.ManualProductIDs)

	if s.FreeShippingThreshold < 0 {
		s.FreeShippingThreshold = 0
	}
	if s.PriceGapMin <= 0 || s.PriceGapMax <= s.PriceGapMin {
		s.PriceGapMin = d.PriceGapMin
		s.PriceGapMax = d.PriceGapMax
	}
	if s.DiversityStemParts < 0 {
		s.DiversityStemParts = d.DiversityStemParts
	}
	if s.HalfLifeDays <= 0 {
		s.HalfLifeDays = d.HalfLifeDays
	}
	if s.OrderWindow <= 0 {
		s.OrderWindow = d.OrderWindow
	}
	if s.OrderWindow > maxOrderWindow {
		s.OrderWindow = maxOrderWindow
	}
	if s.CTRWindowDays <= 0 {
		s.CTRWindowDays = d.CTRWindowDays
	}
	if s.ExperimentSurface == "" {
		s.ExperimentSurface = d.ExperimentSurface
	}
	s.Scoring = s.Scoring.sanitized()
	if s.CTR.MultiplierMin <= 0 || s.CTR.MultiplierMax < s.CTR.MultiplierMin {
		s.CTR = d.CTR
	}

	return s
}

// EffectiveLimit picks the request limit or the configured default, bounded.
func (s Settings) EffectiveLimit(requested int) int {
	if requested <= 0 {
		return s.MaxResults
	}
	return clampInt(requested, minResults, maxResults)
}

func validMode(m string) bool {
	switch m {
	case domain.ModeAlgorithmic, domain.ModeManual, domain.ModeHybrid:
		return true
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
