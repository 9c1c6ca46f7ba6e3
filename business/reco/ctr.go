package reco

import "basketReco/domain"

const (
	defaultCTRAlpha      = 1.0
	defaultCTRBeta       = 20.0
	defaultCTRWeight     = 0.35
	defaultBaselineCTR   = 0.05
	defaultMultiplierMin = 0.85
	defaultMultiplierMax = 1.25
	defaultCTRWindowDays = 14
)

// CTRParams controls the bounded click-through re-ranking multiplier.
type CTRParams struct {
	Alpha         float64
	Beta          float64
	Weight        float64
	Baseline      float64
	MultiplierMin float64
	MultiplierMax float64
}

func DefaultCTRParams() CTRParams {
	return CTRParams{
		Alpha:         defaultCTRAlpha,
		Beta:          defaultCTRBeta,
		Weight:        defaultCTRWeight,
		Baseline:      defaultBaselineCTR,
		MultiplierMin: defaultMultiplierMin,
		MultiplierMax: defaultMultiplierMax,
	}
}

// SmoothedCTR is (clicks + alpha) / (impressions + beta).
func SmoothedCTR(stat domain.ClickStat, p CTRParams) float64 {
	denom := float64(stat.Impressions) + p.Beta
	if denom <= 0 {
		return p.Baseline
	}
	clicks := float64(stat.Clicks)
	if clicks < 0 {
		clicks = 0
	}
	return (clicks + p.Alpha) / denom
}

// CTRMultiplier is clamp(1 + W*(ctr - baseline), min, max).
func CTRMultiplier(stat domain.ClickStat, p CTRParams) float64 {
	ctr := SmoothedCTR(stat, p)
	return clamp(1+p.Weight*(ctr-p.Baseline), p.MultiplierMin, p.MultiplierMax)
}

// ApplyClickStats rescales scores by observed CTR and re-sorts. Products
// without click data keep a multiplier of 1.
func ApplyClickStats(cands []Candidate, stats map[string]domain.ClickStat, p CTRParams) {
	if len(stats) == 0 {
		return
	}
	for i := range cands {
		stat, ok := stats[cands[i].ProductID]
		if !ok {
			continue
		}
		cands[i].Multiplier = CTRMultiplier(stat, p)
		cands[i].FinalScore = cands[i].Score * cands[i].Multiplier
	}
	SortCandidates(cands)
}
