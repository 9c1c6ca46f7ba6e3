package reco

import (
	"math"
	"time"
)

const (
	DefaultMiningHalfLifeDays   = 60.0
	DefaultAnalysisHalfLifeDays = 90.0
)

// DecayWeight maps an event age in days to 2^(-age/halfLife).
// Negative ages count as zero; the result never underflows to 0 so every
// observed event keeps a strictly positive weight.
func DecayWeight(ageDays, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 || math.IsNaN(halfLifeDays) {
		halfLifeDays = DefaultMiningHalfLifeDays
	}
	if ageDays < 0 || math.IsNaN(ageDays) {
		ageDays = 0
	}

	w := math.Exp2(-ageDays / halfLifeDays)
	if w <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return w
}

// AgeInDays returns the fractional age of t relative to now.
func AgeInDays(now, t time.Time) float64 {
	return now.Sub(t).Hours() / 24
}
