package reco

import (
	"sort"
)

const (
	defaultLiftWeight       = 0.6
	defaultPopularityWeight = 0.4
	defaultLiftCap          = 2.0
	defaultPopularityBand   = 0.05
)

// ScoreParams blends lift and popularity into one score.
type ScoreParams struct {
	LiftWeight       float64
	PopularityWeight float64
	LiftCap          float64
	PopularityBand   float64
}

func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		LiftWeight:       defaultLiftWeight,
		PopularityWeight: defaultPopularityWeight,
		LiftCap:          defaultLiftCap,
		PopularityBand:   defaultPopularityBand,
	}
}

// Candidate is a product scored against the anchors of one request.
type Candidate struct {
	ProductID  string
	AnchorID   string
	Confidence float64
	Lift       float64
	Popularity float64
	Score      float64
	Multiplier float64
	FinalScore float64
}

// ScoreCandidates scores every product co-purchased with any anchor.
// Anchors unseen in the window contribute nothing. When a product pairs with
// several anchors the strongest lift wins. Products in exclude are skipped.
func ScoreCandidates(stats *Stats, anchors []string, exclude map[string]struct{}, p ScoreParams) []Candidate {
	if stats == nil {
		return nil
	}
	p = p.sanitized()

	best := make(map[string]Candidate)
	for _, a := range anchors {
		if stats.Appearance(a) <= 0 {
			continue
		}
		for _, b := range stats.Partners(a) {
			if b == a {
				continue
			}
			if _, skip := exclude[b]; skip {
				continue
			}

			c := Candidate{
				ProductID:  b,
				AnchorID:   a,
				Confidence: stats.Confidence(a, b),
				Lift:       stats.Lift(a, b),
			}
			prev, seen := best[b]
			if seen && (prev.Lift > c.Lift || (prev.Lift == c.Lift && prev.Confidence >= c.Confidence)) {
				continue
			}
			best[b] = c
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		liftNorm := clamp(c.Lift, 0, p.LiftCap) / p.LiftCap

		popNorm := 0.0
		if denom := stats.TotalMass() * p.PopularityBand; denom > 0 {
			popNorm = clamp(stats.Appearance(c.ProductID)/denom, 0, 1)
		}

		c.Popularity = popNorm
		c.Score = p.LiftWeight*liftNorm + p.PopularityWeight*popNorm
		c.Multiplier = 1
		c.FinalScore = c.Score
		out = append(out, c)
	}

	SortCandidates(out)
	return out
}

// SortCandidates orders by final score, then raw lift, then lower product id.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].FinalScore != cands[j].FinalScore {
			return cands[i].FinalScore > cands[j].FinalScore
		}
		if cands[i].Lift != cands[j].Lift {
			return cands[i].Lift > cands[j].Lift
		}
		return compareIDs(cands[i].ProductID, cands[j].ProductID) < 0
	})
}

func (p ScoreParams) sanitized() ScoreParams {
	d := DefaultScoreParams()
	if p.LiftWeight < 0 || p.PopularityWeight < 0 || p.LiftWeight+p.PopularityWeight == 0 {
		p.LiftWeight = d.LiftWeight
		p.PopularityWeight = d.PopularityWeight
	}
	if p.LiftCap <= 0 {
		p.LiftCap = d.LiftCap
	}
	if p.PopularityBand <= 0 || p.PopularityBand > 1 {
		p.PopularityBand = d.PopularityBand
	}
	return p
}
