package reco

import (
	"sort"
	"time"

	"basketReco/domain"
)

// Stats holds decayed appearance and co-occurrence masses mined from one
// order window. It is built per request and never mutated afterwards.
//
// Every order adds its weight once to each distinct product it contains.
// Pair masses only come from orders with at least two distinct products.
type Stats struct {
	appearance map[string]float64
	co         map[string]map[string]float64
	totalMass  float64
	lastPrice  map[string]pricePoint
	orders     int
}

type pricePoint struct {
	price float64
	at    time.Time
}

// Mine builds Stats from the order window using the given half-life.
func Mine(orders []domain.HistoricalOrder, now time.Time, halfLifeDays float64) *Stats {
	s := &Stats{
		appearance: make(map[string]float64),
		co:         make(map[string]map[string]float64),
		lastPrice:  make(map[string]pricePoint),
	}

	for _, o := range orders {
		ids := s.distinctProducts(o)
		if len(ids) == 0 {
			continue
		}
		s.orders++

		w := DecayWeight(AgeInDays(now, o.CreatedAt), halfLifeDays)
		for _, id := range ids {
			s.appearance[id] += w
			s.totalMass += w
		}

		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				s.addPair(ids[i], ids[j], w)
				s.addPair(ids[j], ids[i], w)
			}
		}
	}

	return s
}

func (s *Stats) distinctProducts(o domain.HistoricalOrder) []string {
	seen := make(map[string]struct{}, len(o.Lines))
	ids := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.ProductID == "" {
			continue
		}
		if line.UnitPrice > 0 {
			if pp, ok := s.lastPrice[line.ProductID]; !ok || o.CreatedAt.After(pp.at) {
				s.lastPrice[line.ProductID] = pricePoint{price: line.UnitPrice, at: o.CreatedAt}
			}
		}
		if _, dup := seen[line.ProductID]; dup {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

func (s *Stats) addPair(a, b string, w float64) {
	m, ok := s.co[a]
	if !ok {
		m = make(map[string]float64)
		s.co[a] = m
	}
	m[b] += w
}

func (s *Stats) Orders() int {
	return s.orders
}

func (s *Stats) TotalMass() float64 {
	return s.totalMass
}

func (s *Stats) Appearance(id string) float64 {
	return s.appearance[id]
}

func (s *Stats) CoOccurrence(a, b string) float64 {
	return s.co[a][b]
}

// LastPrice is the unit price seen on the most recent order containing id.
func (s *Stats) LastPrice(id string) (float64, bool) {
	pp, ok := s.lastPrice[id]
	return pp.price, ok
}

// Partners lists products co-purchased with a, sorted for determinism.
func (s *Stats) Partners(a string) []string {
	m := s.co[a]
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return compareIDs(out[i], out[j]) < 0 })
	return out
}

// Confidence is coMass(a,b) / appearance(a), bounded to [0,1].
func (s *Stats) Confidence(a, b string) float64 {
	app := s.appearance[a]
	if app <= 0 {
		return 0
	}
	return clamp(s.co[a][b]/app, 0, 1)
}

// Probability is appearance(b) / totalMass.
func (s *Stats) Probability(b string) float64 {
	if s.totalMass <= 0 {
		return 0
	}
	p := s.appearance[b] / s.totalMass
	if p < 0 {
		return 0
	}
	return p
}

// Lift is confidence(a,b) / probability(b), 0 when probability(b) is 0.
func (s *Stats) Lift(a, b string) float64 {
	p := s.Probability(b)
	if p <= 0 {
		return 0
	}
	return s.Confidence(a, b) / p
}

// TopPairs returns directional pairs ordered by lift, then co-occurrence mass.
func (s *Stats) TopPairs(limit int) []domain.PairAssociation {
	pairs := make([]domain.PairAssociation, 0)
	for a, m := range s.co {
		for b, mass := range m {
			pairs = append(pairs, domain.PairAssociation{
				AnchorID:    a,
				CandidateID: b,
				CoMass:      mass,
				Confidence:  s.Confidence(a, b),
				Lift:        s.Lift(a, b),
			})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Lift != pairs[j].Lift {
			return pairs[i].Lift > pairs[j].Lift
		}
		if pairs[i].CoMass != pairs[j].CoMass {
			return pairs[i].CoMass > pairs[j].CoMass
		}
		if c := compareIDs(pairs[i].AnchorID, pairs[j].AnchorID); c != 0 {
			return c < 0
		}
		return compareIDs(pairs[i].CandidateID, pairs[j].CandidateID) < 0
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
