package reco

import (
	"basketReco/domain"
)

const (
	DropDuplicate = "duplicate"
	DropStock     = "stock"
	DropThreshold = "threshold"
	DropPriceGap  = "price_gap"
	DropDiversity = "diversity"
)

type GuardrailParams struct {
	// NeededAmount is the remaining amount to the shipping threshold, 0 if none.
	NeededAmount    float64
	ThresholdFilter bool

	// TargetPrice is the median anchor price, 0 when unknown.
	TargetPrice     float64
	PriceGapEnabled bool
	PriceGapMin     float64
	PriceGapMax     float64

	DiversityStemParts int
}

// Guardrails admits products in order and remembers what it accepted so the
// duplicate and diversity checks see every earlier tier.
type Guardrails struct {
	params GuardrailParams
	ids    map[string]struct{}
	stems  map[string]struct{}
}

func NewGuardrails(p GuardrailParams, contextIDs []string) *Guardrails {
	g := &Guardrails{
		params: p,
		ids:    make(map[string]struct{}),
		stems:  make(map[string]struct{}),
	}
	for _, id := range contextIDs {
		g.ids[id] = struct{}{}
	}
	return g
}

// SetTargetPrice updates the anchor price used by the price-gap filter.
func (g *Guardrails) SetTargetPrice(price float64) {
	g.params.TargetPrice = price
}

// AdmitManual applies the stock and threshold filters only.
func (g *Guardrails) AdmitManual(p domain.ProductAvailability, ok bool) string {
	return g.admit(p, ok, false)
}

// Admit applies stock, threshold, price-gap and diversity filters in order.
func (g *Guardrails) Admit(p domain.ProductAvailability, ok bool) string {
	return g.admit(p, ok, true)
}

func (g *Guardrails) admit(p domain.ProductAvailability, ok bool, full bool) string {
	if _, dup := g.ids[p.ID]; dup {
		return DropDuplicate
	}
	if !ok || !p.Available {
		return DropStock
	}
	if g.params.ThresholdFilter && g.params.NeededAmount > 0 && p.Price < g.params.NeededAmount {
		return DropThreshold
	}

	stem := handleStem(p.Handle, g.params.DiversityStemParts)
	if full {
		if g.params.PriceGapEnabled && g.params.TargetPrice > 0 {
			ratio := p.Price / g.params.TargetPrice
			if ratio < g.params.PriceGapMin || ratio > g.params.PriceGapMax {
				return DropPriceGap
			}
		}
		if stem != "" {
			if _, clash := g.stems[stem]; clash {
				return DropDiversity
			}
		}
	}

	g.ids[p.ID] = struct{}{}
	if stem != "" {
		g.stems[stem] = struct{}{}
	}
	return ""
}

func toItem(p domain.ProductAvailability, source string) domain.RecommendationItem {
	return domain.RecommendationItem{
		ID:     p.ID,
		Title:  p.Title,
		Handle: normalizeHandle(p.Handle),
		Image:  p.Image,
		Price:  p.Price,
		Source: source,
	}
}
