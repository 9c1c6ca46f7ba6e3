package experiment

import (
	"sort"
	"strings"

	"basketReco/domain"

	"github.com/spaolacci/murmur3"
)

// DefaultHashSeed is the golden-ratio constant used when no seed is configured.
const DefaultHashSeed uint32 = 2654435769

const hashSpace = float64(1 << 32)

// Bucketer maps units onto variants with a seeded 32-bit murmur3 hash. It
// holds no state besides the seed, so every process agrees on assignments.
type Bucketer struct {
	seed uint32
}

func NewBucketer(seed uint32) Bucketer {
	return Bucketer{seed: seed}
}

// Fraction hashes "experimentId:unitId:attributionKey" into [0,1).
func (b Bucketer) Fraction(experimentID, unitID, attributionKey string) float64 {
	key := strings.Join([]string{experimentID, unitID, attributionKey}, ":")
	return float64(murmur3.Sum32WithSeed([]byte(key), b.seed)) / hashSpace
}

// Pick selects the variant for a unit of a running experiment.
func (b Bucketer) Pick(exp domain.Experiment, unitID string) (domain.Variant, error) {
	if len(exp.Variants) == 0 {
		return domain.Variant{}, domain.ErrNoVariants
	}
	r := b.Fraction(exp.ID, unitID, attributionKey(exp))
	return pickVariant(orderedVariants(exp.Variants), r), nil
}

// orderedVariants puts control variants first, then sorts by id.
func orderedVariants(vs []domain.Variant) []domain.Variant {
	out := append([]domain.Variant(nil), vs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsControl != out[j].IsControl {
			return out[i].IsControl
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// normalizedWeights turns traffic percentages into a distribution. Negative
// weights count as zero; an all-zero list becomes a uniform split.
func normalizedWeights(vs []domain.Variant) []float64 {
	w := make([]float64, len(vs))
	total := 0.0
	for i, v := range vs {
		if v.TrafficPct > 0 {
			w[i] = v.TrafficPct
			total += v.TrafficPct
		}
	}

	if total <= 0 {
		for i := range w {
			w[i] = 1 / float64(len(w))
		}
		return w
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

// pickVariant walks the ordered variants and returns the first whose
// cumulative weight reaches r. Rounding that leaves r above the final sum
// lands on the last variant.
func pickVariant(ordered []domain.Variant, r float64) domain.Variant {
	weights := normalizedWeights(ordered)
	cum := 0.0
	for i, v := range ordered {
		cum += weights[i]
		if cum >= r && weights[i] > 0 {
			return v
		}
	}
	return ordered[len(ordered)-1]
}

func controlVariant(exp domain.Experiment) (domain.Variant, bool) {
	if len(exp.Variants) == 0 {
		return domain.Variant{}, false
	}
	return orderedVariants(exp.Variants)[0], true
}

func findVariant(exp domain.Experiment, id string) (domain.Variant, bool) {
	for _, v := range exp.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Variant{}, false
}

func attributionKey(exp domain.Experiment) string {
	if exp.AttributionKey == "" {
		return domain.AttributionSession
	}
	return exp.AttributionKey
}

func toAssignment(exp domain.Experiment, v domain.Variant) domain.VariantAssignment {
	return domain.VariantAssignment{
		ExperimentID: exp.ID,
		Variant:      v.Name,
		VariantID:    v.ID,
		Config:       v.Config.Data(),
	}
}
