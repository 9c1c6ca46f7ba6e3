package experiment

import (
	"fmt"
	"testing"

	"basketReco/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variants(pcts ...float64) []domain.Variant {
	out := make([]domain.Variant, 0, len(pcts))
	for i, p := range pcts {
		name := fmt.Sprintf("v%d", i)
		if i == 0 {
			name = "control"
		}
		out = append(out, domain.Variant{ID: fmt.Sprintf("var-%d", i), Name: name, IsControl: i == 0, TrafficPct: p})
	}
	return out
}

func TestPickVariantCumulativeWalk(t *testing.T) {
	vs := orderedVariants(variants(50, 50))

	assert.Equal(t, "control", pickVariant(vs, 0.42).Name)
	assert.Equal(t, "control", pickVariant(vs, 0.5).Name)
	assert.Equal(t, "v1", pickVariant(vs, 0.51).Name)
	assert.Equal(t, "v1", pickVariant(vs, 0.9999999).Name)
	// rounding past the last cumulative weight still lands somewhere
	assert.Equal(t, "v1", pickVariant(vs, 1.5).Name)
}

func TestNormalizedWeights(t *testing.T) {
	assert.Equal(t, []float64{0.7, 0.3}, normalizedWeights(variants(70, 30)))
	assert.Equal(t, []float64{0.5, 0.5}, normalizedWeights(variants(0.2, 0.2)))

	uniform := normalizedWeights(variants(0, 0, 0, 0))
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, uniform)

	assert.Equal(t, []float64{1, 0}, normalizedWeights(variants(10, -5)))
}

func TestOrderedVariantsControlFirst(t *testing.T) {
	vs := []domain.Variant{
		{ID: "c", Name: "c"},
		{ID: "b", Name: "b", IsControl: true},
		{ID: "a", Name: "a"},
	}
	ordered := orderedVariants(vs)

	assert.Equal(t, []string{"b", "a", "c"}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})
	assert.Equal(t, "c", vs[0].ID, "input slice untouched")
}

func TestFractionIsPureAndSeeded(t *testing.T) {
	b := NewBucketer(DefaultHashSeed)

	r1 := b.Fraction("exp-1", "u1", "session")
	r2 := b.Fraction("exp-1", "u1", "session")
	assert.Equal(t, r1, r2)
	assert.GreaterOrEqual(t, r1, 0.0)
	assert.Less(t, r1, 1.0)

	assert.NotEqual(t, r1, b.Fraction("exp-1", "u2", "session"))
	assert.NotEqual(t, r1, b.Fraction("exp-1", "u1", "customer"))
	assert.NotEqual(t, r1, NewBucketer(7).Fraction("exp-1", "u1", "session"))
}

func TestPickStableAcrossCalls(t *testing.T) {
	b := NewBucketer(DefaultHashSeed)
	exp := domain.Experiment{ID: "exp-1", Status: domain.ExperimentRunning, Variants: variants(50, 50)}

	for i := 0; i < 200; i++ {
		unit := fmt.Sprintf("unit-%d", i)
		first, err := b.Pick(exp, unit)
		require.NoError(t, err)

		// variant order in storage must not matter
		reversed := exp
		reversed.Variants = []domain.Variant{exp.Variants[1], exp.Variants[0]}
		again, err := b.Pick(reversed, unit)
		require.NoError(t, err)

		assert.Equal(t, first.ID, again.ID)
	}
}

func TestPickWithoutVariants(t *testing.T) {
	_, err := NewBucketer(1).Pick(domain.Experiment{ID: "x"}, "u")
	assert.ErrorIs(t, err, domain.ErrNoVariants)
}
