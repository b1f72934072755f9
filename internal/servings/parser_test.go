package servings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/foodcost-cli/internal/model"
)

func TestParseServing_SimpleQuantityUnit(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1 cup", Grams: 240})
	require.True(t, ok)
	assert.InDelta(t, 1, p.quantity, 1e-9)
	assert.Equal(t, model.UnitCup, p.unit)
	assert.InDelta(t, 240, p.grams, 1e-9)
}

func TestParseServing_Decimal(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1.5 tbsp", Grams: 21})
	require.True(t, ok)
	assert.InDelta(t, 1.5, p.quantity, 1e-9)
	assert.Equal(t, model.UnitTablespoon, p.unit)
}

func TestParseServing_Fraction(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1/2 cup", Grams: 120})
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.quantity, 1e-9)
	assert.Equal(t, model.UnitCup, p.unit)

	p, ok = parseServing(model.ServingSize{Description: "3/4 tsp", Grams: 4})
	require.True(t, ok)
	assert.InDelta(t, 0.75, p.quantity, 1e-9)
	assert.Equal(t, model.UnitTeaspoon, p.unit)
}

func TestParseServing_ZeroDenominator(t *testing.T) {
	_, ok := parseServing(model.ServingSize{Description: "1/0 cup", Grams: 120})
	assert.False(t, ok)
}

func TestParseServing_MixedNumber(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1 1/2 cups", Grams: 360})
	require.True(t, ok)
	assert.InDelta(t, 1.5, p.quantity, 1e-9)
}

func TestParseServing_DefaultQuantity(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "medium", Grams: 118})
	require.True(t, ok)
	assert.InDelta(t, 1, p.quantity, 1e-9)
	assert.Equal(t, model.UnitEach, p.unit)
}

func TestParseServing_EachBucket(t *testing.T) {
	for _, desc := range []string{"1 medium apple", "1 large egg", "2 pieces", "1 whole chicken", "1 slice"} {
		p, ok := parseServing(model.ServingSize{Description: desc, Grams: 100})
		require.True(t, ok, desc)
		assert.Equal(t, model.UnitEach, p.unit, desc)
	}
}

func TestParseServing_FluidOunceDisambiguation(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1 fl oz", Grams: 30})
	require.True(t, ok)
	assert.Equal(t, model.UnitFluidOunce, p.unit)

	p, ok = parseServing(model.ServingSize{Description: "1 fluid ounce", Grams: 30})
	require.True(t, ok)
	assert.Equal(t, model.UnitFluidOunce, p.unit)

	p, ok = parseServing(model.ServingSize{Description: "1 oz", Grams: 28})
	require.True(t, ok)
	assert.Equal(t, model.UnitOunce, p.unit)
}

func TestParseServing_TrailingQualifier(t *testing.T) {
	p, ok := parseServing(model.ServingSize{Description: "1 cup, sifted", Grams: 110})
	require.True(t, ok)
	assert.Equal(t, model.UnitCup, p.unit)
}

func TestParseServing_Unparseable(t *testing.T) {
	for _, desc := range []string{"", "per container", "100", "0 cup"} {
		_, ok := parseServing(model.ServingSize{Description: desc, Grams: 100})
		assert.False(t, ok, desc)
	}
}

func TestParseServing_ZeroGrams(t *testing.T) {
	_, ok := parseServing(model.ServingSize{Description: "1 cup", Grams: 0})
	assert.False(t, ok)
}

func TestExtract_ProducesGramConversions(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "1 cup", Grams: 240},
		{Description: "1 medium", Grams: 118},
	}
	cs := Extract(sizes, "ing-1", "loc1")
	require.Len(t, cs, 2)

	assert.Equal(t, "ing-1", cs[0].IngredientID)
	assert.Equal(t, model.UnitCup, cs[0].FromUnit)
	assert.Equal(t, model.UnitGram, cs[0].ToUnit)
	assert.InDelta(t, 240, cs[0].ToQuantity, 1e-9)
	assert.Equal(t, model.ConversionSourceNutrition, cs[0].Source)
	assert.Contains(t, cs[0].Note, "1 cup")
}

func TestExtract_DropsWeightToWeight(t *testing.T) {
	// oz to grams is the dimensional table's job; persisting it adds noise.
	sizes := []model.ServingSize{
		{Description: "1 oz", Grams: 28},
		{Description: "100 g", Grams: 100},
		{Description: "1 cup", Grams: 240},
	}
	cs := Extract(sizes, "ing-1", "")
	require.Len(t, cs, 1)
	assert.Equal(t, model.UnitCup, cs[0].FromUnit)
}

func TestExtract_KeepsAllEachEntries(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "1 small", Grams: 90},
		{Description: "1 medium", Grams: 118},
		{Description: "1 large", Grams: 150},
	}
	cs := Extract(sizes, "ing-1", "")
	assert.Len(t, cs, 3)
}

func TestExtract_OneRepresentativePerUnit(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "1 cup", Grams: 240},
		{Description: "1 cup, packed", Grams: 250},
	}
	cs := Extract(sizes, "ing-1", "")
	require.Len(t, cs, 1)
	assert.InDelta(t, 240, cs[0].ToQuantity, 1e-9)
}

func TestExtract_PreferredRepresentativeWins(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "1 cup", Grams: 240},
		{Description: "1 cup, packed", Grams: 250, IsPreferred: true},
	}
	cs := Extract(sizes, "ing-1", "")
	require.Len(t, cs, 1)
	assert.InDelta(t, 250, cs[0].ToQuantity, 1e-9)
}

func TestExtract_RatioBounds(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "1 cup", Grams: 0.001},  // below 0.01
		{Description: "1 tsp", Grams: 50000},  // above 10000
		{Description: "1 tbsp", Grams: 14},
	}
	cs := Extract(sizes, "ing-1", "")
	require.Len(t, cs, 1)
	assert.Equal(t, model.UnitTablespoon, cs[0].FromUnit)
}

func TestExtract_UnparseableSilentlyDropped(t *testing.T) {
	sizes := []model.ServingSize{
		{Description: "per container", Grams: 500},
		{Description: "1 cup", Grams: 240},
	}
	cs := Extract(sizes, "ing-1", "")
	assert.Len(t, cs, 1)
}
