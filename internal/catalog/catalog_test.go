package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/foodcost-cli/internal/model"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	c := Load("")
	require.NotNil(t, c)
	assert.NotEmpty(t, c.profiles)
	assert.NotEmpty(t, c.conversions)
}

func TestLoad_MissingFile_Empty(t *testing.T) {
	c := Load("/nonexistent/conversions.yaml")
	require.NotNil(t, c)
	assert.Nil(t, c.FindDensityProfile("flour"))
	assert.Empty(t, c.FindStandardConversions("garlic"))
}

func TestParse_Corrupt_Error(t *testing.T) {
	_, err := parse([]byte("density_profiles: {not: [a, list"))
	assert.Error(t, err)
}

func TestFindDensityProfile_KeywordSubstring(t *testing.T) {
	c := Load("")
	p := c.FindDensityProfile("All-Purpose Flour")
	require.NotNil(t, p)
	assert.Equal(t, "flour", p.Category)
}

func TestFindDensityProfile_CaseInsensitive(t *testing.T) {
	c := Load("")
	require.NotNil(t, c.FindDensityProfile("KOSHER SALT"))
}

func TestFindDensityProfile_NoMatch(t *testing.T) {
	c := Load("")
	assert.Nil(t, c.FindDensityProfile("granite"))
	assert.Nil(t, c.FindDensityProfile(""))
}

func TestFindDensityProfile_FirstWins(t *testing.T) {
	c, err := parse([]byte(`
density_profiles:
  - category: first
    keywords: [flour]
    grams_per_cup: 100
  - category: second
    keywords: [flour]
    grams_per_cup: 999
`))
	require.NoError(t, err)
	p := c.FindDensityProfile("bread flour")
	require.NotNil(t, p)
	assert.Equal(t, "first", p.Category)
}

func TestDensityProfile_GramsFor(t *testing.T) {
	c := Load("")
	p := c.FindDensityProfile("flour")
	require.NotNil(t, p)

	g, ok := p.GramsFor(model.UnitCup)
	assert.True(t, ok)
	assert.InDelta(t, 120, g, 1e-9)

	// Flour profile carries no fluid-ounce figure: no match, no guess.
	_, ok = p.GramsFor(model.UnitFluidOunce)
	assert.False(t, ok)
}

func TestFindStandardConversions_AllMatches(t *testing.T) {
	c := Load("")
	scs := c.FindStandardConversions("garlic cloves, peeled")
	require.Len(t, scs, 2)
	assert.True(t, scs[0].IsDefault)
}

func TestFindStandardConversions_Empty(t *testing.T) {
	c := Load("")
	assert.Empty(t, c.FindStandardConversions("granite"))
}
