package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/foodcost-cli/internal/catalog"
	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

type fakeCatalogRepo struct {
	items       []model.CanonicalItem
	conversions []model.IngredientConversion
}

func (f *fakeCatalogRepo) GetSavedMapping(_ context.Context, _, _ string) (*model.SavedMapping, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListCanonicalItems(_ context.Context, _ string) ([]model.CanonicalItem, error) {
	return f.items, nil
}

func (f *fakeCatalogRepo) GetIngredientConversion(_ context.Context, ingredientID string, from, to model.Unit, locationID string) (*model.IngredientConversion, error) {
	for i := range f.conversions {
		c := f.conversions[i]
		if c.IngredientID == ingredientID && c.FromUnit == from && c.ToUnit == to && c.LocationID == locationID {
			return &c, nil
		}
	}
	return nil, nil
}

func newTestImporter(repo *fakeCatalogRepo) *Importer {
	ir := identity.NewResolver(repo, nil)
	cr := convert.NewResolver(repo, catalog.Load(""))
	return New(ir, cr)
}

func TestRun_MatchedLineGetsUnitCost(t *testing.T) {
	repo := &fakeCatalogRepo{
		items: []model.CanonicalItem{
			{ID: "ing-1", LocationID: "loc-1", Kind: model.KindIngredient, Name: "kosher salt"},
		},
	}
	imp := newTestImporter(repo)

	report, err := imp.Run(context.Background(), []Row{
		{Line: 2, ItemText: "Kosher Salt", PackText: "6/3 LB", Price: "$12.50"},
	}, Options{LocationID: "loc-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Priced)

	line := report.Lines[0]
	require.True(t, line.Match.IsMatched)
	assert.Equal(t, "ing-1", line.Match.TargetID)
	require.NotNil(t, line.CostPerUnit)
	// 18 lb = 8164.66 g; 12.50 / 8164.66 ≈ 0.00153 per gram.
	assert.InDelta(t, 12.50/(18*453.59237), *line.CostPerUnit, 1e-9)
}

func TestRun_UnmatchedLineCarriesSuggestions(t *testing.T) {
	repo := &fakeCatalogRepo{
		items: []model.CanonicalItem{
			{ID: "ing-1", LocationID: "loc-1", Kind: model.KindIngredient, Name: "chipotle peppers in adobo"},
		},
	}
	imp := newTestImporter(repo)

	// One shared significant token out of three scores 65: below the
	// match threshold, above the suggestion floor.
	report, err := imp.Run(context.Background(), []Row{
		{Line: 2, ItemText: "chipotle pepper powder", PackText: "1/5 LB", Price: "30.00"},
	}, Options{LocationID: "loc-1", MaxSuggestions: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Unmatched)
	line := report.Lines[0]
	assert.False(t, line.Match.IsMatched)
	require.NotEmpty(t, line.Suggestions)
	assert.Equal(t, "ing-1", line.Suggestions[0].ID)
}

func TestRun_SkipsUnparseableRows(t *testing.T) {
	imp := newTestImporter(&fakeCatalogRepo{})

	report, err := imp.Run(context.Background(), []Row{
		{Line: 2, ItemText: "", PackText: "6/3 LB", Price: "1.00"},
		{Line: 3, ItemText: "Flour", PackText: "one bag", Price: "1.00"},
		{Line: 4, ItemText: "Flour", PackText: "50 LB", Price: "call"},
	}, Options{LocationID: "loc-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Skipped)
	for _, line := range report.Lines {
		assert.NotEmpty(t, line.SkipReason)
	}
}

func TestRun_MatchedWithoutConversionPathStaysUnpriced(t *testing.T) {
	repo := &fakeCatalogRepo{
		items: []model.CanonicalItem{
			{ID: "ing-1", LocationID: "loc-1", Kind: model.KindIngredient, Name: "bamboo skewers"},
		},
	}
	imp := newTestImporter(repo)

	// Count to mass with no density profile, no standard conversion, and
	// no persisted override.
	report, err := imp.Run(context.Background(), []Row{
		{Line: 2, ItemText: "Bamboo Skewers", PackText: "100 CT", Price: "4.99"},
	}, Options{LocationID: "loc-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 0, report.Priced)
	assert.Nil(t, report.Lines[0].CostPerUnit)
}

func TestRun_IngredientOverrideDrivesCost(t *testing.T) {
	repo := &fakeCatalogRepo{
		items: []model.CanonicalItem{
			{ID: "ing-avo", LocationID: "loc-1", Kind: model.KindIngredient, Name: "avocado"},
		},
		conversions: []model.IngredientConversion{
			{IngredientID: "ing-avo", FromQuantity: 1, FromUnit: model.UnitEach, ToQuantity: 200, ToUnit: model.UnitGram, Source: model.ConversionSourceUser},
		},
	}
	imp := newTestImporter(repo)

	report, err := imp.Run(context.Background(), []Row{
		{Line: 2, ItemText: "Avocado", PackText: "48 CT", Price: "48.00"},
	}, Options{LocationID: "loc-1"})
	require.NoError(t, err)

	line := report.Lines[0]
	require.NotNil(t, line.CostPerUnit)
	// 48 each = 9600 g; $48 / 9600 g.
	assert.InDelta(t, 0.005, *line.CostPerUnit, 1e-9)
}

func TestRun_PreservesRowOrder(t *testing.T) {
	repo := &fakeCatalogRepo{
		items: []model.CanonicalItem{
			{ID: "ing-1", LocationID: "loc-1", Kind: model.KindIngredient, Name: "kosher salt"},
		},
	}
	imp := newTestImporter(repo)

	rows := make([]Row, 20)
	for i := range rows {
		rows[i] = Row{Line: i + 2, ItemText: "kosher salt", PackText: "1/3 LB", Price: "4.00"}
	}

	report, err := imp.Run(context.Background(), rows, Options{LocationID: "loc-1", Workers: 4})
	require.NoError(t, err)
	require.Len(t, report.Lines, 20)
	for i, line := range report.Lines {
		assert.Equal(t, i+2, line.Row.Line)
	}
}

func TestMapColumns(t *testing.T) {
	item, pack, price, ok := MapColumns([]string{"Item Description", "Pack Size", "Case Price"})
	require.True(t, ok)
	assert.Equal(t, 0, item)
	assert.Equal(t, 1, pack)
	assert.Equal(t, 2, price)

	_, _, _, ok = MapColumns([]string{"SKU", "Brand"})
	assert.False(t, ok)
}

func TestRowsFromRecords(t *testing.T) {
	rows := RowsFromRecords([][]string{
		{"Kosher Salt", "6/3 LB", "12.50"},
		{"Short Row"},
	}, 0, 1, 2, 1)

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "6/3 LB", rows[0].PackText)
	assert.Equal(t, "", rows[1].PackText)
}
