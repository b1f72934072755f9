package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/foodcost-cli/internal/catalog"
	"github.com/ladleworks/foodcost-cli/internal/config"
	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

// fakeRepo serves a fixed catalog with no saved mappings or persisted
// conversions.
type fakeRepo struct {
	items []model.CanonicalItem
}

func (f *fakeRepo) GetSavedMapping(context.Context, string, string) (*model.SavedMapping, error) {
	return nil, nil
}

func (f *fakeRepo) ListCanonicalItems(context.Context, string) ([]model.CanonicalItem, error) {
	return f.items, nil
}

func (f *fakeRepo) GetIngredientConversion(context.Context, string, model.Unit, model.Unit, string) (*model.IngredientConversion, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg = &config.Config{}
	cfg.Identity.MaxSuggestions = 5

	repo := &fakeRepo{items: []model.CanonicalItem{
		{ID: "ing-1", LocationID: "loc-1", Kind: model.KindIngredient, Name: "kosher salt"},
		{ID: "ing-2", LocationID: "loc-1", Kind: model.KindIngredient, Name: "smoked paprika"},
	}}
	cat := catalog.Load("")

	env := &engine{
		catalog:  cat,
		identity: identity.NewResolver(repo, nil),
		convert:  convert.NewResolver(repo, cat),
	}
	return buildRouter(env)
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestServe_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_ResolveExactMatch(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/resolve", map[string]any{
		"text":        "Kosher Salt",
		"location_id": "loc-1",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var result model.MatchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.IsMatched)
	assert.Equal(t, "ing-1", result.TargetID)
	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, model.MatchMethodExact, result.Method)
}

func TestServe_ResolveNoMatch(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/resolve", map[string]any{
		"text":        "whole nutmeg",
		"location_id": "loc-1",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var result model.MatchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.IsMatched)
}

func TestServe_ResolveEmptyText(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/resolve", map[string]any{
		"text":        "",
		"location_id": "loc-1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServe_ResolveMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServe_Suggest(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/suggest", map[string]any{
		"text":        "paprika",
		"location_id": "loc-1",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Suggestions []model.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, "ing-2", body.Suggestions[0].ID)
}

func TestServe_SuggestNoCandidates(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/suggest", map[string]any{
		"text":        "xylophone",
		"location_id": "loc-1",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	// An empty result is an empty array, never null.
	assert.Contains(t, rr.Body.String(), `"suggestions":[]`)
}

func TestServe_ConvertDimensional(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/convert", map[string]any{
		"quantity":  2,
		"from_unit": "lb",
		"to_unit":   "g",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Value *float64 `json:"value"`
		Path  string   `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Value)
	assert.InDelta(t, 907.18474, *body.Value, 0.0001)
	assert.Equal(t, "dimensional", body.Path)
}

func TestServe_ConvertNoPath(t *testing.T) {
	router := newTestRouter(t)

	// Count to mass with no ingredient context has no conversion path.
	rr := postJSON(t, router, "/v1/convert", map[string]any{
		"quantity":  3,
		"from_unit": "each",
		"to_unit":   "g",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Value *float64 `json:"value"`
		Path  string   `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Nil(t, body.Value)
	assert.Equal(t, "", body.Path)
}

func TestServe_ConvertUnknownUnit(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/convert", map[string]any{
		"quantity":  1,
		"from_unit": "stone",
		"to_unit":   "g",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServe_ConvertNegativeQuantity(t *testing.T) {
	router := newTestRouter(t)

	rr := postJSON(t, router, "/v1/convert", map[string]any{
		"quantity":  -1,
		"from_unit": "lb",
		"to_unit":   "g",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
