// Package servings turns raw serving-size descriptions from the
// nutrition source ("1 cup", "2 tbsp", "1 medium") into persisted
// ingredient-specific conversions. Unparseable descriptions are dropped,
// not errored: the source is messy by nature.
package servings

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

// quantityRe captures an optional leading quantity: a simple fraction
// ("1/2"), a decimal, or a mixed number ("1 1/2"). The bare-fraction
// alternative comes first: regexp alternation is leftmost-first, and a
// trailing decimal alternative would otherwise swallow the numerator of
// "1/2" and report quantity 1.
var quantityRe = regexp.MustCompile(`^\s*(?:(\d+)\s*/\s*(\d+)|(\d+(?:\.\d+)?)(?:\s+(\d+)\s*/\s*(\d+))?)?\s*`)

// eachWords is the catch-all bucket: size and piece words that mean "one
// of the item" with no standard weight of their own.
var eachWords = map[string]struct{}{
	"small": {}, "medium": {}, "large": {}, "whole": {}, "piece": {},
	"pieces": {}, "each": {}, "serving": {}, "slice": {}, "unit": {},
}

// parsed is one serving description reduced to (quantity, unit, grams).
type parsed struct {
	quantity  float64
	unit      model.Unit
	grams     float64
	preferred bool
	desc      string
}

// Extract parses each serving size into a gram conversion for the given
// ingredient, then applies the usability filters. The returned
// conversions all target grams.
func Extract(sizes []model.ServingSize, ingredientID, locationID string) []model.IngredientConversion {
	var ps []parsed
	for _, ss := range sizes {
		p, ok := parseServing(ss)
		if !ok {
			zap.L().Debug("servings: unparseable description, dropping",
				zap.String("description", ss.Description),
			)
			continue
		}
		ps = append(ps, p)
	}

	ps = filterRedundant(ps)
	ps = filterRatioBounds(ps)
	ps = dedupePerUnit(ps)

	out := make([]model.IngredientConversion, 0, len(ps))
	for _, p := range ps {
		out = append(out, model.IngredientConversion{
			IngredientID: ingredientID,
			LocationID:   locationID,
			FromQuantity: p.quantity,
			FromUnit:     p.unit,
			ToQuantity:   p.grams,
			ToUnit:       model.UnitGram,
			Source:       model.ConversionSourceNutrition,
			Note:         "serving size: " + p.desc,
		})
	}
	return out
}

// parseServing splits a description into quantity and unit. The quantity
// defaults to 1 when absent ("medium" means one medium).
func parseServing(ss model.ServingSize) (parsed, bool) {
	desc := normalize.Name(ss.Description)
	if desc == "" || ss.Grams <= 0 {
		return parsed{}, false
	}

	m := quantityRe.FindStringSubmatch(desc)
	qty := 1.0
	switch {
	case m[1] != "": // bare fraction
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return parsed{}, false
		}
		qty = num / den
	case m[3] != "": // decimal, optionally followed by a fraction
		qty, _ = strconv.ParseFloat(m[3], 64)
		if m[4] != "" {
			num, _ := strconv.ParseFloat(m[4], 64)
			den, _ := strconv.ParseFloat(m[5], 64)
			if den == 0 {
				return parsed{}, false
			}
			qty += num / den // mixed number
		}
	}
	if qty <= 0 {
		return parsed{}, false
	}

	rest := strings.TrimSpace(desc[len(m[0]):])
	unit, ok := parseUnitPhrase(rest)
	if !ok {
		return parsed{}, false
	}

	return parsed{
		quantity:  qty,
		unit:      unit,
		grams:     ss.Grams,
		preferred: ss.IsPreferred,
		desc:      ss.Description,
	}, true
}

// parseUnitPhrase finds the measurement unit inside the remainder of a
// description ("cup, sifted", "fl oz", "medium apple"). "oz" is weight
// unless an adjacent "fl" marks it as fluid.
func parseUnitPhrase(phrase string) (model.Unit, bool) {
	if phrase == "" {
		return "", false
	}
	toks := normalize.Tokens(phrase)

	for i, tok := range toks {
		if tok == "fl" || tok == "fluid" {
			if i+1 < len(toks) && (toks[i+1] == "oz" || strings.HasPrefix(toks[i+1], "ounce")) {
				return model.UnitFluidOunce, true
			}
			continue
		}
		if tok == "oz" || strings.HasPrefix(tok, "ounce") {
			if i > 0 && (toks[i-1] == "fl" || toks[i-1] == "fluid") {
				return model.UnitFluidOunce, true
			}
			return model.UnitOunce, true
		}
		if u, ok := model.ParseUnit(tok); ok {
			return u, true
		}
	}

	for _, tok := range toks {
		if _, ok := eachWords[tok]; ok {
			return model.UnitEach, true
		}
	}
	return "", false
}
