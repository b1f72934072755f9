package servings

import "github.com/ladleworks/foodcost-cli/internal/model"

// Ratio bounds outside which a parsed conversion is presumed to be a
// parsing error rather than real data.
const (
	minRatio = 0.01
	maxRatio = 10000
)

// filterRedundant drops conversions the dimensional table already
// answers (weight to grams is a fixed ratio, no ingredient data needed).
// "Each" conversions are always kept: no generic table can know an
// item's per-unit weight.
func filterRedundant(ps []parsed) []parsed {
	out := ps[:0]
	for _, p := range ps {
		if p.unit != model.UnitEach && p.unit.Dimension() == model.DimensionMass {
			continue
		}
		out = append(out, p)
	}
	return out
}

// filterRatioBounds drops conversions whose grams-per-unit ratio is
// implausible.
func filterRatioBounds(ps []parsed) []parsed {
	out := ps[:0]
	for _, p := range ps {
		ratio := p.grams / p.quantity
		if ratio < minRatio || ratio > maxRatio {
			continue
		}
		out = append(out, p)
	}
	return out
}

// dedupePerUnit keeps every "each" entry (small/medium/large are all
// useful) but only one representative per other unit, preferring the
// source-flagged preferred serving.
func dedupePerUnit(ps []parsed) []parsed {
	chosen := make(map[model.Unit]int)
	var out []parsed
	for _, p := range ps {
		if p.unit == model.UnitEach {
			out = append(out, p)
			continue
		}
		if idx, ok := chosen[p.unit]; ok {
			if p.preferred && !out[idx].preferred {
				out[idx] = p
			}
			continue
		}
		out = append(out, p)
		chosen[p.unit] = len(out) - 1
	}
	return out
}
