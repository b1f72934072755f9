package convert

import "github.com/ladleworks/foodcost-cli/internal/model"

// toBase maps each unit to its ratio against the dimension's base unit:
// gram for mass, milliliter for volume, each for count. Mass and volume
// figures are the exact US customary definitions.
var toBase = map[model.Unit]float64{
	// mass (base = g)
	model.UnitGram:     1,
	model.UnitKilogram: 1000,
	model.UnitOunce:    28.349523125,
	model.UnitPound:    453.59237,

	// volume (base = ml)
	model.UnitMilliliter: 1,
	model.UnitLiter:      1000,
	model.UnitTeaspoon:   4.92892159375,
	model.UnitTablespoon: 14.78676478125,
	model.UnitFluidOunce: 29.5735295625,
	model.UnitCup:        236.5882365,
	model.UnitPint:       473.176473,
	model.UnitQuart:      946.352946,
	model.UnitGallon:     3785.411784,

	// count (base = each)
	model.UnitEach:  1,
	model.UnitDozen: 12,
}

// dimensional converts a quantity between two units of the same dimension
// through the base unit. It never crosses dimensions: that requires
// ingredient density and is the catalog layer's job.
func dimensional(quantity float64, from, to model.Unit) (float64, bool) {
	if from.Dimension() == model.DimensionNone || from.Dimension() != to.Dimension() {
		return 0, false
	}
	fromRatio, ok := toBase[from]
	if !ok {
		return 0, false
	}
	toRatio, ok := toBase[to]
	if !ok {
		return 0, false
	}
	return quantity * fromRatio / toRatio, true
}

// gramsOf converts a mass quantity to grams via the dimensional table.
func gramsOf(quantity float64, u model.Unit) (float64, bool) {
	return dimensional(quantity, u, model.UnitGram)
}
