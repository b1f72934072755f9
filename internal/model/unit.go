package model

import "strings"

// Unit is a measurement unit known to the conversion engine.
type Unit string

const (
	// Mass
	UnitGram     Unit = "g"
	UnitKilogram Unit = "kg"
	UnitOunce    Unit = "oz"
	UnitPound    Unit = "lb"

	// Volume
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
	UnitFluidOunce Unit = "floz"
	UnitCup        Unit = "cup"
	UnitPint       Unit = "pt"
	UnitQuart      Unit = "qt"
	UnitGallon     Unit = "gal"

	// Count
	UnitEach  Unit = "each"
	UnitDozen Unit = "dozen"
)

// Dimension classifies units by the physical quantity they measure.
// Cross-dimension conversion requires ingredient density and is never
// handled by the dimensional table alone.
type Dimension string

const (
	DimensionMass   Dimension = "mass"
	DimensionVolume Dimension = "volume"
	DimensionCount  Dimension = "count"
	DimensionNone   Dimension = ""
)

// unitDims maps each known unit to its dimension.
var unitDims = map[Unit]Dimension{
	UnitGram:       DimensionMass,
	UnitKilogram:   DimensionMass,
	UnitOunce:      DimensionMass,
	UnitPound:      DimensionMass,
	UnitMilliliter: DimensionVolume,
	UnitLiter:      DimensionVolume,
	UnitTeaspoon:   DimensionVolume,
	UnitTablespoon: DimensionVolume,
	UnitFluidOunce: DimensionVolume,
	UnitCup:        DimensionVolume,
	UnitPint:       DimensionVolume,
	UnitQuart:      DimensionVolume,
	UnitGallon:     DimensionVolume,
	UnitEach:       DimensionCount,
	UnitDozen:      DimensionCount,
}

// Dimension returns the unit's dimension, or DimensionNone for unknown units.
func (u Unit) Dimension() Dimension {
	return unitDims[u]
}

// Known reports whether the unit is in the dimensional table.
func (u Unit) Known() bool {
	_, ok := unitDims[u]
	return ok
}

// unitSynonyms maps spelled-out and abbreviated forms to canonical units.
// Keys are lowercase with no trailing periods.
var unitSynonyms = map[string]Unit{
	"g": UnitGram, "gram": UnitGram, "grams": UnitGram, "gr": UnitGram,
	"kg": UnitKilogram, "kilogram": UnitKilogram, "kilograms": UnitKilogram,
	"oz": UnitOunce, "ounce": UnitOunce, "ounces": UnitOunce,
	"lb": UnitPound, "lbs": UnitPound, "pound": UnitPound, "pounds": UnitPound, "#": UnitPound,
	"ml": UnitMilliliter, "milliliter": UnitMilliliter, "milliliters": UnitMilliliter, "millilitre": UnitMilliliter, "millilitres": UnitMilliliter,
	"l": UnitLiter, "liter": UnitLiter, "liters": UnitLiter, "litre": UnitLiter, "litres": UnitLiter,
	"tsp": UnitTeaspoon, "teaspoon": UnitTeaspoon, "teaspoons": UnitTeaspoon, "t": UnitTeaspoon,
	"tbsp": UnitTablespoon, "tbs": UnitTablespoon, "tablespoon": UnitTablespoon, "tablespoons": UnitTablespoon,
	"floz": UnitFluidOunce, "fl oz": UnitFluidOunce, "fl. oz": UnitFluidOunce, "fluid ounce": UnitFluidOunce, "fluid ounces": UnitFluidOunce,
	"cup": UnitCup, "cups": UnitCup, "c": UnitCup,
	"pt": UnitPint, "pint": UnitPint, "pints": UnitPint,
	"qt": UnitQuart, "quart": UnitQuart, "quarts": UnitQuart,
	"gal": UnitGallon, "gallon": UnitGallon, "gallons": UnitGallon,
	"each": UnitEach, "ea": UnitEach, "piece": UnitEach, "pieces": UnitEach, "pc": UnitEach, "whole": UnitEach, "ct": UnitEach, "count": UnitEach,
	"dozen": UnitDozen, "doz": UnitDozen, "dz": UnitDozen,
}

// ParseUnit resolves a free-text unit string to a canonical Unit.
// Returns ok=false for unrecognized text.
func ParseUnit(s string) (Unit, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, ".")
	u, ok := unitSynonyms[key]
	return u, ok
}
