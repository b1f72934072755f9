package model

import "time"

// ConversionSource records where an ingredient-specific conversion came from.
type ConversionSource string

const (
	ConversionSourceUser      ConversionSource = "user"
	ConversionSourceNutrition ConversionSource = "nutrition"
)

// IngredientConversion is a persisted, ingredient-specific conversion ratio.
// It is the only layer that knows, e.g., that "1 each" of a particular
// ingredient weighs 42 g rather than some generic "each".
type IngredientConversion struct {
	ID           string           `json:"id"`
	IngredientID string           `json:"ingredient_id,omitempty"`
	LocationID   string           `json:"location_id,omitempty"`
	FromQuantity float64          `json:"from_quantity"`
	FromUnit     Unit             `json:"from_unit"`
	ToQuantity   float64          `json:"to_quantity"`
	ToUnit       Unit             `json:"to_unit"`
	Source       ConversionSource `json:"source"`
	Note         string           `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Ratio returns toQuantity/fromQuantity, the multiplier applied to a
// quantity expressed in FromUnit to obtain ToUnit.
func (c IngredientConversion) Ratio() float64 {
	if c.FromQuantity == 0 {
		return 0
	}
	return c.ToQuantity / c.FromQuantity
}

// ServingSize is a raw serving description from the nutrition source,
// e.g. {"1 cup", 240 g}. Transformed into IngredientConversions by the
// serving size parser.
type ServingSize struct {
	Description string  `json:"description"`
	Grams       float64 `json:"grams"`
	IsPreferred bool    `json:"is_preferred"`
}
