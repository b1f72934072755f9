package model

// ItemKind distinguishes the two kinds of canonical catalog entries an
// import line can resolve to.
type ItemKind string

const (
	KindIngredient ItemKind = "ingredient"
	KindRecipe     ItemKind = "recipe"
)

// CanonicalItem is an ingredient or recipe as known to the catalog.
// Owned by the persistence layer; the resolution engine only reads it.
type CanonicalItem struct {
	ID         string   `json:"id"`
	LocationID string   `json:"location_id"`
	Kind       ItemKind `json:"kind"`
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Category   string   `json:"category,omitempty"`
}
