// Package store persists the catalog, user mappings, and ingredient
// conversions behind a backend-agnostic interface. Two backends exist:
// SQLite for single-node deployments and Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/ladleworks/foodcost-cli/internal/model"
)

// Store defines the persistence surface for the resolution engine and
// the import pipeline. Lookup methods return (nil, nil) on not-found;
// only infrastructure failures produce errors.
type Store interface {
	// Canonical items
	UpsertCanonicalItem(ctx context.Context, item model.CanonicalItem) (*model.CanonicalItem, error)
	ListCanonicalItems(ctx context.Context, locationID string) ([]model.CanonicalItem, error)

	// Saved mappings (one active target per normalized text + location;
	// saving over an existing text repoints it atomically)
	GetSavedMapping(ctx context.Context, importText, locationID string) (*model.SavedMapping, error)
	SaveMapping(ctx context.Context, m model.SavedMapping) (*model.SavedMapping, error)
	DeleteSavedMapping(ctx context.Context, importText, locationID string) error

	// Global mappings (admin-curated, read-only to the engine)
	GetGlobalMapping(ctx context.Context, importText string) (*model.GlobalMapping, error)
	UpsertGlobalMapping(ctx context.Context, m model.GlobalMapping) error

	// Ingredient conversions (empty locationID = untenanted/global scope)
	GetIngredientConversion(ctx context.Context, ingredientID string, from, to model.Unit, locationID string) (*model.IngredientConversion, error)
	UpsertIngredientConversion(ctx context.Context, c model.IngredientConversion) (*model.IngredientConversion, error)
	ListIngredientConversions(ctx context.Context, ingredientID string) ([]model.IngredientConversion, error)

	// Nutrition lookup cache
	GetCachedNutrition(ctx context.Context, name string) ([]byte, error)
	SetCachedNutrition(ctx context.Context, name string, payload []byte, ttl time.Duration) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
