// Package convert resolves quantity conversions between units through
// three fallback layers: persisted ingredient-specific overrides, the
// static catalog (density profiles and keyword conversions), and the
// pure dimensional table. A nil result means "no conversion path", which
// callers must never read as zero.
package convert

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/catalog"
	"github.com/ladleworks/foodcost-cli/internal/model"
)

// Path identifies which layer answered (or would answer) a conversion.
type Path string

const (
	PathNone       Path = ""
	PathIdentity   Path = "identity"
	PathIngredient Path = "ingredient"
	PathDensity    Path = "density"
	PathStandard   Path = "standard"
	PathDimension  Path = "dimensional"
)

// ErrNegativeQuantity rejects malformed input before any layer runs.
var ErrNegativeQuantity = eris.New("convert: negative quantity")

// Repository is the persistence surface for ingredient-specific
// conversions. An empty locationID queries the untenanted global scope.
type Repository interface {
	GetIngredientConversion(ctx context.Context, ingredientID string, from, to model.Unit, locationID string) (*model.IngredientConversion, error)
}

// Request describes one conversion. IngredientID enables the persisted
// override layer; IngredientName enables the catalog layer; both are
// optional and independent.
type Request struct {
	Quantity       float64
	FromUnit       model.Unit
	ToUnit         model.Unit
	IngredientID   string
	IngredientName string
	LocationID     string
}

// Resolver performs layered conversions. Stateless over its injected
// collaborators; safe for concurrent use.
type Resolver struct {
	repo Repository
	cat  *catalog.Catalog
}

// NewResolver creates a Resolver. repo may be nil when no persisted
// conversions exist; cat may be empty but not nil.
func NewResolver(repo Repository, cat *catalog.Catalog) *Resolver {
	return &Resolver{repo: repo, cat: cat}
}

// Convert resolves the request to a quantity in ToUnit, or nil when no
// layer can answer. Collaborator failures degrade to the next layer.
func (r *Resolver) Convert(ctx context.Context, req Request) (*float64, error) {
	v, _, err := r.resolve(ctx, req)
	return v, err
}

// CanConvert reports whether any layer can answer the request.
func (r *Resolver) CanConvert(ctx context.Context, req Request) (bool, error) {
	_, path, err := r.resolve(ctx, req)
	return path != PathNone, err
}

// Explain returns the layer that would answer the request, without
// committing the caller to the numeric result.
func (r *Resolver) Explain(ctx context.Context, req Request) (Path, error) {
	_, path, err := r.resolve(ctx, req)
	return path, err
}

func (r *Resolver) resolve(ctx context.Context, req Request) (*float64, Path, error) {
	if req.Quantity < 0 {
		return nil, PathNone, ErrNegativeQuantity
	}

	// Same unit: identity, regardless of ingredient context.
	if req.FromUnit == req.ToUnit {
		v := req.Quantity
		return &v, PathIdentity, nil
	}

	// Layer 1: persisted ingredient-specific override. Location-scoped
	// entries shadow global ones.
	if v, ok := r.ingredientLayer(ctx, req); ok {
		return &v, PathIngredient, nil
	}

	// Layer 2: catalog-derived, only with an ingredient name to key on.
	if req.IngredientName != "" {
		if v, ok := r.densityLayer(req); ok {
			return &v, PathDensity, nil
		}
		if v, ok := r.standardLayer(req); ok {
			return &v, PathStandard, nil
		}
	}

	// Layer 3: same-dimension conversion through the base unit.
	if v, ok := dimensional(req.Quantity, req.FromUnit, req.ToUnit); ok {
		return &v, PathDimension, nil
	}

	return nil, PathNone, nil
}

func (r *Resolver) ingredientLayer(ctx context.Context, req Request) (float64, bool) {
	if r.repo == nil || req.IngredientID == "" {
		return 0, false
	}

	ic, err := r.lookupConversion(ctx, req)
	if err != nil {
		zap.L().Warn("convert: ingredient conversion lookup failed, falling through",
			zap.String("ingredient", req.IngredientID),
			zap.Error(err),
		)
		return 0, false
	}
	if ic == nil || ic.FromQuantity == 0 {
		return 0, false
	}
	return req.Quantity * ic.Ratio(), true
}

func (r *Resolver) lookupConversion(ctx context.Context, req Request) (*model.IngredientConversion, error) {
	if req.LocationID != "" {
		ic, err := r.repo.GetIngredientConversion(ctx, req.IngredientID, req.FromUnit, req.ToUnit, req.LocationID)
		if err != nil {
			return nil, err
		}
		if ic != nil {
			return ic, nil
		}
	}
	return r.repo.GetIngredientConversion(ctx, req.IngredientID, req.FromUnit, req.ToUnit, "")
}

// densityLayer bridges volume and weight through grams using the
// ingredient's density profile. The profile must carry a gram figure for
// the specific volume unit involved; missing figures are never guessed.
func (r *Resolver) densityLayer(req Request) (float64, bool) {
	fromDim, toDim := req.FromUnit.Dimension(), req.ToUnit.Dimension()
	volumeToMass := fromDim == model.DimensionVolume && toDim == model.DimensionMass
	massToVolume := fromDim == model.DimensionMass && toDim == model.DimensionVolume
	if !volumeToMass && !massToVolume {
		return 0, false
	}

	profile := r.cat.FindDensityProfile(req.IngredientName)
	if profile == nil {
		return 0, false
	}

	if volumeToMass {
		gramsPerUnit, ok := profile.GramsFor(req.FromUnit)
		if !ok {
			return 0, false
		}
		grams := req.Quantity * gramsPerUnit
		return dimensional(grams, model.UnitGram, req.ToUnit)
	}

	gramsPerUnit, ok := profile.GramsFor(req.ToUnit)
	if !ok {
		return 0, false
	}
	grams, ok := gramsOf(req.Quantity, req.FromUnit)
	if !ok {
		return 0, false
	}
	return grams / gramsPerUnit, true
}

// standardLayer applies a keyword-matched standard conversion whose unit
// pair matches the request in either direction. A default-flagged entry
// wins over earlier non-defaults.
func (r *Resolver) standardLayer(req Request) (float64, bool) {
	matches := r.cat.FindStandardConversions(req.IngredientName)
	if len(matches) == 0 {
		return 0, false
	}

	var chosen *catalog.StandardConversion
	var inverse bool
	for i := range matches {
		sc := &matches[i]
		var dir bool
		switch {
		case sc.FromUnit == req.FromUnit && sc.ToUnit == req.ToUnit:
			dir = false
		case sc.FromUnit == req.ToUnit && sc.ToUnit == req.FromUnit:
			dir = true
		default:
			continue
		}
		if chosen == nil || (sc.IsDefault && !chosen.IsDefault) {
			chosen = sc
			inverse = dir
		}
	}
	if chosen == nil || chosen.FromQuantity == 0 || chosen.ToQuantity == 0 {
		return 0, false
	}

	ratio := chosen.ToQuantity / chosen.FromQuantity
	if inverse {
		ratio = chosen.FromQuantity / chosen.ToQuantity
	}
	return req.Quantity * ratio, true
}
