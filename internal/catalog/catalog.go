// Package catalog holds the static reference data for ingredient
// conversions: density profiles per ingredient category and explicit
// standard conversions. The dataset is loaded once at startup and is
// immutable for the process lifetime.
package catalog

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

//go:embed data/conversions.yaml
var defaultDataset []byte

// DensityProfile maps an ingredient category to gram weights per common
// volume unit. Missing figures stay nil and are never interpolated.
type DensityProfile struct {
	Category          string   `yaml:"category"`
	Keywords          []string `yaml:"keywords"`
	GramsPerCup       *float64 `yaml:"grams_per_cup"`
	GramsPerTbsp      *float64 `yaml:"grams_per_tbsp"`
	GramsPerTsp       *float64 `yaml:"grams_per_tsp"`
	GramsPerFluidOz   *float64 `yaml:"grams_per_floz"`
}

// GramsFor returns the profile's gram figure for the given volume unit,
// or ok=false when the profile has no figure for that unit.
func (p DensityProfile) GramsFor(u model.Unit) (float64, bool) {
	var v *float64
	switch u {
	case model.UnitCup:
		v = p.GramsPerCup
	case model.UnitTablespoon:
		v = p.GramsPerTbsp
	case model.UnitTeaspoon:
		v = p.GramsPerTsp
	case model.UnitFluidOunce:
		v = p.GramsPerFluidOz
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// StandardConversion is an explicit keyword-scoped conversion ratio,
// e.g. "1 bunch parsley = 60 g". When several entries match the same
// keyword and unit pair, the default-flagged one wins.
type StandardConversion struct {
	Keywords     []string   `yaml:"keywords"`
	FromQuantity float64    `yaml:"from_quantity"`
	FromUnit     model.Unit `yaml:"from_unit"`
	ToQuantity   float64    `yaml:"to_quantity"`
	ToUnit       model.Unit `yaml:"to_unit"`
	IsDefault    bool       `yaml:"is_default"`
}

type dataset struct {
	DensityProfiles     []DensityProfile     `yaml:"density_profiles"`
	StandardConversions []StandardConversion `yaml:"standard_conversions"`
}

// Catalog offers keyword lookups over the loaded dataset. A Catalog with
// no data is valid: every lookup misses, pushing requests to the
// dimensional table.
type Catalog struct {
	profiles    []DensityProfile
	conversions []StandardConversion
}

// Load reads the dataset from path, or the embedded default when path is
// empty. A missing or corrupt dataset leaves the catalog empty rather than
// blocking startup.
func Load(path string) *Catalog {
	raw := defaultDataset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("catalog: dataset unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err),
			)
			return &Catalog{}
		}
		raw = b
	}

	c, err := parse(raw)
	if err != nil {
		zap.L().Warn("catalog: dataset corrupt, starting empty", zap.Error(err))
		return &Catalog{}
	}

	zap.L().Info("catalog loaded",
		zap.Int("density_profiles", len(c.profiles)),
		zap.Int("standard_conversions", len(c.conversions)),
	)
	return c
}

func parse(raw []byte) (*Catalog, error) {
	var ds dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal dataset")
	}

	// Normalize keywords once at load so lookups stay allocation-free.
	for i := range ds.DensityProfiles {
		for j, kw := range ds.DensityProfiles[i].Keywords {
			ds.DensityProfiles[i].Keywords[j] = normalize.Name(kw)
		}
	}
	for i := range ds.StandardConversions {
		for j, kw := range ds.StandardConversions[i].Keywords {
			ds.StandardConversions[i].Keywords[j] = normalize.Name(kw)
		}
	}

	return &Catalog{
		profiles:    ds.DensityProfiles,
		conversions: ds.StandardConversions,
	}, nil
}

// FindDensityProfile returns the first profile whose keyword set has a
// substring match in name, or nil when none matches.
func (c *Catalog) FindDensityProfile(name string) *DensityProfile {
	n := normalize.Name(name)
	if n == "" {
		return nil
	}
	for i := range c.profiles {
		if keywordMatch(c.profiles[i].Keywords, n) {
			return &c.profiles[i]
		}
	}
	return nil
}

// FindStandardConversions returns all entries with any keyword
// substring-matching name, in dataset order.
func (c *Catalog) FindStandardConversions(name string) []StandardConversion {
	n := normalize.Name(name)
	if n == "" {
		return nil
	}
	var out []StandardConversion
	for _, sc := range c.conversions {
		if keywordMatch(sc.Keywords, n) {
			out = append(out, sc)
		}
	}
	return out
}

func keywordMatch(keywords []string, normalizedName string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(normalizedName, kw) {
			return true
		}
	}
	return false
}
