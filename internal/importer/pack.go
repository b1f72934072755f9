package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ladleworks/foodcost-cli/internal/model"
)

// Pack is the parsed form of a vendor pack description: the total quantity
// a case line represents, in a recognized unit.
type Pack struct {
	Quantity float64
	Unit     model.Unit
}

// packRe matches the common distributor pack formats:
//
//	"6/3 LB"   six units of 3 lb each
//	"4/1 GAL"  four one-gallon jugs
//	"50 LB"    a single 50 lb bag
var packRe = regexp.MustCompile(`^\s*(?:(\d+(?:\.\d+)?)\s*/)?\s*(\d+(?:\.\d+)?)\s*([A-Za-z#.]+(?:\s*[Oo][Zz])?)\s*$`)

// ParsePack parses a pack description into a total quantity and unit.
func ParsePack(s string) (Pack, error) {
	m := packRe.FindStringSubmatch(s)
	if m == nil {
		return Pack{}, eris.Errorf("importer: unparseable pack %q", s)
	}

	count := 1.0
	if m[1] != "" {
		c, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Pack{}, eris.Wrapf(err, "importer: pack count in %q", s)
		}
		count = c
	}

	size, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Pack{}, eris.Wrapf(err, "importer: pack size in %q", s)
	}

	unit, ok := model.ParseUnit(m[3])
	if !ok {
		return Pack{}, eris.Errorf("importer: unknown pack unit %q in %q", m[3], s)
	}

	return Pack{Quantity: count * size, Unit: unit}, nil
}

// ParsePrice parses a price cell, tolerating currency symbols and thousands
// separators.
func ParsePrice(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, eris.New("importer: empty price")
	}

	p, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: unparseable price %q", s)
	}
	if p < 0 {
		return 0, eris.Errorf("importer: negative price %q", s)
	}
	return p, nil
}
