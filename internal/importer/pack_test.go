package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleworks/foodcost-cli/internal/model"
)

func TestParsePack(t *testing.T) {
	cases := []struct {
		in       string
		quantity float64
		unit     model.Unit
	}{
		{"6/3 LB", 18, model.UnitPound},
		{"4/1 GAL", 4, model.UnitGallon},
		{"50 LB", 50, model.UnitPound},
		{"1/50 lb", 50, model.UnitPound},
		{"12 CT", 12, model.UnitEach},
		{"2/5 kg", 10, model.UnitKilogram},
		{"6/32 FL OZ", 192, model.UnitFluidOunce},
		{"1.5 L", 1.5, model.UnitLiter},
	}
	for _, tc := range cases {
		pack, err := ParsePack(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.quantity, pack.Quantity, 0.001, tc.in)
		assert.Equal(t, tc.unit, pack.Unit, tc.in)
	}
}

func TestParsePack_Invalid(t *testing.T) {
	for _, in := range []string{"", "case", "6/LB", "3 STONES"} {
		_, err := ParsePack(in)
		assert.Error(t, err, in)
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"12.50":     12.50,
		"$12.50":    12.50,
		" $1,218.99": 1218.99,
		"0":         0,
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 0.001, in)
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "call", "-4.00"} {
		_, err := ParsePrice(in)
		assert.Error(t, err, in)
	}
}
