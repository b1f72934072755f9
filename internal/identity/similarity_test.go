package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0, Score("", "flour"))
	assert.Equal(t, 0, Score("flour", ""))
}

func TestScore_Containment(t *testing.T) {
	assert.Equal(t, 85, Score("flour", "all-purpose flour"))
	assert.Equal(t, 85, Score("all-purpose flour bleached", "all-purpose flour"))
}

func TestScore_TokenOverlapHigh(t *testing.T) {
	// Both significant search tokens appear in the candidate.
	assert.Equal(t, 85, Score("salt kosher", "kosher salt coarse"))
}

func TestScore_TokenOverlapMid(t *testing.T) {
	// One of two significant tokens overlaps: ratio 0.5.
	assert.Equal(t, 75, Score("kosher pepper", "cracked pepper"))
}

func TestScore_TokenOverlapLow(t *testing.T) {
	// One of three significant tokens overlaps: ratio 1/3.
	assert.Equal(t, 65, Score("smoked spanish paprika", "paprika hungarian sweet blend"))
}

func TestScore_TokenSubstring(t *testing.T) {
	// "tomat" is contained in "tomatoes"; no verbatim token overlap.
	assert.Equal(t, 60, Score("tomat paste", "canned tomatoes"))
}

func TestScore_EditDistance(t *testing.T) {
	// "koshr slt" vs "kosher salt": distance 2 over max length 11 -> 81.
	assert.Equal(t, 81, Score("koshr slt", "kosher salt"))
}

func TestScore_EditDistanceFloor(t *testing.T) {
	// Completely dissimilar strings bottom out at 0, never negative.
	assert.GreaterOrEqual(t, Score("xyzzy", "q"), 0)
}
