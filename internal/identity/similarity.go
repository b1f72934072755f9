package identity

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

// Similarity score tiers. The weak substring signal sits deliberately
// below the default resolve threshold so it surfaces in suggestions only.
const (
	scoreContainment  = 85
	scoreOverlapHigh  = 85
	scoreOverlapMid   = 75
	scoreOverlapLow   = 65
	scoreTokenSubstr  = 60
	significantTokLen = 2 // tokens longer than this count toward overlap
	substrTokLen      = 3 // tokens longer than this count for substring hits
)

// Score rates how well a normalized search string matches a normalized
// candidate, 0–100. Rules apply in priority order; the first that
// qualifies wins:
//
//  1. exact containment either direction
//  2. significant-token overlap ratio
//  3. any long token substring-contained in a candidate token
//  4. normalized Levenshtein distance
func Score(search, candidate string) int {
	if search == "" || candidate == "" {
		return 0
	}

	if strings.Contains(candidate, search) || strings.Contains(search, candidate) {
		return scoreContainment
	}

	if s, ok := tokenOverlapScore(search, candidate); ok {
		return s
	}

	if tokenSubstringHit(search, candidate) {
		return scoreTokenSubstr
	}

	return editDistanceScore(search, candidate)
}

// tokenOverlapScore computes the fraction of the search string's
// significant tokens that appear verbatim among the candidate's tokens.
func tokenOverlapScore(search, candidate string) (int, bool) {
	searchToks := significantTokens(search)
	if len(searchToks) == 0 {
		return 0, false
	}

	candToks := make(map[string]struct{})
	for _, t := range normalize.Tokens(candidate) {
		candToks[t] = struct{}{}
	}

	overlap := 0
	for _, t := range searchToks {
		if _, ok := candToks[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0, false
	}

	ratio := float64(overlap) / float64(len(searchToks))
	switch {
	case ratio >= 0.9:
		return scoreOverlapHigh, true
	case ratio >= 0.5:
		return scoreOverlapMid, true
	default:
		return scoreOverlapLow, true
	}
}

func significantTokens(s string) []string {
	var out []string
	for _, t := range normalize.Tokens(s) {
		if len(t) > significantTokLen {
			out = append(out, t)
		}
	}
	return out
}

// tokenSubstringHit reports whether any long search token is contained
// inside any candidate token ("tomat" in "tomatoes").
func tokenSubstringHit(search, candidate string) bool {
	candToks := normalize.Tokens(candidate)
	for _, st := range normalize.Tokens(search) {
		if len(st) <= substrTokLen {
			continue
		}
		for _, ct := range candToks {
			if strings.Contains(ct, st) {
				return true
			}
		}
	}
	return false
}

// editDistanceScore maps Levenshtein distance to 0–100:
// max(0, (1 - distance/maxLen) * 100).
func editDistanceScore(search, candidate string) int {
	maxLen := len([]rune(search))
	if l := len([]rune(candidate)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(search, candidate)
	score := (1 - float64(dist)/float64(maxLen)) * 100
	if score < 0 {
		return 0
	}
	return int(score)
}
