package model

// MatchMethod tags how a resolution was obtained, so callers can tell a
// user-confirmed mapping from a fuzzy guess.
type MatchMethod string

const (
	MatchMethodSaved  MatchMethod = "saved"
	MatchMethodGlobal MatchMethod = "global"
	MatchMethodExact  MatchMethod = "exact"
	MatchMethodAlias  MatchMethod = "alias"
	MatchMethodFuzzy  MatchMethod = "fuzzy"
)

// MatchResult is the outcome of resolving a free-text item name.
// Produced per call, never persisted.
type MatchResult struct {
	IsMatched  bool        `json:"is_matched"`
	TargetID   string      `json:"target_id,omitempty"`
	TargetName string      `json:"target_name,omitempty"`
	TargetKind ItemKind    `json:"target_kind,omitempty"`
	Confidence int         `json:"confidence"`
	Method     MatchMethod `json:"method,omitempty"`
}

// Suggestion is one ranked candidate offered for manual review when
// automatic resolution fails or needs confirmation.
type Suggestion struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}
