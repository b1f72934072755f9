package model

import "time"

// SavedMapping is a per-location override recorded when a user manually
// resolves an ambiguous import text. At most one active target exists per
// (normalized import text, location); repointing replaces the old target
// atomically.
type SavedMapping struct {
	ID         string   `json:"id"`
	LocationID string   `json:"location_id"`
	ImportText string   `json:"import_text"`
	TargetKind ItemKind `json:"target_kind"`
	TargetID   string   `json:"target_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlobalMapping is an admin-curated, location-independent override. It
// stores the target by name rather than id, since ids are location-scoped;
// resolution re-looks the name up in the caller's catalog.
type GlobalMapping struct {
	ImportText string   `json:"import_text"`
	TargetKind ItemKind `json:"target_kind"`
	TargetName string   `json:"target_name"`
}
