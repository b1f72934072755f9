package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS canonical_items (
	id          TEXT PRIMARY KEY,
	location_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT,
	aliases     TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(location_id, kind, name)
);

CREATE TABLE IF NOT EXISTS saved_mappings (
	id          TEXT PRIMARY KEY,
	location_id TEXT NOT NULL,
	import_text TEXT NOT NULL,
	target_kind TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(location_id, import_text)
);

CREATE TABLE IF NOT EXISTS global_mappings (
	import_text TEXT PRIMARY KEY,
	target_kind TEXT NOT NULL,
	target_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingredient_conversions (
	id            TEXT PRIMARY KEY,
	ingredient_id TEXT NOT NULL,
	location_id   TEXT NOT NULL DEFAULT '',
	from_quantity REAL NOT NULL,
	from_unit     TEXT NOT NULL,
	to_quantity   REAL NOT NULL,
	to_unit       TEXT NOT NULL,
	source        TEXT NOT NULL,
	note          TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(ingredient_id, location_id, from_unit, to_unit)
);

CREATE TABLE IF NOT EXISTS nutrition_cache (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canonical_items_location ON canonical_items(location_id);
CREATE INDEX IF NOT EXISTS idx_ingredient_conversions_ingredient ON ingredient_conversions(ingredient_id);
CREATE INDEX IF NOT EXISTS idx_nutrition_cache_expires ON nutrition_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCanonicalItem(ctx context.Context, item model.CanonicalItem) (*model.CanonicalItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	aliasesJSON, err := json.Marshal(item.Aliases)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal aliases")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO canonical_items (id, location_id, kind, name, category, aliases) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(location_id, kind, name) DO UPDATE SET category = excluded.category, aliases = excluded.aliases`,
		item.ID, item.LocationID, string(item.Kind), item.Name, item.Category, string(aliasesJSON),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert canonical item")
	}
	return &item, nil
}

func (s *SQLiteStore) ListCanonicalItems(ctx context.Context, locationID string) ([]model.CanonicalItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location_id, kind, name, category, aliases FROM canonical_items
		 WHERE location_id = ? ORDER BY created_at, id`,
		locationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list canonical items")
	}
	defer rows.Close()

	var items []model.CanonicalItem
	for rows.Next() {
		var it model.CanonicalItem
		var category sql.NullString
		var aliasesJSON string
		if err := rows.Scan(&it.ID, &it.LocationID, &it.Kind, &it.Name, &category, &aliasesJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan canonical item")
		}
		it.Category = category.String
		if err := json.Unmarshal([]byte(aliasesJSON), &it.Aliases); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal aliases")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list canonical items iterate")
}

func (s *SQLiteStore) GetSavedMapping(ctx context.Context, importText, locationID string) (*model.SavedMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, location_id, import_text, target_kind, target_id, created_at, updated_at
		 FROM saved_mappings WHERE import_text = ? AND location_id = ?`,
		normalize.Name(importText), locationID,
	)

	var m model.SavedMapping
	err := row.Scan(&m.ID, &m.LocationID, &m.ImportText, &m.TargetKind, &m.TargetID, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get saved mapping")
	}
	return &m, nil
}

// SaveMapping upserts by (location, normalized text). The ON CONFLICT
// update repoints an existing mapping in one statement, keeping the
// one-active-target invariant without a read-modify-write.
func (s *SQLiteStore) SaveMapping(ctx context.Context, m model.SavedMapping) (*model.SavedMapping, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.ImportText = normalize.Name(m.ImportText)
	if m.ImportText == "" {
		return nil, eris.New("sqlite: empty import text")
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_mappings (id, location_id, import_text, target_kind, target_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(location_id, import_text) DO UPDATE SET
			target_kind = excluded.target_kind,
			target_id = excluded.target_id,
			updated_at = excluded.updated_at`,
		m.ID, m.LocationID, m.ImportText, string(m.TargetKind), m.TargetID, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: save mapping")
	}
	return &m, nil
}

func (s *SQLiteStore) DeleteSavedMapping(ctx context.Context, importText, locationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_mappings WHERE import_text = ? AND location_id = ?`,
		normalize.Name(importText), locationID,
	)
	return eris.Wrap(err, "sqlite: delete saved mapping")
}

func (s *SQLiteStore) GetGlobalMapping(ctx context.Context, importText string) (*model.GlobalMapping, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT import_text, target_kind, target_name FROM global_mappings WHERE import_text = ?`,
		normalize.Name(importText),
	)

	var m model.GlobalMapping
	err := row.Scan(&m.ImportText, &m.TargetKind, &m.TargetName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get global mapping")
	}
	return &m, nil
}

func (s *SQLiteStore) UpsertGlobalMapping(ctx context.Context, m model.GlobalMapping) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO global_mappings (import_text, target_kind, target_name) VALUES (?, ?, ?)
		 ON CONFLICT(import_text) DO UPDATE SET target_kind = excluded.target_kind, target_name = excluded.target_name`,
		normalize.Name(m.ImportText), string(m.TargetKind), m.TargetName,
	)
	return eris.Wrap(err, "sqlite: upsert global mapping")
}

func (s *SQLiteStore) GetIngredientConversion(ctx context.Context, ingredientID string, from, to model.Unit, locationID string) (*model.IngredientConversion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at
		 FROM ingredient_conversions
		 WHERE ingredient_id = ? AND from_unit = ? AND to_unit = ? AND location_id = ?`,
		ingredientID, string(from), string(to), locationID,
	)
	return scanConversion(row)
}

func (s *SQLiteStore) UpsertIngredientConversion(ctx context.Context, c model.IngredientConversion) (*model.IngredientConversion, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredient_conversions
			(id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ingredient_id, location_id, from_unit, to_unit) DO UPDATE SET
			from_quantity = excluded.from_quantity,
			to_quantity = excluded.to_quantity,
			source = excluded.source,
			note = excluded.note`,
		c.ID, c.IngredientID, c.LocationID, c.FromQuantity, string(c.FromUnit),
		c.ToQuantity, string(c.ToUnit), string(c.Source), c.Note, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert ingredient conversion")
	}
	return &c, nil
}

func (s *SQLiteStore) ListIngredientConversions(ctx context.Context, ingredientID string) ([]model.IngredientConversion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at
		 FROM ingredient_conversions WHERE ingredient_id = ? ORDER BY created_at, id`,
		ingredientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ingredient conversions")
	}
	defer rows.Close()

	var out []model.IngredientConversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list ingredient conversions iterate")
}

func (s *SQLiteStore) GetCachedNutrition(ctx context.Context, name string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM nutrition_cache WHERE name = ? AND expires_at > ?`,
		normalize.Name(name), time.Now().UTC(),
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached nutrition")
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) SetCachedNutrition(ctx context.Context, name string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nutrition_cache (name, payload, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		normalize.Name(name), string(payload), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached nutrition")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanConversion(row scannable) (*model.IngredientConversion, error) {
	var c model.IngredientConversion
	var note sql.NullString

	err := row.Scan(&c.ID, &c.IngredientID, &c.LocationID, &c.FromQuantity, &c.FromUnit,
		&c.ToQuantity, &c.ToUnit, &c.Source, &note, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan conversion")
	}
	c.Note = note.String
	return &c, nil
}
