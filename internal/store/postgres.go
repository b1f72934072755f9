package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ladleworks/foodcost-cli/internal/db"
	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot resolution-path lookups.
var preparedStatements = map[string]string{
	"get_saved_mapping":  `SELECT id, location_id, import_text, target_kind, target_id, created_at, updated_at FROM saved_mappings WHERE import_text = $1 AND location_id = $2`,
	"get_global_mapping": `SELECT import_text, target_kind, target_name FROM global_mappings WHERE import_text = $1`,
	"list_items":         `SELECT id, location_id, kind, name, category, aliases FROM canonical_items WHERE location_id = $1 ORDER BY created_at, id`,
	"get_conversion":     `SELECT id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at FROM ingredient_conversions WHERE ingredient_id = $1 AND from_unit = $2 AND to_unit = $3 AND location_id = $4`,
	"get_nutrition":      `SELECT payload FROM nutrition_cache WHERE name = $1 AND expires_at > now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS canonical_items (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	location_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT,
	aliases     JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(location_id, kind, name)
);

CREATE TABLE IF NOT EXISTS saved_mappings (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	location_id TEXT NOT NULL,
	import_text TEXT NOT NULL,
	target_kind TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(location_id, import_text)
);

CREATE TABLE IF NOT EXISTS global_mappings (
	import_text TEXT PRIMARY KEY,
	target_kind TEXT NOT NULL,
	target_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingredient_conversions (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ingredient_id TEXT NOT NULL,
	location_id   TEXT NOT NULL DEFAULT '',
	from_quantity DOUBLE PRECISION NOT NULL,
	from_unit     TEXT NOT NULL,
	to_quantity   DOUBLE PRECISION NOT NULL,
	to_unit       TEXT NOT NULL,
	source        TEXT NOT NULL,
	note          TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(ingredient_id, location_id, from_unit, to_unit)
);

CREATE TABLE IF NOT EXISTS nutrition_cache (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_canonical_items_location ON canonical_items(location_id);
CREATE INDEX IF NOT EXISTS idx_ingredient_conversions_ingredient ON ingredient_conversions(ingredient_id);
CREATE INDEX IF NOT EXISTS idx_nutrition_cache_expires_at ON nutrition_cache(expires_at);
`

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCanonicalItem(ctx context.Context, item model.CanonicalItem) (*model.CanonicalItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	aliases := item.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO canonical_items (id, location_id, kind, name, category, aliases) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (location_id, kind, name) DO UPDATE SET category = $5, aliases = $6`,
		item.ID, item.LocationID, string(item.Kind), item.Name, item.Category, aliases,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert canonical item")
	}
	return &item, nil
}

func (s *PostgresStore) ListCanonicalItems(ctx context.Context, locationID string) ([]model.CanonicalItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, location_id, kind, name, category, aliases FROM canonical_items
		 WHERE location_id = $1 ORDER BY created_at, id`,
		locationID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list canonical items")
	}
	defer rows.Close()

	var items []model.CanonicalItem
	for rows.Next() {
		var it model.CanonicalItem
		var category *string
		if err := rows.Scan(&it.ID, &it.LocationID, &it.Kind, &it.Name, &category, &it.Aliases); err != nil {
			return nil, eris.Wrap(err, "postgres: scan canonical item")
		}
		if category != nil {
			it.Category = *category
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list canonical items iterate")
}

func (s *PostgresStore) GetSavedMapping(ctx context.Context, importText, locationID string) (*model.SavedMapping, error) {
	var m model.SavedMapping
	err := s.pool.QueryRow(ctx,
		`SELECT id, location_id, import_text, target_kind, target_id, created_at, updated_at
		 FROM saved_mappings WHERE import_text = $1 AND location_id = $2`,
		normalize.Name(importText), locationID,
	).Scan(&m.ID, &m.LocationID, &m.ImportText, &m.TargetKind, &m.TargetID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get saved mapping")
	}
	return &m, nil
}

func (s *PostgresStore) SaveMapping(ctx context.Context, m model.SavedMapping) (*model.SavedMapping, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.ImportText = normalize.Name(m.ImportText)
	if m.ImportText == "" {
		return nil, eris.New("postgres: empty import text")
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO saved_mappings (id, location_id, import_text, target_kind, target_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (location_id, import_text) DO UPDATE SET
			target_kind = $4, target_id = $5, updated_at = $7`,
		m.ID, m.LocationID, m.ImportText, string(m.TargetKind), m.TargetID, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: save mapping")
	}
	return &m, nil
}

func (s *PostgresStore) DeleteSavedMapping(ctx context.Context, importText, locationID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM saved_mappings WHERE import_text = $1 AND location_id = $2`,
		normalize.Name(importText), locationID,
	)
	return eris.Wrap(err, "postgres: delete saved mapping")
}

func (s *PostgresStore) GetGlobalMapping(ctx context.Context, importText string) (*model.GlobalMapping, error) {
	var m model.GlobalMapping
	err := s.pool.QueryRow(ctx,
		`SELECT import_text, target_kind, target_name FROM global_mappings WHERE import_text = $1`,
		normalize.Name(importText),
	).Scan(&m.ImportText, &m.TargetKind, &m.TargetName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get global mapping")
	}
	return &m, nil
}

func (s *PostgresStore) UpsertGlobalMapping(ctx context.Context, m model.GlobalMapping) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO global_mappings (import_text, target_kind, target_name) VALUES ($1, $2, $3)
		 ON CONFLICT (import_text) DO UPDATE SET target_kind = $2, target_name = $3`,
		normalize.Name(m.ImportText), string(m.TargetKind), m.TargetName,
	)
	return eris.Wrap(err, "postgres: upsert global mapping")
}

func (s *PostgresStore) GetIngredientConversion(ctx context.Context, ingredientID string, from, to model.Unit, locationID string) (*model.IngredientConversion, error) {
	var c model.IngredientConversion
	var note *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at
		 FROM ingredient_conversions
		 WHERE ingredient_id = $1 AND from_unit = $2 AND to_unit = $3 AND location_id = $4`,
		ingredientID, string(from), string(to), locationID,
	).Scan(&c.ID, &c.IngredientID, &c.LocationID, &c.FromQuantity, &c.FromUnit,
		&c.ToQuantity, &c.ToUnit, &c.Source, &note, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get ingredient conversion")
	}
	if note != nil {
		c.Note = *note
	}
	return &c, nil
}

func (s *PostgresStore) UpsertIngredientConversion(ctx context.Context, c model.IngredientConversion) (*model.IngredientConversion, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingredient_conversions
			(id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (ingredient_id, location_id, from_unit, to_unit) DO UPDATE SET
			from_quantity = $4, to_quantity = $6, source = $8, note = $9`,
		c.ID, c.IngredientID, c.LocationID, c.FromQuantity, string(c.FromUnit),
		c.ToQuantity, string(c.ToUnit), string(c.Source), c.Note, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert ingredient conversion")
	}
	return &c, nil
}

func (s *PostgresStore) ListIngredientConversions(ctx context.Context, ingredientID string) ([]model.IngredientConversion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ingredient_id, location_id, from_quantity, from_unit, to_quantity, to_unit, source, note, created_at
		 FROM ingredient_conversions WHERE ingredient_id = $1 ORDER BY created_at, id`,
		ingredientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ingredient conversions")
	}
	defer rows.Close()

	var out []model.IngredientConversion
	for rows.Next() {
		var c model.IngredientConversion
		var note *string
		if err := rows.Scan(&c.ID, &c.IngredientID, &c.LocationID, &c.FromQuantity, &c.FromUnit,
			&c.ToQuantity, &c.ToUnit, &c.Source, &note, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ingredient conversion")
		}
		if note != nil {
			c.Note = *note
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list ingredient conversions iterate")
}

func (s *PostgresStore) GetCachedNutrition(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM nutrition_cache WHERE name = $1 AND expires_at > now()`,
		normalize.Name(name),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached nutrition")
	}
	return payload, nil
}

func (s *PostgresStore) SetCachedNutrition(ctx context.Context, name string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO nutrition_cache (name, payload, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET payload = $2, cached_at = $3, expires_at = $4`,
		normalize.Name(name), payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached nutrition")
}
