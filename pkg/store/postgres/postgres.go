// Package postgres stores regions in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS regions (
	run_id     TEXT             NOT NULL,
	region_id  INTEGER          NOT NULL,
	vertices   TEXT             NOT NULL,
	centroid_x DOUBLE PRECISION NOT NULL,
	centroid_y DOUBLE PRECISION NOT NULL,
	seed_x     DOUBLE PRECISION NOT NULL,
	seed_y     DOUBLE PRECISION NOT NULL,
	area       DOUBLE PRECISION NOT NULL,
	mask       BYTEA,
	updated_at TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, region_id)
)`

const upsertRegion = `
INSERT INTO regions (run_id, region_id, vertices, centroid_x, centroid_y, seed_x, seed_y, area)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (run_id, region_id) DO UPDATE SET
	vertices = EXCLUDED.vertices,
	centroid_x = EXCLUDED.centroid_x,
	centroid_y = EXCLUDED.centroid_y,
	seed_x = EXCLUDED.seed_x,
	seed_y = EXCLUDED.seed_y,
	area = EXCLUDED.area,
	updated_at = now()`

const upsertMask = `
INSERT INTO regions (run_id, region_id, vertices, centroid_x, centroid_y, seed_x, seed_y, area, mask)
VALUES ($1, $2, '[]', 0, 0, 0, 0, 0, $3)
ON CONFLICT (run_id, region_id) DO UPDATE SET mask = EXCLUDED.mask, updated_at = now()`

// Store writes region records to Postgres.
type Store struct {
	db *sql.DB
}

// Open connects with the given DSN, pings and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(envInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(envInt("PG_MAX_IDLE_CONNS", 10))
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the regions table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create regions table: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Persist(ctx context.Context, rec region.Record) error {
	_, err := s.db.ExecContext(ctx, upsertRegion,
		rec.RunID, rec.RegionID, rec.Vertices,
		rec.CentroidX, rec.CentroidY, rec.SeedX, rec.SeedY, rec.Area)
	if err != nil {
		return cache.Retryable(fmt.Errorf("upsert region %d: %w", rec.RegionID, err))
	}
	return nil
}

func (s *Store) PersistMask(ctx context.Context, runID string, regionID int, png []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertMask, runID, regionID, png); err != nil {
		return cache.Retryable(fmt.Errorf("upsert mask %d: %w", regionID, err))
	}
	return nil
}

// Records reads the records of a run ordered by region ID.
func (s *Store) Records(ctx context.Context, runID string) ([]region.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT region_id, vertices, centroid_x, centroid_y, seed_x, seed_y, area
FROM regions WHERE run_id = $1 ORDER BY region_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []region.Record
	for rows.Next() {
		rec := region.Record{RunID: runID}
		if err := rows.Scan(&rec.RegionID, &rec.Vertices, &rec.CentroidX, &rec.CentroidY,
			&rec.SeedX, &rec.SeedY, &rec.Area); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)

// DSNFromEnv builds a connection string from PG_HOST, PG_PORT, PG_USER,
// PG_PASSWORD, PG_DB and PG_SSLMODE.
func DSNFromEnv() string {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	user := envOr("PG_USER", "postgres")
	pass := os.Getenv("PG_PASSWORD")
	db := envOr("PG_DB", "landcells")
	ssl := envOr("PG_SSLMODE", "disable")

	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	return dsn + "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}
