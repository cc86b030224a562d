// Package redis stores regions as Redis hashes.
//
// Keys:
//
//	<prefix>run:<run>:region:<id>  hash of record fields
//	<prefix>run:<run>:mask:<id>    PNG bytes
//	<prefix>run:<run>:regions      set of region IDs
package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/store"
)

// Config configures Open.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string        // default "landcells:"
	TTL       time.Duration // zero keeps keys forever
}

// Store writes records with HSET and masks with SET.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Open connects and checks the connection with PING.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewFromClient(client, cfg), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "landcells:"
	}
	return &Store{client: client, prefix: prefix, ttl: cfg.TTL}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) regionKey(run string, id int) string {
	return fmt.Sprintf("%srun:%s:region:%d", s.prefix, run, id)
}

func (s *Store) maskKey(run string, id int) string {
	return fmt.Sprintf("%srun:%s:mask:%d", s.prefix, run, id)
}

func (s *Store) indexKey(run string) string {
	return fmt.Sprintf("%srun:%s:regions", s.prefix, run)
}

func (s *Store) Persist(ctx context.Context, rec region.Record) error {
	key := s.regionKey(rec.RunID, rec.RegionID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fields(rec))
		p.SAdd(ctx, s.indexKey(rec.RunID), rec.RegionID)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
			p.Expire(ctx, s.indexKey(rec.RunID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return cache.Retryable(fmt.Errorf("redis hset region %d: %w", rec.RegionID, err))
	}
	return nil
}

func (s *Store) PersistMask(ctx context.Context, runID string, regionID int, png []byte) error {
	if err := s.client.Set(ctx, s.maskKey(runID, regionID), png, s.ttl).Err(); err != nil {
		return cache.Retryable(fmt.Errorf("redis set mask %d: %w", regionID, err))
	}
	return nil
}

// Records reads the records of a run ordered by region ID.
func (s *Store) Records(ctx context.Context, runID string) ([]region.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(runID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]region.Record, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		h, err := s.client.HGetAll(ctx, s.regionKey(runID, id)).Result()
		if err != nil {
			return nil, err
		}
		if len(h) == 0 {
			continue
		}
		rec, err := parseFields(h)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", id, err)
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b region.Record) int { return a.RegionID - b.RegionID })
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }

var _ store.Store = (*Store)(nil)

func fields(rec region.Record) map[string]any {
	return map[string]any{
		"region_id":  rec.RegionID,
		"run_id":     rec.RunID,
		"vertices":   rec.Vertices,
		"centroid_x": formatFloat(rec.CentroidX),
		"centroid_y": formatFloat(rec.CentroidY),
		"seed_x":     formatFloat(rec.SeedX),
		"seed_y":     formatFloat(rec.SeedY),
		"area":       formatFloat(rec.Area),
	}
}

func parseFields(h map[string]string) (region.Record, error) {
	var rec region.Record
	var err error
	if rec.RegionID, err = strconv.Atoi(h["region_id"]); err != nil {
		return rec, err
	}
	rec.RunID = h["run_id"]
	rec.Vertices = h["vertices"]
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"centroid_x", &rec.CentroidX},
		{"centroid_y", &rec.CentroidY},
		{"seed_x", &rec.SeedX},
		{"seed_y", &rec.SeedY},
		{"area", &rec.Area},
	} {
		if *f.dst, err = strconv.ParseFloat(h[f.name], 64); err != nil {
			return rec, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return rec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
