// Package mongo stores regions as MongoDB documents.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/store"
)

// Config configures Open.
type Config struct {
	URI        string // default "mongodb://localhost:27017"
	Database   string // default "landcells"
	Collection string // default "regions"
	Timeout    time.Duration
}

func (c *Config) setDefaults() {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Database == "" {
		c.Database = "landcells"
	}
	if c.Collection == "" {
		c.Collection = "regions"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Store upserts one document per (run_id, region_id).
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, pings the primary and creates the unique key index.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.setDefaults()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "region_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

func (s *Store) Name() string { return "mongo" }

func (s *Store) Persist(ctx context.Context, rec region.Record) error {
	_, err := s.coll.UpdateOne(ctx, key(rec.RunID, rec.RegionID),
		bson.M{"$set": rec}, options.Update().SetUpsert(true))
	if err != nil {
		return wrap(err, "upsert region %d", rec.RegionID)
	}
	return nil
}

func (s *Store) PersistMask(ctx context.Context, runID string, regionID int, png []byte) error {
	_, err := s.coll.UpdateOne(ctx, key(runID, regionID),
		bson.M{"$set": bson.M{"mask": png}}, options.Update().SetUpsert(true))
	if err != nil {
		return wrap(err, "upsert mask %d", regionID)
	}
	return nil
}

// Records reads the records of a run ordered by region ID.
func (s *Store) Records(ctx context.Context, runID string) ([]region.Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{"run_id": runID},
		options.Find().SetSort(bson.D{{Key: "region_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []region.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func key(runID string, regionID int) bson.M {
	return bson.M{"run_id": runID, "region_id": regionID}
}

// wrap marks network and timeout failures retryable.
func wrap(err error, format string, args ...any) error {
	err = fmt.Errorf(format+": %w", append(args, err)...)
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(err)
	}
	return err
}

var _ store.Store = (*Store)(nil)
