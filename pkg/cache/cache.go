// Package cache stores computed partitions so that re-running the same map
// with the same options skips the relaxation.
//
// Three backends implement [Cache]: [NullCache] disables caching,
// [FileCache] keeps entries under the user cache directory for the CLI and
// [RedisCache] shares entries between server instances. Keys come from a
// [Keyer] so that key layout stays in one place.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// PartitionKey identifies a partition of the mask with the given hash.
	PartitionKey(maskHash string, opts PartitionKeyOpts) string
}

// PartitionKeyOpts holds every option that changes a partition result.
type PartitionKeyOpts struct {
	Regions           int     `json:"regions"`
	MaxSampleAttempts int     `json:"max_sample_attempts"`
	Iterations        int     `json:"iterations"`
	MovementThreshold float64 `json:"movement_threshold"`
	Policy            string  `json:"policy"`
	Boundary          string  `json:"boundary"`
	Seed              uint64  `json:"seed"`
}

// DefaultKeyer produces keys of the form "partition:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PartitionKey implements Keyer.
func (DefaultKeyer) PartitionKey(maskHash string, opts PartitionKeyOpts) string {
	return hashKey("partition", maskHash, opts)
}
