// Package store persists partition regions to a backend.
//
// A backend implements [Store]. Writes are keyed by (run ID, region ID) and
// are idempotent, so a retried run overwrites what an earlier attempt wrote.
// Failures are reported per region: [PersistAll] keeps going after a failed
// write and returns a [Report] listing what landed and what did not.
//
// Backends:
//   - [Memory]: in-process map, used by tests and the HTTP server
//   - [File]: JSON records and PNG masks under a directory
//   - postgres, mongo and redis subpackages for shared deployments
package store

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/observability"
	"github.com/matzehuels/landcells/pkg/region"
)

// Store is a region persistence backend.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Persist upserts one region record.
	Persist(ctx context.Context, rec region.Record) error
	// PersistMask upserts the PNG raster mask of one region.
	PersistMask(ctx context.Context, runID string, regionID int, png []byte) error
	// Close releases backend resources.
	Close() error
}

// Batch is one run's worth of output to persist.
type Batch struct {
	RunID    string
	Regions  []region.Region
	Masks    map[int][]byte // region ID -> PNG, optional
	Expected int            // seed count; region IDs 1..Expected are expected
}

// Report summarizes a PersistAll call.
type Report struct {
	Written []int         `json:"written"`
	Failed  []int         `json:"failed,omitempty"`
	Missing []int         `json:"missing,omitempty"`
	Errors  map[int]error `json:"-"`
}

// OK reports whether every expected region was written.
func (r Report) OK() bool {
	return len(r.Missing) == 0
}

// Options configures PersistAll.
type Options struct {
	Workers int
	Logger  *log.Logger
}

// PersistAll writes every region in b and its mask, if any. A region whose
// record or mask cannot be written is recorded as failed and the rest carry
// on. Missing lists the expected IDs that were not written, whether they
// failed or were never produced.
func PersistAll(ctx context.Context, s Store, b Batch, opts Options) Report {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	hooks := observability.Store()

	var (
		mu  sync.Mutex
		rep = Report{Errors: map[int]error{}}
		g   errgroup.Group
	)
	g.SetLimit(opts.Workers)
	for _, r := range b.Regions {
		g.Go(func() error {
			start := time.Now()
			err := persistOne(ctx, s, b.RunID, r, b.Masks[r.ID])
			hooks.OnPersist(ctx, s.Name(), r.ID, time.Since(start), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("persist failed", "backend", s.Name(), "region", r.ID, "err", err)
				rep.Failed = append(rep.Failed, r.ID)
				rep.Errors[r.ID] = err
				return nil
			}
			rep.Written = append(rep.Written, r.ID)
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(rep.Written)
	slices.Sort(rep.Failed)
	rep.Missing = Missing(b.Expected, rep.Written)
	if len(rep.Missing) > 0 {
		hooks.OnMissing(ctx, s.Name(), len(rep.Missing))
		logger.Warn("regions missing from store", "backend", s.Name(), "count", len(rep.Missing), "ids", rep.Missing)
	}
	return rep
}

func persistOne(ctx context.Context, s Store, runID string, r region.Region, mask []byte) error {
	rec := r.ToRecord(runID)
	err := cache.RetryWithBackoff(ctx, func() error {
		return s.Persist(ctx, rec)
	})
	if err == nil && mask != nil {
		err = cache.RetryWithBackoff(ctx, func() error {
			return s.PersistMask(ctx, runID, r.ID, mask)
		})
	}
	if err != nil {
		return &errors.PersistError{RegionID: r.ID, Cause: err}
	}
	return nil
}

// Missing returns the IDs in 1..expected that are absent from written.
// written must be sorted.
func Missing(expected int, written []int) []int {
	var out []int
	for id := 1; id <= expected; id++ {
		if _, found := slices.BinarySearch(written, id); !found {
			out = append(out, id)
		}
	}
	return out
}
