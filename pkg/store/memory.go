package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/landcells/pkg/region"
)

type memKey struct {
	run string
	id  int
}

// Memory keeps records in a map. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[memKey]region.Record
	masks   map[memKey][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[memKey]region.Record),
		masks:   make(map[memKey][]byte),
	}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Persist(_ context.Context, rec region.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memKey{rec.RunID, rec.RegionID}] = rec
	return nil
}

func (m *Memory) PersistMask(_ context.Context, runID string, regionID int, png []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masks[memKey{runID, regionID}] = slices.Clone(png)
	return nil
}

// Records returns the records of a run ordered by region ID.
func (m *Memory) Records(runID string) []region.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []region.Record
	for k, rec := range m.records {
		if k.run == runID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b region.Record) int { return a.RegionID - b.RegionID })
	return out
}

// Mask returns a stored mask.
func (m *Memory) Mask(runID string, regionID int) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	png, ok := m.masks[memKey{runID, regionID}]
	return png, ok
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
