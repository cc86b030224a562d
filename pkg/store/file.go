package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/region"
)

// File writes one JSON record and one PNG mask per region:
//
//	<dir>/<run>/region-<id>.json
//	<dir>/<run>/region-<id>.png
type File struct {
	dir string
}

// NewFile creates a file store rooted at dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Name() string { return "file" }

// Dir returns the root directory.
func (f *File) Dir() string { return f.dir }

func (f *File) Persist(_ context.Context, rec region.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return f.write(rec.RunID, fmt.Sprintf("region-%d.json", rec.RegionID), data)
}

func (f *File) PersistMask(_ context.Context, runID string, regionID int, png []byte) error {
	return f.write(runID, fmt.Sprintf("region-%d.png", regionID), png)
}

func (f *File) write(runID, name string, data []byte) error {
	dir := f.runDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

func (f *File) runDir(runID string) string {
	if runID == "" {
		runID = "default"
	}
	return filepath.Join(f.dir, runID)
}

// Records reads back the records of a run ordered by region ID.
func (f *File) Records(runID string) ([]region.Record, error) {
	if err := errors.ValidateRunID(runID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.runDir(runID))
	if err != nil {
		return nil, err
	}
	var out []region.Record
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "region-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "region-"), ".json")); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.runDir(runID), name))
		if err != nil {
			return nil, err
		}
		var rec region.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b region.Record) int { return a.RegionID - b.RegionID })
	return out, nil
}

// Runs lists the run directories present.
func (f *File) Runs() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	return runs, nil
}

func (f *File) Close() error { return nil }

var _ Store = (*File)(nil)
