package store

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/landcells/pkg/cache"
	lcerrors "github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/observability"
	"github.com/matzehuels/landcells/pkg/region"
)

func testRegions(ids ...int) []region.Region {
	out := make([]region.Region, len(ids))
	for i, id := range ids {
		x := float64(id)
		out[i] = region.Region{
			ID:       id,
			Polygon:  orb.Ring{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}},
			Centroid: orb.Point{x + 0.5, 0.5},
			Seed:     orb.Point{x + 0.5, 0.5},
		}
	}
	return out
}

// flaky fails Persist for the listed IDs.
type flaky struct {
	*Memory
	fail      map[int]bool
	transient map[int]int // remaining retryable failures per ID
}

func (f *flaky) Persist(ctx context.Context, rec region.Record) error {
	if f.fail[rec.RegionID] {
		return errors.New("constraint violation")
	}
	if f.transient[rec.RegionID] > 0 {
		f.transient[rec.RegionID]--
		return cache.Retryable(errors.New("connection reset"))
	}
	return f.Memory.Persist(ctx, rec)
}

type storeHooks struct {
	observability.NoopStoreHooks
	persisted, failed, missing int
}

func (h *storeHooks) OnPersist(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	if err != nil {
		h.failed++
		return
	}
	h.persisted++
}

func (h *storeHooks) OnMissing(_ context.Context, _ string, count int) {
	h.missing += count
}

func TestPersistAll(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	rep := PersistAll(ctx, mem, Batch{
		RunID:    "run",
		Regions:  testRegions(1, 2, 3),
		Masks:    map[int][]byte{2: []byte("png")},
		Expected: 3,
	}, Options{Workers: 2})

	if !rep.OK() || !slices.Equal(rep.Written, []int{1, 2, 3}) || len(rep.Failed) != 0 {
		t.Fatalf("report = %+v", rep)
	}
	recs := mem.Records("run")
	if len(recs) != 3 || recs[0].RegionID != 1 || recs[2].RegionID != 3 {
		t.Errorf("records = %+v", recs)
	}
	if recs[1].Vertices != "[[2,0],[3,0],[3,1],[2,1]]" || recs[1].CentroidX != 2.5 {
		t.Errorf("record 2 = %+v", recs[1])
	}
	if png, ok := mem.Mask("run", 2); !ok || string(png) != "png" {
		t.Error("mask 2 not stored")
	}
	if _, ok := mem.Mask("run", 1); ok {
		t.Error("mask 1 should not be stored")
	}
}

func TestPersistAllFailures(t *testing.T) {
	defer func(d time.Duration) { cache.BaseDelay = d }(cache.BaseDelay)
	cache.BaseDelay = time.Millisecond
	hooks := &storeHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	s := &flaky{
		Memory:    NewMemory(),
		fail:      map[int]bool{2: true},
		transient: map[int]int{3: 1},
	}
	// Region 5 was never produced (dropped during tessellation).
	rep := PersistAll(ctx, s, Batch{RunID: "run", Regions: testRegions(1, 2, 3, 4), Expected: 5}, Options{})

	if !slices.Equal(rep.Written, []int{1, 3, 4}) {
		t.Errorf("Written = %v", rep.Written)
	}
	if !slices.Equal(rep.Failed, []int{2}) {
		t.Errorf("Failed = %v", rep.Failed)
	}
	if !slices.Equal(rep.Missing, []int{2, 5}) {
		t.Errorf("Missing = %v", rep.Missing)
	}
	if rep.OK() {
		t.Error("OK() should be false")
	}
	if !lcerrors.Is(rep.Errors[2], lcerrors.ErrCodePersist) {
		t.Errorf("Errors[2] = %v, want persist error", rep.Errors[2])
	}
	if hooks.persisted != 3 || hooks.failed != 1 || hooks.missing != 2 {
		t.Errorf("hooks = %+v", hooks)
	}
}

func TestMissing(t *testing.T) {
	tests := []struct {
		expected int
		written  []int
		want     []int
	}{
		{0, nil, nil},
		{3, []int{1, 2, 3}, nil},
		{4, []int{2, 4}, []int{1, 3}},
		{2, nil, []int{1, 2}},
	}
	for _, tt := range tests {
		if got := Missing(tt.expected, tt.written); !slices.Equal(got, tt.want) {
			t.Errorf("Missing(%d, %v) = %v, want %v", tt.expected, tt.written, got, tt.want)
		}
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	regions := testRegions(2, 1)
	for _, r := range regions {
		if err := f.Persist(ctx, r.ToRecord("abc")); err != nil {
			t.Fatal(err)
		}
	}
	// Idempotent upsert.
	if err := f.Persist(ctx, regions[0].ToRecord("abc")); err != nil {
		t.Fatal(err)
	}
	if err := f.PersistMask(ctx, "abc", 1, []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatal(err)
	}

	recs, err := f.Records("abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].RegionID != 1 || recs[1].RegionID != 2 {
		t.Fatalf("records = %+v", recs)
	}
	r, err := recs[1].Region()
	if err != nil {
		t.Fatal(err)
	}
	if r.Area() != 1 || r.Centroid != (orb.Point{2.5, 0.5}) {
		t.Errorf("region = %+v", r)
	}

	runs, err := f.Runs()
	if err != nil || !slices.Equal(runs, []string{"abc"}) {
		t.Errorf("Runs() = %v, %v", runs, err)
	}
}

func TestPersistAllWithoutLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.New(&buf))
	t.Cleanup(func() { log.SetDefault(prev) })

	// Region 3 is missing, which is reported as a warning.
	rep := PersistAll(context.Background(), NewMemory(), Batch{RunID: "run", Regions: testRegions(1, 2), Expected: 3}, Options{})
	if !slices.Equal(rep.Missing, []int{3}) {
		t.Fatalf("Missing = %v, want [3]", rep.Missing)
	}
	if buf.Len() > 0 {
		t.Errorf("PersistAll wrote to the default logger: %q", buf.String())
	}
}
