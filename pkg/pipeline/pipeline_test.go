package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/landcells/pkg/cache"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/export"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/store"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"geojson", false},
		{"wkt", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"JSON", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"json", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidatePolicyAndBoundary(t *testing.T) {
	for _, p := range []string{"gate-small-moves", "always-move"} {
		if err := ValidatePolicy(p); err != nil {
			t.Errorf("ValidatePolicy(%q) = %v", p, err)
		}
	}
	if err := ValidatePolicy("teleport"); err == nil {
		t.Error("unknown policy should fail")
	}
	for _, b := range []string{"hull", "bbox"} {
		if err := ValidateBoundary(b); err != nil {
			t.Errorf("ValidateBoundary(%q) = %v", b, err)
		}
	}
	if err := ValidateBoundary("coast"); err == nil {
		t.Error("unknown boundary should fail")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Zero options should validate: %v", err)
	}

	if opts.Regions != DefaultRegions {
		t.Errorf("Regions should be %d, got %d", DefaultRegions, opts.Regions)
	}
	if opts.MaxSampleAttempts != DefaultMaxSampleAttempts {
		t.Errorf("MaxSampleAttempts should be %d, got %d", DefaultMaxSampleAttempts, opts.MaxSampleAttempts)
	}
	if opts.Iterations != DefaultIterations {
		t.Errorf("Iterations should be %d, got %d", DefaultIterations, opts.Iterations)
	}
	if opts.MovementThreshold != DefaultMovementThreshold {
		t.Errorf("MovementThreshold should be %v, got %v", DefaultMovementThreshold, opts.MovementThreshold)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed should be %d, got %d", DefaultSeed, opts.Seed)
	}
	if opts.Policy != DefaultPolicy || opts.Boundary != DefaultBoundary {
		t.Errorf("Policy/Boundary = %s/%s", opts.Policy, opts.Boundary)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"too few regions", Options{Regions: 3}},
		{"attempts below regions", Options{Regions: 50, MaxSampleAttempts: 10}},
		{"negative iterations", Options{Iterations: -1}},
		{"negative threshold", Options{MovementThreshold: -0.5}},
		{"negative workers", Options{Workers: -2}},
		{"negative simplify", Options{Simplify: -1}},
		{"bad policy", Options{Policy: "teleport"}},
		{"bad boundary", Options{Boundary: "coast"}},
		{"bad format", Options{Formats: []string{"pdf"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("ValidateAndSetDefaults() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Regions: 12}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	first := opts.PartitionKeyOpts()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.PartitionKeyOpts() != first {
		t.Error("options changed on second call")
	}
}

func TestMaskHash(t *testing.T) {
	a, _ := landmask.FromRows("##.", ".##")
	b, _ := landmask.FromRows("##.", ".##")
	c, _ := landmask.FromRows("##.", "###")
	// Same pixels, different shape.
	d, _ := landmask.FromRows("##", "..", "##")

	if MaskHash(a) != MaskHash(b) {
		t.Error("equal masks should hash equal")
	}
	if MaskHash(a) == MaskHash(c) {
		t.Error("different land should hash differently")
	}
	if MaskHash(a) == MaskHash(d) {
		t.Error("different dimensions should hash differently")
	}
}

func squareMask(t *testing.T, n int) *landmask.Mask {
	t.Helper()
	rows := make([]string, n)
	for i := range rows {
		rows[i] = strings.Repeat("#", n)
	}
	m, err := landmask.FromRows(rows...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	m := squareMask(t, 20)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	runner := NewRunner(fc, nil, mem, nil)
	defer runner.Close()

	opts := Options{
		Regions: 8,
		Masks:   true,
		Formats: []string{FormatJSON, FormatGeoJSON, FormatWKT, FormatDOT, FormatPNG},
	}
	res, err := runner.Execute(ctx, m, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.Sampled != 8 || len(res.Partition.Seeds) != 8 {
		t.Errorf("sampled %d seeds", res.Stats.Sampled)
	}
	if n := len(res.Partition.Regions); n != 8 {
		t.Fatalf("got %d regions, want 8", n)
	}

	// Persistence
	if res.Store == nil || !res.Store.OK() || len(res.Store.Written) != 8 {
		t.Fatalf("store report = %+v", res.Store)
	}
	recs := mem.Records(res.RunID)
	if len(recs) != 8 {
		t.Fatalf("stored %d records", len(recs))
	}
	for _, rec := range recs {
		data, ok := mem.Mask(res.RunID, rec.RegionID)
		if !ok {
			t.Errorf("mask %d missing", rec.RegionID)
			continue
		}
		if _, err := png.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("mask %d: %v", rec.RegionID, err)
		}
	}

	// Artifacts
	for _, f := range opts.Formats {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("artifact %s empty", f)
		}
	}
	var decoded struct {
		RunID     string `json:"run_id"`
		Partition struct {
			State string `json:"state"`
		} `json:"partition"`
	}
	if err := json.Unmarshal(res.Artifacts[FormatJSON], &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RunID != res.RunID || decoded.Partition.State != res.Partition.State.String() {
		t.Errorf("json artifact = %+v", decoded)
	}
	gj, err := export.ReadGeoJSON(res.Artifacts[FormatGeoJSON])
	if err != nil || len(gj) != 8 {
		t.Errorf("geojson artifact: %d regions, %v", len(gj), err)
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "graph regions {") {
		t.Errorf("dot artifact = %s", res.Artifacts[FormatDOT])
	}

	// Second run hits the cache and gets a fresh run ID.
	again, err := runner.Execute(ctx, m, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit {
		t.Error("second run should hit the cache")
	}
	if again.RunID == res.RunID {
		t.Error("run IDs should differ")
	}
	if len(again.Partition.Regions) != 8 || !again.Partition.Regions[0].Polygon.Equal(res.Partition.Regions[0].Polygon) {
		t.Error("cached partition differs")
	}

	// Refresh recomputes deterministically.
	opts.Refresh = true
	fresh, err := runner.Execute(ctx, m, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheHit {
		t.Error("refresh should bypass the cache")
	}
	if !fresh.Partition.Regions[0].Polygon.Equal(res.Partition.Regions[0].Polygon) {
		t.Error("same seed should reproduce the partition")
	}
}

func TestPartitionInsufficientLand(t *testing.T) {
	ctx := context.Background()

	// Three land pixels cannot be tessellated.
	tiny, _ := landmask.FromRows("#....", ".....", "..#..", ".....", "....#")
	_, err := Partition(ctx, tiny, Options{Regions: 10}, nil)
	if !errors.Is(err, errors.ErrCodeInsufficientLand) {
		t.Errorf("Partition(tiny) = %v, want INSUFFICIENT_LAND", err)
	}

	// Five land pixels are enough to carry on with fewer regions.
	five, _ := landmask.FromRows("#...#", ".....", "..#..", ".....", "#...#")
	var stats Stats
	part, err := Partition(ctx, five, Options{Regions: 10}, &stats)
	if err != nil {
		t.Fatalf("Partition(five) = %v", err)
	}
	if stats.Requested != 10 || stats.Sampled != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if len(part.Regions) != 5 {
		t.Errorf("got %d regions, want 5", len(part.Regions))
	}
}

func TestRunnerWithoutStore(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	res, err := runner.Execute(context.Background(), squareMask(t, 12), nil, Options{Regions: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Store != nil {
		t.Error("no store should mean no report")
	}
	if _, ok := res.Artifacts[FormatJSON]; !ok {
		t.Error("default json artifact missing")
	}
}
