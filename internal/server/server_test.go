package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/pipeline"
	"github.com/matzehuels/landcells/pkg/region"
	"github.com/matzehuels/landcells/pkg/store"
)

func newTestServer(t *testing.T, maxRuns int) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, store.NewMemory(), logger)
	srv := New(runner, Options{MaxRuns: maxRuns, Logger: logger})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// landPNG encodes an n x n opaque square.
func landPNG(t *testing.T, n int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			img.Set(x, y, color.NRGBA{G: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func grayPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "image/png", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, 0)

	resp := get(t, ts.URL+"/healthz")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}

	resp = get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestPartitionLifecycle(t *testing.T) {
	srv, ts := newTestServer(t, 0)

	resp := post(t, ts.URL+"/v1/partitions?regions=6&iterations=3&seed=7", landPNG(t, 24))
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var created struct {
		RunID     string `json:"run_id"`
		Partition struct {
			Regions []region.Region `json:"regions"`
		} `json:"partition"`
	}
	decode(t, resp, &created)
	if created.RunID == "" {
		t.Fatal("empty run id")
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/partitions/"+created.RunID {
		t.Errorf("Location = %q", loc)
	}
	if n := len(created.Partition.Regions); n != 6 {
		t.Fatalf("got %d regions, want 6", n)
	}
	if _, ok := srv.Get(created.RunID); !ok {
		t.Error("run not held")
	}

	base := ts.URL + "/v1/partitions/" + created.RunID

	var recs []region.Record
	resp = get(t, base+"/regions")
	decode(t, resp, &recs)
	if len(recs) != 6 || recs[0].RunID != created.RunID {
		t.Errorf("regions = %+v", recs)
	}

	var one region.Record
	resp = get(t, base+"/regions/1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("region 1 status = %d", resp.StatusCode)
	}
	decode(t, resp, &one)
	if one.RegionID != 1 || one.Area <= 0 {
		t.Errorf("region 1 = %+v", one)
	}

	resp = get(t, base+"/artifacts/geojson")
	if ct := resp.Header.Get("Content-Type"); resp.StatusCode != http.StatusOK || ct != "application/geo+json" {
		t.Errorf("geojson = %d %s", resp.StatusCode, ct)
	}
	resp = get(t, base+"/artifacts/png")
	if _, err := png.Decode(resp.Body); err != nil {
		t.Errorf("overlay png: %v", err)
	}

	var list []runSummary
	resp = get(t, ts.URL+"/v1/partitions")
	decode(t, resp, &list)
	if len(list) != 1 || list[0].RunID != created.RunID || list[0].Regions != 6 {
		t.Errorf("list = %+v", list)
	}
}

func TestErrors(t *testing.T) {
	srv, ts := newTestServer(t, 0)
	resp := post(t, ts.URL+"/v1/partitions?regions=5&iterations=1", landPNG(t, 16))
	var created struct {
		RunID string `json:"run_id"`
	}
	decode(t, resp, &created)
	if _, ok := srv.Get(created.RunID); !ok {
		t.Fatalf("setup run failed")
	}
	base := ts.URL + "/v1/partitions/" + created.RunID

	tests := []struct {
		name   string
		do     func() *http.Response
		status int
		code   string
	}{
		{"unknown run", func() *http.Response { return get(t, ts.URL+"/v1/partitions/nope") }, http.StatusNotFound, "NOT_FOUND"},
		{"invalid run id", func() *http.Response { return get(t, ts.URL+"/v1/partitions/-run") }, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown region", func() *http.Response { return get(t, base+"/regions/99") }, http.StatusNotFound, "NOT_FOUND"},
		{"bad region id", func() *http.Response { return get(t, base+"/regions/x") }, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad format", func() *http.Response { return get(t, base+"/artifacts/pdf") }, http.StatusBadRequest, "INVALID_INPUT"},
		{"format not rendered", func() *http.Response { return get(t, base+"/artifacts/svg") }, http.StatusNotFound, "NOT_FOUND"},
		{"bad regions param", func() *http.Response { return post(t, ts.URL+"/v1/partitions?regions=abc", landPNG(t, 8)) }, http.StatusBadRequest, "INVALID_INPUT"},
		{"too few regions", func() *http.Response { return post(t, ts.URL+"/v1/partitions?regions=2", landPNG(t, 8)) }, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad policy", func() *http.Response { return post(t, ts.URL+"/v1/partitions?policy=never", landPNG(t, 8)) }, http.StatusBadRequest, "INVALID_INPUT"},
		{"no alpha", func() *http.Response { return post(t, ts.URL+"/v1/partitions?regions=4", grayPNG(t)) }, http.StatusUnprocessableEntity, "IMAGE_FORMAT"},
		{"not an image", func() *http.Response { return post(t, ts.URL+"/v1/partitions", []byte("hello")) }, http.StatusUnprocessableEntity, "IMAGE_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorBody
			decode(t, resp, &body)
			if body.Error != tt.code {
				t.Errorf("error = %q, want %q (%s)", body.Error, tt.code, body.Message)
			}
		})
	}
}

func TestRunEviction(t *testing.T) {
	srv, ts := newTestServer(t, 2)
	var ids []string
	for seed := 1; seed <= 3; seed++ {
		resp := post(t, ts.URL+"/v1/partitions?regions=4&iterations=1&seed="+strings.Repeat("1", seed), landPNG(t, 12))
		var created struct {
			RunID string `json:"run_id"`
		}
		decode(t, resp, &created)
		ids = append(ids, created.RunID)
	}
	if _, ok := srv.Get(ids[0]); ok {
		t.Error("oldest run should be evicted")
	}
	for _, id := range ids[1:] {
		if _, ok := srv.Get(id); !ok {
			t.Errorf("run %s should be held", id)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"NOT_FOUND", http.StatusNotFound},
		{"INSUFFICIENT_LAND", http.StatusUnprocessableEntity},
		{"DEGENERATE_INPUT", http.StatusUnprocessableEntity},
		{"UNSUPPORTED", http.StatusNotImplemented},
		{"PERSIST_FAILED", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errors.Code(tt.code)); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
