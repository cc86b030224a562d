// Package server exposes partition runs over HTTP.
//
// A client uploads a map image with transparent water to POST /v1/partitions
// and gets the run back as JSON. Finished runs are held in memory, most
// recent first, and can be read back as region lists or rendered artifacts:
//
//	POST /v1/partitions                         partition an uploaded image
//	GET  /v1/partitions                         list held runs
//	GET  /v1/partitions/{run}                   run summary and regions
//	GET  /v1/partitions/{run}/regions           region records
//	GET  /v1/partitions/{run}/regions/{region}  one region record
//	GET  /v1/partitions/{run}/artifacts/{format} rendered artifact
//	GET  /metrics                               Prometheus metrics
//	GET  /healthz                               liveness
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/landcells/internal/metrics"
	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/landmask"
	"github.com/matzehuels/landcells/pkg/pipeline"
	"github.com/matzehuels/landcells/pkg/region"
)

const (
	// DefaultMaxRuns bounds the number of runs held in memory.
	DefaultMaxRuns = 64

	// DefaultMaxUpload bounds the uploaded image size.
	DefaultMaxUpload = 32 << 20

	// DefaultTimeout bounds a single partition request.
	DefaultTimeout = 2 * time.Minute
)

// defaultFormats are rendered for every run so artifacts can be fetched
// later without recomputing.
var defaultFormats = []string{pipeline.FormatJSON, pipeline.FormatGeoJSON, pipeline.FormatWKT, pipeline.FormatPNG}

var contentTypes = map[string]string{
	pipeline.FormatJSON:    "application/json",
	pipeline.FormatGeoJSON: "application/geo+json",
	pipeline.FormatWKT:     "text/plain; charset=utf-8",
	pipeline.FormatDOT:     "text/vnd.graphviz",
	pipeline.FormatSVG:     "image/svg+xml",
	pipeline.FormatPNG:     "image/png",
}

// Options configures a Server.
type Options struct {
	Defaults  pipeline.Options // applied before query parameters
	MaxRuns   int
	MaxUpload int64
	Timeout   time.Duration
	Logger    *log.Logger
}

// Server runs partitions on request and keeps recent results.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger

	mu    sync.RWMutex
	runs  map[string]*pipeline.Result
	order []string // oldest first
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxRuns <= 0 {
		opts.MaxRuns = DefaultMaxRuns
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		runner: runner,
		opts:   opts,
		logger: opts.Logger,
		runs:   make(map[string]*pipeline.Result),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1/partitions", func(r chi.Router) {
		r.With(middleware.Timeout(s.opts.Timeout)).Post("/", s.createPartition)
		r.Get("/", s.listPartitions)
		r.Route("/{run}", func(r chi.Router) {
			r.Get("/", s.getPartition)
			r.Get("/regions", s.listRegions)
			r.Get("/regions/{region}", s.getRegion)
			r.Get("/artifacts/{format}", s.getArtifact)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) createPartition(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	img, err := imaging.Decode(io.LimitReader(r.Body, s.opts.MaxUpload))
	if err != nil {
		writeError(w, &errors.ImageFormatError{Reason: fmt.Sprintf("decode upload: %v", err)})
		return
	}
	m, err := landmask.FromImage(img)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), m, img, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.put(res)

	w.Header().Set("Location", "/v1/partitions/"+res.RunID)
	writeJSON(w, http.StatusCreated, res)
}

type runSummary struct {
	RunID    string `json:"run_id"`
	MaskHash string `json:"mask_hash"`
	Regions  int    `json:"regions"`
	State    string `json:"state"`
	CacheHit bool   `json:"cache_hit"`
}

func (s *Server) listPartitions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]runSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		res := s.runs[s.order[i]]
		out = append(out, runSummary{
			RunID:    res.RunID,
			MaskHash: res.MaskHash,
			Regions:  len(res.Partition.Regions),
			State:    res.Partition.State.String(),
			CacheHit: res.CacheHit,
		})
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPartition(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listRegions(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	recs := make([]region.Record, len(res.Partition.Regions))
	for i, reg := range res.Partition.Regions {
		recs[i] = reg.ToRecord(res.RunID)
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getRegion(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "region"))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "region id %q is not a number", chi.URLParam(r, "region")))
		return
	}
	for _, reg := range res.Partition.Regions {
		if reg.ID == id {
			writeJSON(w, http.StatusOK, reg.ToRecord(res.RunID))
			return
		}
	}
	writeError(w, errors.New(errors.ErrCodeNotFound, "region %d not in run %s", id, res.RunID))
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	data, ok := res.Artifacts[format]
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "run %s has no %s artifact", res.RunID, format))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(data)
}

// =============================================================================
// Run registry
// =============================================================================

func (s *Server) put(res *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.RunID] = res
	s.order = append(s.order, res.RunID)
	for len(s.order) > s.opts.MaxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns a held run.
func (s *Server) Get(runID string) (*pipeline.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.runs[runID]
	return res, ok
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	id := chi.URLParam(r, "run")
	if err := errors.ValidateRunID(id); err != nil {
		writeError(w, err)
		return nil, false
	}
	res, ok := s.Get(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "run %s not found", id))
	}
	return res, ok
}

// =============================================================================
// Request parsing
// =============================================================================

// parseOptions overlays query parameters on the server defaults.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.opts.Defaults
	opts.Formats = defaultFormats
	q := r.URL.Query()

	intParam := func(name string, dst *int) error {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "%s: %q is not an integer", name, v)
			}
			*dst = n
		}
		return nil
	}
	floatParam := func(name string, dst *float64) error {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a number", name, v)
			}
			*dst = f
		}
		return nil
	}

	if err := intParam("regions", &opts.Regions); err != nil {
		return opts, err
	}
	if err := intParam("iterations", &opts.Iterations); err != nil {
		return opts, err
	}
	if err := floatParam("threshold", &opts.MovementThreshold); err != nil {
		return opts, err
	}
	if err := floatParam("simplify", &opts.Simplify); err != nil {
		return opts, err
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "seed: %q is not an unsigned integer", v)
		}
		opts.Seed = n
	}
	if v := q.Get("policy"); v != "" {
		opts.Policy = v
	}
	if v := q.Get("boundary"); v != "" {
		opts.Boundary = v
	}
	if v := q.Get("formats"); v != "" {
		opts.Formats = strings.Split(v, ",")
	}
	opts.Refresh = q.Get("refresh") == "true"
	opts.Overlay.Seeds = q.Get("seeds") == "true"
	opts.Overlay.Centroids = q.Get("centroids") == "true"
	opts.Logger = s.logger

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeImageFormat, errors.ErrCodeDegenerateInput, errors.ErrCodeInsufficientLand:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
