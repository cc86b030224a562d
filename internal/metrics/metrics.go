// Package metrics exposes Prometheus metrics for partition runs, the
// partition cache and region persistence, fed by observability hooks.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/landcells/pkg/observability"
)

var (
	SeedsRequestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landcells_seeds_requested_total",
		Help: "Total number of seeds requested from the sampler",
	})
	SeedsSampledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landcells_seeds_sampled_total",
		Help: "Total number of seeds the sampler placed on land",
	})
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landcells_runs_total",
		Help: "Relaxation runs by terminal state",
	}, []string{"state"})
	RunDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "landcells_run_duration_ms",
		Help:    "Relaxation duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
	IterationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landcells_iterations_total",
		Help: "Total number of relaxation iterations",
	})
	IterationMaxMovement = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "landcells_iteration_max_movement_pixels",
		Help: "Largest seed displacement in the most recent iteration",
	})
	DroppedRegionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landcells_dropped_regions_total",
		Help: "Cells that did not overlap land, summed over iterations",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landcells_cache_hits_total",
		Help: "Cache hits by key type",
	}, []string{"key"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landcells_cache_misses_total",
		Help: "Cache misses by key type",
	}, []string{"key"})
	PersistTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landcells_persist_total",
		Help: "Region writes by backend and result",
	}, []string{"backend", "result"})
	PersistDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landcells_persist_duration_ms",
		Help:    "Region write duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"backend"})
	MissingRegionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landcells_missing_regions_total",
		Help: "Expected regions absent from the store after a run",
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(SeedsRequestedTotal)
	prometheus.MustRegister(SeedsSampledTotal)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDurationMs)
	prometheus.MustRegister(IterationsTotal)
	prometheus.MustRegister(IterationMaxMovement)
	prometheus.MustRegister(DroppedRegionsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(PersistTotal)
	prometheus.MustRegister(PersistDurationMs)
	prometheus.MustRegister(MissingRegionsTotal)
}

// Handler serves the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// Install registers the Prometheus hooks with the observability registry.
func Install() {
	observability.SetPipelineHooks(PipelineHooks{})
	observability.SetCacheHooks(CacheHooks{})
	observability.SetStoreHooks(StoreHooks{})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// PipelineHooks records partition runs.
type PipelineHooks struct{}

func (PipelineHooks) OnSampleComplete(_ context.Context, requested, found int, _ time.Duration) {
	SeedsRequestedTotal.Add(float64(requested))
	SeedsSampledTotal.Add(float64(found))
}

func (PipelineHooks) OnRelaxStart(context.Context, int) {}

func (PipelineHooks) OnIteration(_ context.Context, _ int, maxMovement float64, dropped int, _ time.Duration) {
	IterationsTotal.Inc()
	IterationMaxMovement.Set(maxMovement)
	DroppedRegionsTotal.Add(float64(dropped))
}

func (PipelineHooks) OnRelaxComplete(_ context.Context, state string, _ int, d time.Duration, err error) {
	if err != nil {
		state = "error"
	}
	RunsTotal.WithLabelValues(state).Inc()
	RunDurationMs.Observe(ms(d))
}

// CacheHooks records cache lookups.
type CacheHooks struct{}

func (CacheHooks) OnCacheHit(_ context.Context, key string)  { CacheHitsTotal.WithLabelValues(key).Inc() }
func (CacheHooks) OnCacheMiss(_ context.Context, key string) { CacheMissesTotal.WithLabelValues(key).Inc() }
func (CacheHooks) OnCacheSet(context.Context, string, int)   {}

// StoreHooks records region persistence.
type StoreHooks struct{}

func (StoreHooks) OnPersist(_ context.Context, backend string, _ int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PersistTotal.WithLabelValues(backend, result).Inc()
	PersistDurationMs.WithLabelValues(backend).Observe(ms(d))
}

func (StoreHooks) OnMissing(_ context.Context, backend string, count int) {
	MissingRegionsTotal.WithLabelValues(backend).Add(float64(count))
}
