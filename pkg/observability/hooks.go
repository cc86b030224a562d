// Package observability lets callers observe partition runs without the
// library depending on a metrics backend.
//
// Hooks are process-wide and default to no-ops. Register them once at
// startup:
//
//	observability.SetPipelineHooks(metrics.PipelineHooks{})
//	observability.SetStoreHooks(metrics.StoreHooks{})
//
// Library code emits events through the accessors:
//
//	observability.Pipeline().OnRelaxStart(ctx, len(seeds))
//	observability.Pipeline().OnRelaxComplete(ctx, state, iterations, elapsed, err)
//
// TeePipeline fans one event stream out to several receivers, so a
// progress display can run next to registered metrics.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from a partition run.
type PipelineHooks interface {
	// Sampling events
	OnSampleComplete(ctx context.Context, requested, found int, duration time.Duration)

	// Relaxation events
	OnRelaxStart(ctx context.Context, seeds int)
	OnIteration(ctx context.Context, iteration int, maxMovement float64, dropped int, duration time.Duration)
	OnRelaxComplete(ctx context.Context, state string, iterations int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from region persistence.
type StoreHooks interface {
	// OnPersist records one region write. err is nil on success.
	OnPersist(ctx context.Context, backend string, regionID int, duration time.Duration, err error)

	// OnMissing records regions expected but never written.
	OnMissing(ctx context.Context, backend string, count int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnSampleComplete(context.Context, int, int, time.Duration)          {}
func (NoopPipelineHooks) OnRelaxStart(context.Context, int)                                  {}
func (NoopPipelineHooks) OnIteration(context.Context, int, float64, int, time.Duration)      {}
func (NoopPipelineHooks) OnRelaxComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnPersist(context.Context, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnMissing(context.Context, string, int)                      {}

// TeePipeline returns hooks that forward every event to each of hooks in
// order. Nil entries are skipped.
func TeePipeline(hooks ...PipelineHooks) PipelineHooks {
	var t teePipeline
	for _, h := range hooks {
		if h != nil {
			t = append(t, h)
		}
	}
	return t
}

type teePipeline []PipelineHooks

func (t teePipeline) OnSampleComplete(ctx context.Context, requested, found int, d time.Duration) {
	for _, h := range t {
		h.OnSampleComplete(ctx, requested, found, d)
	}
}

func (t teePipeline) OnRelaxStart(ctx context.Context, seeds int) {
	for _, h := range t {
		h.OnRelaxStart(ctx, seeds)
	}
}

func (t teePipeline) OnIteration(ctx context.Context, iteration int, maxMovement float64, dropped int, d time.Duration) {
	for _, h := range t {
		h.OnIteration(ctx, iteration, maxMovement, dropped, d)
	}
}

func (t teePipeline) OnRelaxComplete(ctx context.Context, state string, iterations int, d time.Duration, err error) {
	for _, h := range t {
		h.OnRelaxComplete(ctx, state, iterations, d, err)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStoreHooks registers store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	storeHooks = NoopStoreHooks{}
}
