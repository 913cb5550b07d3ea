// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through hook interfaces; the binary decides at
// startup which implementation receives them. The defaults do nothing, so
// library code never depends on a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks, err := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    observability.SetHTTPHooks(hooks)
//	}
//
// Libraries call hooks around their work:
//
//	observability.Pipeline().OnConstructStart(ctx, topology, len(blocks))
//	// ... construct ...
//	observability.Pipeline().OnConstructComplete(ctx, topology, atoms, bonds, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the construction pipeline.
type PipelineHooks interface {
	// Building block loading
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, numBlocks int, duration time.Duration, err error)

	// Construction
	OnConstructStart(ctx context.Context, topology string, numBlocks int)
	OnConstructComplete(ctx context.Context, topology string, numAtoms, numBonds int, duration time.Duration, err error)

	// Export
	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations. keyType is the key
// prefix: construct, artifact or render.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API. route is the matched route
// pattern, not the raw path.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                         {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)           {}
func (NoopPipelineHooks) OnConstructStart(context.Context, string, int)                               {}
func (NoopPipelineHooks) OnConstructComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                                     {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
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

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
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

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
