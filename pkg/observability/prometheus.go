package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "molforge"

// PrometheusHooks implements PipelineHooks, CacheHooks and HTTPHooks on top
// of Prometheus collectors.
type PrometheusHooks struct {
	stageTotal    *prometheus.CounterVec   // by stage and status (ok/error)
	stageDuration *prometheus.HistogramVec // by stage
	blocksLoaded  prometheus.Counter
	atomsBuilt    prometheus.Histogram

	cacheTotal *prometheus.CounterVec // by key type and result (hit/miss/set)
	cacheBytes *prometheus.CounterVec // by key type

	httpTotal    *prometheus.CounterVec   // by method, route and status code
	httpDuration *prometheus.HistogramVec // by method and route
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// A nil registerer falls back to prometheus.DefaultRegisterer.
func NewPrometheusHooks(reg prometheus.Registerer) (*PrometheusHooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	h := &PrometheusHooks{
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total number of pipeline stages run",
		}, []string{"stage", "status"}),

		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),

		blocksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "blocks_loaded_total",
			Help:      "Total number of building blocks loaded",
		}),

		atomsBuilt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "constructed_atoms",
			Help:      "Number of atoms in constructed molecules",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),

		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Total number of cache operations",
		}, []string{"key_type", "result"}),

		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Total number of bytes written to the cache",
		}, []string{"key_type"}),

		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "route", "code"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		h.stageTotal, h.stageDuration, h.blocksLoaded, h.atomsBuilt,
		h.cacheTotal, h.cacheBytes, h.httpTotal, h.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *PrometheusHooks) finish(stage string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.stageTotal.WithLabelValues(stage, status).Inc()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnLoadStart(context.Context, string) {}

func (h *PrometheusHooks) OnLoadComplete(_ context.Context, _ string, numBlocks int, d time.Duration, err error) {
	h.finish("load", d, err)
	if err == nil {
		h.blocksLoaded.Add(float64(numBlocks))
	}
}

func (h *PrometheusHooks) OnConstructStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnConstructComplete(_ context.Context, _ string, numAtoms, _ int, d time.Duration, err error) {
	h.finish("construct", d, err)
	if err == nil {
		h.atomsBuilt.Observe(float64(numAtoms))
	}
}

func (h *PrometheusHooks) OnExportStart(context.Context, []string) {}

func (h *PrometheusHooks) OnExportComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.finish("export", d, err)
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheTotal.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	h.httpTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
