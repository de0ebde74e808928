// Package metrics exposes Prometheus counters and histograms for map
// expansion, LLM calls, exports and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziadkadry99/mindmap/internal/llm"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// Collector holds every metric of the service on its own registry.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Expansions *prometheus.CounterVec

	LLMRequests *prometheus.CounterVec
	LLMDuration *prometheus.HistogramVec
	LLMTokens   *prometheus.CounterVec

	Exports        *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Expansions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_expansions_total",
				Help:      "Node expand calls by outcome and whether subtopics were requested",
			},
			[]string{"outcome", "fetched"},
		),
		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of LLM completion calls",
			},
			[]string{"provider", "status"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "LLM completion latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"provider"},
		),
		LLMTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Tokens consumed by LLM calls",
			},
			[]string{"provider", "direction"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Map exports by format and status",
			},
			[]string{"format", "status"},
		),
		ExportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Time to rasterize and encode an export",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.Expansions,
		c.LLMRequests, c.LLMDuration, c.LLMTokens,
		c.Exports, c.ExportDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveExpand implements tree.Recorder.
func (c *Collector) ObserveExpand(outcome tree.Outcome, fetched bool) {
	c.Expansions.WithLabelValues(string(outcome), strconv.FormatBool(fetched)).Inc()
}

// ObserveCompletion implements llm.Observer.
func (c *Collector) ObserveCompletion(provider string, elapsed time.Duration, resp *llm.CompletionResponse, err error) {
	c.LLMRequests.WithLabelValues(provider, status(err)).Inc()
	c.LLMDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if resp != nil {
		c.LLMTokens.WithLabelValues(provider, "input").Add(float64(resp.InputTokens))
		c.LLMTokens.WithLabelValues(provider, "output").Add(float64(resp.OutputTokens))
	}
}

// ObserveExport implements render.Recorder.
func (c *Collector) ObserveExport(format string, elapsed time.Duration, err error) {
	c.Exports.WithLabelValues(format, status(err)).Inc()
	c.ExportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// Middleware records HTTP request counts and latency by route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
