package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
type MetricsService struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	resourcesFlagged prometheus.Counter
	accountsBlocked  prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetricsService builds a registry with Go runtime, process and application
// collectors registered.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &MetricsService{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulibrary_http_requests_total",
			Help: "Total HTTP requests processed, by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edulibrary_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		resourcesFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulibrary_resources_red_flagged_total",
			Help: "Resources that crossed the one-star red-flag threshold.",
		}),
		accountsBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulibrary_accounts_blocked_total",
			Help: "Admin accounts blocked by the moderation engine.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulibrary_stats_cache_hits_total",
			Help: "Review stat lookups served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edulibrary_stats_cache_misses_total",
			Help: "Review stat lookups that fell through to the database.",
		}),
	}

	registry.MustRegister(
		s.requestsTotal,
		s.requestDuration,
		s.resourcesFlagged,
		s.accountsBlocked,
		s.cacheHits,
		s.cacheMisses,
	)
	return s
}

// Handler exposes the registry in the Prometheus text format.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request.
func (s *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	s.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveResourceFlagged records a resource crossing the red-flag threshold.
func (s *MetricsService) ObserveResourceFlagged() { s.resourcesFlagged.Inc() }

// ObserveAccountBlocked records an admin account being blocked.
func (s *MetricsService) ObserveAccountBlocked() { s.accountsBlocked.Inc() }

// ObserveCacheHit records a stats cache hit.
func (s *MetricsService) ObserveCacheHit() { s.cacheHits.Inc() }

// ObserveCacheMiss records a stats cache miss.
func (s *MetricsService) ObserveCacheMiss() { s.cacheMisses.Inc() }
