package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

// Metrics owns a private registry so tests can build as many instances as
// they like without tripping duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	membershipChanges *prometheus.CounterVec
	cartExports       *prometheus.CounterVec
	cartLines         prometheus.Histogram
	catalogCache      *prometheus.CounterVec
	securityEvents    *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil before Init.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pantry_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggregateOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by operation and outcome code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_aggregate_conflicts_total",
			Help: "Aggregate writes rejected with a conflict.",
		}, []string{"operation"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_aggregate_retryable_total",
			Help: "Aggregate writes failed with a retryable error.",
		}, []string{"operation"}),
		membershipChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_membership_changes_total",
			Help: "Favorite/shopping cart/subscribe edge changes by kind, action and outcome.",
		}, []string{"kind", "action", "status"}),
		cartExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_cart_exports_total",
			Help: "Shopping list exports by format and outcome.",
		}, []string{"format", "status"}),
		cartLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pantry_cart_lines",
			Help:    "Number of aggregated lines per built shopping list.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_catalog_cache_total",
			Help: "Ingredient catalog cache lookups by result.",
		}, []string{"result"}),
		securityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_security_events_total",
			Help: "Auth related events (login failures, rate limiting, invalid tokens).",
		}, []string{"event"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pantry_db_pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.aggregateOps,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.membershipChanges,
		m.cartExports,
		m.cartLines,
		m.catalogCache,
		m.securityEvents,
		m.dbStats,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(labelOr(op, "unknown"), labelOr(status, "unknown")).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(labelOr(op, "unknown")).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(labelOr(op, "unknown")).Inc()
}

func (m *Metrics) IncMembershipChange(kind, action, status string) {
	if m == nil {
		return
	}
	m.membershipChanges.WithLabelValues(labelOr(kind, "unknown"), labelOr(action, "unknown"), labelOr(status, "unknown")).Inc()
}

func (m *Metrics) IncCartExport(format, status string) {
	if m == nil {
		return
	}
	m.cartExports.WithLabelValues(labelOr(format, "unknown"), labelOr(status, "unknown")).Inc()
}

func (m *Metrics) ObserveCartLines(n int) {
	if m == nil {
		return
	}
	m.cartLines.Observe(float64(n))
}

func (m *Metrics) IncCatalogCache(result string) {
	if m == nil {
		return
	}
	m.catalogCache.WithLabelValues(labelOr(result, "unknown")).Inc()
}

func (m *Metrics) IncSecurityEvent(event string) {
	if m == nil {
		return
	}
	m.securityEvents.WithLabelValues(labelOr(event, "unknown")).Inc()
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func labelOr(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
