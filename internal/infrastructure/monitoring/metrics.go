package monitoring

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Label pipeline metrics
	labelsGenerated    *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	dataQualityWarning *prometheus.CounterVec
	skippedIngredients prometheus.Counter

	// Lookup metrics
	lookupsTotal    *prometheus.CounterVec
	lookupDuration  prometheus.Histogram
	lookupRetries   prometheus.Counter
	cacheOperations *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector on its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		// HTTP metrics
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Label pipeline metrics
		labelsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrilabel_labels_total",
				Help: "Label generations by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutrilabel_stage_duration_seconds",
				Help:    "Duration of the parse, resolve and finalize stages",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 9),
			},
			[]string{"stage"},
		),
		dataQualityWarning: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrilabel_data_quality_warnings_total",
				Help: "Data quality corrections applied during aggregation",
			},
			[]string{"kind"},
		),
		skippedIngredients: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nutrilabel_skipped_ingredients_total",
				Help: "Ingredients left out of a dish because no nutrient data was resolved",
			},
		),

		// Lookup metrics
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrilabel_lookups_total",
				Help: "Nutrient lookups by outcome",
			},
			[]string{"outcome"},
		),
		lookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nutrilabel_lookup_duration_seconds",
				Help:    "Nutrient lookup duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		lookupRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nutrilabel_lookup_retries_total",
				Help: "Retried nutrient lookup attempts",
			},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrilabel_cache_operations_total",
				Help: "Lookup cache operations",
			},
			[]string{"operation", "status"},
		),
	}
}

// HTTPMiddleware records request counts and durations by route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// LabelGenerated counts a finished label generation
func (m *MetricsCollector) LabelGenerated(outcome string) {
	m.labelsGenerated.WithLabelValues(outcome).Inc()
}

// Stage observes the duration of a pipeline stage
func (m *MetricsCollector) Stage(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// DataQualityWarning counts a correction applied during aggregation
func (m *MetricsCollector) DataQualityWarning(kind string) {
	m.dataQualityWarning.WithLabelValues(kind).Inc()
}

// SkippedIngredients counts ingredients left out of a dish
func (m *MetricsCollector) SkippedIngredients(n int) {
	m.skippedIngredients.Add(float64(n))
}

// Lookup records one nutrient lookup
func (m *MetricsCollector) Lookup(outcome string, duration time.Duration) {
	m.lookupsTotal.WithLabelValues(outcome).Inc()
	m.lookupDuration.Observe(duration.Seconds())
}

// LookupRetry counts one retried lookup attempt
func (m *MetricsCollector) LookupRetry() {
	m.lookupRetries.Inc()
}

// CacheOperation counts a lookup cache operation
func (m *MetricsCollector) CacheOperation(operation, status string) {
	m.cacheOperations.WithLabelValues(operation, status).Inc()
}

// RegisterDBStats exports connection pool statistics for db under the
// db_name label
func (m *MetricsCollector) RegisterDBStats(db *sql.DB, name string) error {
	if err := m.registry.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		m.logger.Warn("Failed to register database pool metrics", zap.String("db_name", name), zap.Error(err))
		return err
	}
	return nil
}

// Registry returns the registry the collector writes to
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
