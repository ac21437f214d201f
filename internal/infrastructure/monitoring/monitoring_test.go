package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMetricsCollector_PipelineCounters(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	m.LabelGenerated("ok")
	m.LabelGenerated("ok")
	m.LabelGenerated("parse_failed")
	m.DataQualityWarning("sugar_exceeds_carbohydrate")
	m.SkippedIngredients(3)
	m.Lookup("found", 20*time.Millisecond)
	m.Lookup("not_found", 5*time.Millisecond)
	m.LookupRetry()
	m.CacheOperation("get", "hit")
	m.Stage("parse", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.labelsGenerated.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.labelsGenerated.WithLabelValues("parse_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dataQualityWarning.WithLabelValues("sugar_exceeds_carbohydrate")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.skippedIngredients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheOperations.WithLabelValues("get", "hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestMetricsCollector_HTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/labels/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/labels/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/labels/{id}", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "nutrilabel_labels_total") ||
		strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestMetricsCollector_RegisterDBStats(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, m.RegisterDBStats(sqlDB, "sqlite"))
	assert.Error(t, m.RegisterDBStats(sqlDB, "sqlite"), "duplicate registration is rejected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_max_open_connections{db_name="sqlite"}`)
}

func TestTracingProvider(t *testing.T) {
	t.Run("DisabledIsNoop", func(t *testing.T) {
		tp, err := NewTracingProvider(TracingConfig{ServiceName: "test"}, zaptest.NewLogger(t))
		require.NoError(t, err)

		ctx, span := tp.Tracer().Start(context.Background(), "op")
		span.End()

		assert.False(t, span.SpanContext().IsValid())
		assert.Empty(t, TraceFields(ctx))
		assert.NoError(t, tp.Shutdown(context.Background()))
	})

	t.Run("EnabledRecordsSpans", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp, err := NewTracingProvider(TracingConfig{
			ServiceName:    "test",
			ServiceVersion: "1.0.0",
			Environment:    "test",
			SamplingRate:   1,
			Enabled:        true,
		}, zaptest.NewLogger(t), recorder)
		require.NoError(t, err)
		defer tp.Shutdown(context.Background())

		ctx, span := tp.Tracer().Start(context.Background(), "op")
		fields := TraceFields(ctx)
		span.End()

		require.Len(t, recorder.Ended(), 1)
		assert.Equal(t, "op", recorder.Ended()[0].Name())
		require.Len(t, fields, 2)
		assert.Equal(t, "trace_id", fields[0].Key)
	})
}

func TestLogSpanProcessor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp, err := NewTracingProvider(TracingConfig{
		ServiceName:  "test",
		SamplingRate: 1,
		Enabled:      true,
	}, zap.NewNop(), NewLogSpanProcessor(zap.New(core)))
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	ctx, parent := tp.Tracer().Start(context.Background(), "parent")
	_, child := tp.Tracer().Start(ctx, "child")
	child.End()
	parent.End()

	entries := logs.FilterMessage("Span finished").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "child", entries[0].ContextMap()["span"])
	assert.Contains(t, entries[0].ContextMap(), "parent_id")
	assert.NotContains(t, entries[1].ContextMap(), "parent_id")
}
