package healthcheck_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	redisstore "github.com/alchemorsel/nutrilabel/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutrilabel/pkg/healthcheck"
	"github.com/alchemorsel/nutrilabel/test/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fixed(status healthcheck.Status, message string) *healthcheck.CustomChecker {
	return healthcheck.NewCustomChecker("fixed", func(context.Context) (healthcheck.Status, string, interface{}) {
		return status, message, nil
	})
}

func TestHealthCheck_Check(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]healthcheck.Status
		want     healthcheck.Status
	}{
		{"NoCheckers", nil, healthcheck.StatusHealthy},
		{"AllHealthy", map[string]healthcheck.Status{"a": healthcheck.StatusHealthy, "b": healthcheck.StatusHealthy}, healthcheck.StatusHealthy},
		{"DegradedWins", map[string]healthcheck.Status{"a": healthcheck.StatusHealthy, "b": healthcheck.StatusDegraded}, healthcheck.StatusDegraded},
		{"UnhealthyWins", map[string]healthcheck.Status{"a": healthcheck.StatusDegraded, "b": healthcheck.StatusUnhealthy}, healthcheck.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
			for name, status := range tt.statuses {
				hc.Register(name, fixed(status, ""))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.want, response.Status)
			assert.Equal(t, "1.0.0", response.Version)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_ChecksAreNamedAndSorted(t *testing.T) {
	hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
	hc.Register("zeta", fixed(healthcheck.StatusHealthy, ""))
	hc.Register("alpha", fixed(healthcheck.StatusHealthy, ""))

	response := hc.Check(context.Background())

	require.Len(t, response.Checks, 2)
	assert.Equal(t, "alpha", response.Checks[0].Name)
	assert.Equal(t, "zeta", response.Checks[1].Name)
}

func TestHealthCheck_CachesResponse(t *testing.T) {
	var calls int32
	hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
	hc.Register("counter", healthcheck.NewCustomChecker("counter", func(context.Context) (healthcheck.Status, string, interface{}) {
		atomic.AddInt32(&calls, 1)
		return healthcheck.StatusHealthy, "", nil
	}))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHealthCheck_Handlers(t *testing.T) {
	t.Run("HealthyReturns200", func(t *testing.T) {
		hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
		hc.Register("db", fixed(healthcheck.StatusHealthy, "ok"))

		rec := httptest.NewRecorder()
		hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Contains(t, body, "total_duration_ms")
	})

	t.Run("UnhealthyReturns503", func(t *testing.T) {
		hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
		hc.Register("db", fixed(healthcheck.StatusUnhealthy, "down"))

		rec := httptest.NewRecorder()
		hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		rec = httptest.NewRecorder()
		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_ready")
	})

	t.Run("LivenessIgnoresCheckers", func(t *testing.T) {
		hc := healthcheck.New("1.0.0", zaptest.NewLogger(t))
		hc.Register("db", fixed(healthcheck.StatusUnhealthy, "down"))

		rec := httptest.NewRecorder()
		hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})
}

func TestDatabaseChecker(t *testing.T) {
	db := testutils.SetupSQLite(t)

	check := healthcheck.NewDatabaseChecker(db).Check(context.Background())

	assert.Equal(t, healthcheck.StatusHealthy, check.Status)
	metadata, ok := check.Metadata.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sqlite", metadata["dialect"])
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	check := healthcheck.NewRedisChecker(client).Check(context.Background())

	assert.Equal(t, healthcheck.StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestRedisChecker_Container(t *testing.T) {
	testutils.SkipUnlessIntegration(t)
	cfg := testutils.SetupRedis(t)

	client, err := redisstore.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	check := healthcheck.NewRedisChecker(client).Check(context.Background())

	assert.Equal(t, healthcheck.StatusHealthy, check.Status)
}
