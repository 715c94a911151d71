package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/health", h.HealthHandler())
	router.GET("/ready", h.ReadinessHandler())
	router.GET("/live", LivenessHandler())
	router.GET("/metrics", MetricsHandler())
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.Register("database", func(ctx context.Context) error { return nil })

	router := newRouter(h)
	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	h := NewHealthChecker()
	h.Register("database", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	router := newRouter(h)
	w := get(router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/live").Code)
}

func TestHealthChecker_RunsChecksEachTime(t *testing.T) {
	h := NewHealthChecker()
	calls := 0
	h.Register("counter", func(ctx context.Context) error {
		calls++
		return nil
	})

	h.Run(context.Background())
	h.Run(context.Background())
	assert.Equal(t, 2, calls)
}

func TestMetricsEndpoint(t *testing.T) {
	RegisterCacheHitRate(func() float64 { return 0.75 })
	ProjectsCreated.Inc()

	router := newRouter(NewHealthChecker())
	get(router, "/live")

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `taskpilot_http_requests_total{method="GET",path="/live",status="200"}`))
	assert.Contains(t, body, "taskpilot_projects_created_total")
	assert.Contains(t, body, "taskpilot_cache_hit_rate 0.75")
}

func TestResultLabel(t *testing.T) {
	conflict := errors.New("conflict")
	assert.Equal(t, "ok", ResultLabel(nil, conflict))
	assert.Equal(t, "conflict", ResultLabel(errors.Join(errors.New("x"), conflict), conflict))
	assert.Equal(t, "error", ResultLabel(errors.New("boom"), conflict))
}

func TestHealthHandler_IncludesDetails(t *testing.T) {
	h := NewHealthChecker()
	h.Register("database", func(ctx context.Context) error { return nil })
	h.RegisterDetails("cache", func() map[string]interface{} {
		return map[string]interface{}{"entries": 3}
	})

	w := get(newRouter(h), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"details":{"cache":{"entries":3}}`)
}

func TestQueueDepthGauge(t *testing.T) {
	sizes := map[string]int64{"default": 4, "maintenance": 2}
	RegisterQueueDepth([]string{"default", "maintenance", "dead_queue"}, func(ctx context.Context, queue string) (int64, error) {
		n, ok := sizes[queue]
		if !ok {
			return 0, errors.New("unreachable")
		}
		return n, nil
	})

	router := newRouter(NewHealthChecker())
	body := get(router, "/metrics").Body.String()
	assert.Contains(t, body, `taskpilot_worker_queue_depth{queue="default"} 4`)
	assert.Contains(t, body, `taskpilot_worker_queue_depth{queue="maintenance"} 2`)
	assert.NotContains(t, body, `queue="dead_queue"`)

	RegisterQueueDepth([]string{"default"}, func(ctx context.Context, queue string) (int64, error) {
		return 9, nil
	})
	body = get(router, "/metrics").Body.String()
	assert.Contains(t, body, `taskpilot_worker_queue_depth{queue="default"} 9`)
	assert.NotContains(t, body, `queue="maintenance"`)
}
