package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("truelive")

	m.RouteSelected("news")
	m.RouteSelected("news")
	m.RouteSelected("assistant")
	m.ProviderFailed("openai")
	m.StoreFailed("save")

	require.Equal(t, 2.0, testutil.ToFloat64(m.Routes.WithLabelValues("news")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Routes.WithLabelValues("assistant")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("openai")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("save")))
}

func TestMetrics_InstancesAreIsolated(t *testing.T) {
	a := NewMetrics("truelive")
	b := NewMetrics("truelive")

	a.RouteSelected("welcome")

	require.Equal(t, 1.0, testutil.ToFloat64(a.Routes.WithLabelValues("welcome")))
	require.Equal(t, 0.0, testutil.ToFloat64(b.Routes.WithLabelValues("welcome")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("truelive")
	m.RouteSelected("knowledge")
	m.ObserveResponse(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `truelive_routes_total{route="knowledge"} 1`)
	require.Contains(t, body, "truelive_response_latency_ms_count 1")
}
