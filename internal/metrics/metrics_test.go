package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProvider(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequests.WithLabelValues("metrics_test", "200"))
	failedBefore := testutil.ToFloat64(ProviderRequests.WithLabelValues("metrics_test", "error"))

	ObserveProvider("metrics_test", 200, 15*time.Millisecond)
	ObserveProvider("metrics_test", 0, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(ProviderRequests.WithLabelValues("metrics_test", "200")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(ProviderRequests.WithLabelValues("metrics_test", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveHTTP("/health", 200)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "exa_bridge_http_requests_total")
}
