package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exa_provider_requests_total",
			Help: "Total number of calls made to the Exa API",
		},
		[]string{"operation", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exa_provider_request_duration_seconds",
			Help:    "Duration of Exa API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PollOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exa_webset_poll_outcomes_total",
			Help: "Webset waits by terminal outcome",
		},
		[]string{"outcome"},
	)

	WebsetItemsCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exa_webset_items_collected_total",
			Help: "Total number of webset items collected",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exa_bridge_http_requests_total",
			Help: "HTTP requests served by route and status code",
		},
		[]string{"route", "code"},
	)
)

// ObserveProvider records one provider round trip. status is the HTTP status
// code, or 0 when the request never got a response.
func ObserveProvider(operation string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ProviderRequests.WithLabelValues(operation, label).Inc()
	ProviderLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request
func ObserveHTTP(route string, code int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
