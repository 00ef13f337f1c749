// Package metrics exposes Prometheus instrumentation for the catalog
// client, the view registry and the WebSocket hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieontip_backend_requests_total",
			Help: "Total number of requests sent to the catalog backend",
		},
		[]string{"operation", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieontip_backend_request_duration_seconds",
			Help:    "Catalog backend request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	ViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieontip_views_active",
			Help: "Number of mounted views held by the registry",
		},
	)

	ViewFetchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movieontip_view_fetches_superseded_total",
			Help: "Fetch results discarded because a newer fetch was started or the view was closed",
		},
	)

	FavouriteMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieontip_favourite_mutations_total",
			Help: "Favourite add/remove attempts by result",
		},
		[]string{"action", "result"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieontip_websocket_connections_active",
			Help: "Current number of WebSocket connections",
		},
	)

	BackendUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieontip_backend_up",
			Help: "1 when the last backend health probe succeeded",
		},
	)
)

// RecordBackendRequest records one catalog backend call.
func RecordBackendRequest(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFavouriteMutation records the result of a favourite add or remove.
func RecordFavouriteMutation(action, result string) {
	FavouriteMutations.WithLabelValues(action, result).Inc()
}

// SetWSConnections reports the current WebSocket client count.
func SetWSConnections(n int) {
	WSConnections.Set(float64(n))
}

// SetBackendUp reports the backend probe result.
func SetBackendUp(up bool) {
	BackendUp.Set(boolToFloat(up))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
