// Package metrics exposes the Prometheus collectors of the playout service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a playlist resolution.
const (
	OutcomeModified    = "modified"
	OutcomeNotModified = "not_modified"
	OutcomeFallback    = "fallback"
	OutcomeEmpty       = "empty"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playout_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playout_api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	// Playout metrics
	PlaylistResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_playlist_resolutions_total",
			Help: "Playlist resolutions by outcome",
		},
		[]string{"outcome"},
	)

	PlaylistLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playout_playlist_items",
			Help:    "Number of items in resolved playlists",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Telemetry metrics
	PlayEventsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playout_play_events_ingested_total",
			Help: "Total number of play events stored",
		},
	)

	HeartbeatsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playout_heartbeats_ingested_total",
			Help: "Total number of heartbeats stored",
		},
	)

	LocationSamples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playout_location_samples_total",
			Help: "Location observations of moving screens by sampling decision",
		},
		[]string{"decision"}, // "recorded", "discarded"
	)

	// Provisioning metrics
	PlayersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playout_players_registered_total",
			Help: "Total number of players created",
		},
	)
)

// RecordPlaylist records a playlist resolution outcome and its length.
func RecordPlaylist(outcome string, items int) {
	PlaylistResolutions.WithLabelValues(outcome).Inc()
	if outcome != OutcomeNotModified {
		PlaylistLength.Observe(float64(items))
	}
}

// RecordLocationSample records a sampler decision.
func RecordLocationSample(recorded bool) {
	decision := "discarded"
	if recorded {
		decision = "recorded"
	}
	LocationSamples.WithLabelValues(decision).Inc()
}

// GinMiddleware instruments requests by matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		APIActiveRequests.Inc()
		defer APIActiveRequests.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		APIRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
