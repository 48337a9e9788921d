package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Коллекторы регистрируются в глобальном реестре один раз при инициализации пакета
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	alertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts created by category and source (manual or geofence)",
		},
		[]string{"category", "source"},
	)

	alertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Geofence alerts suppressed by the cooldown policy",
		},
	)

	alertTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_transitions_total",
			Help: "Alert status transitions by target status",
		},
		[]string{"to"},
	)

	geofenceChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_checks_total",
			Help: "Point-in-zone checks by outcome",
		},
		[]string{"matched"},
	)

	broadcastDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_dropped_total",
			Help: "Real-time frames dropped because a subscriber buffer was full or publish failed",
		},
		[]string{"channel"},
	)

	realtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Currently connected WebSocket clients",
		},
	)
)

func AlertCreated(category string, automatic bool) {
	source := "manual"
	if automatic {
		source = "geofence"
	}
	alertsCreated.WithLabelValues(category, source).Inc()
}

func AlertSuppressed() { alertsSuppressed.Inc() }

func AlertTransition(to string) { alertTransitions.WithLabelValues(to).Inc() }

func GeofenceCheck(matched bool) {
	geofenceChecks.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

// BroadcastDropped - канал пользователя схлопывается в "user", чтобы не плодить метки
func BroadcastDropped(channel string) {
	if channel != "authority" {
		channel = "user"
	}
	broadcastDropped.WithLabelValues(channel).Inc()
}

func ConnectionOpened() { realtimeConnections.Inc() }

func ConnectionClosed() { realtimeConnections.Dec() }

// GinMiddleware собирает счётчик и длительность HTTP-запросов
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
