// Package metrics provides Prometheus metrics for the media organizer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorts_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shorts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	filesMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorts_files_moved_total",
			Help: "Files moved from downloads into a category",
		},
		[]string{"status"},
	)

	filesRelocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shorts_files_relocated_total",
			Help: "Files returned to downloads by category deletion",
		},
	)

	categoryOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorts_category_operations_total",
			Help: "Category create and delete operations",
		},
		[]string{"op", "status"},
	)

	eventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorts_events_broadcast_total",
			Help: "Events pushed to the real-time channel",
		},
		[]string{"event"},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shorts_events_dropped_total",
			Help: "Events dropped for slow real-time clients",
		},
	)

	wsClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shorts_ws_clients_active",
			Help: "Connected real-time clients",
		},
	)

	downloadFolderRecreations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shorts_download_folder_recreations_total",
			Help: "Times the downloads folder was found missing and recreated",
		},
	)

	newFilesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shorts_new_files_detected_total",
			Help: "New files announced by the downloads watcher",
		},
	)

	autoSortMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shorts_auto_sort_moves_total",
			Help: "Files moved by auto-sort rules",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFileMove records a move from downloads into a category.
func RecordFileMove(success bool) {
	filesMovedTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordRelocations records files sent back to downloads.
func RecordRelocations(n int) {
	filesRelocatedTotal.Add(float64(n))
}

// RecordCategoryOp records a category create or delete.
func RecordCategoryOp(op string, success bool) {
	categoryOpsTotal.WithLabelValues(op, statusLabel(success)).Inc()
}

// RecordBroadcast records one event handed to the real-time channel.
func RecordBroadcast(event string) {
	eventsBroadcastTotal.WithLabelValues(event).Inc()
}

// RecordDroppedEvent records an event discarded for a slow client.
func RecordDroppedEvent() {
	eventsDroppedTotal.Inc()
}

// SetWSClients sets the number of connected real-time clients.
func SetWSClients(n int) {
	wsClientsActive.Set(float64(n))
}

// RecordFolderRecreated records a downloads folder recreation.
func RecordFolderRecreated() {
	downloadFolderRecreations.Inc()
}

// RecordNewFile records a new-file announcement.
func RecordNewFile() {
	newFilesDetected.Inc()
}

// RecordAutoSortMove records an auto-sort move attempt.
func RecordAutoSortMove(success bool) {
	autoSortMovesTotal.WithLabelValues(statusLabel(success)).Inc()
}

// GinMiddleware records request metrics labelled by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
