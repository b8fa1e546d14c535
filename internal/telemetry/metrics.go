// Package telemetry provides application-level observability for the CMS backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and served on a
// side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<PCMS_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is intentionally not served by the Gin router so
// the scrape path stays off the public ingress and skips request middleware.
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (the Gin route template such as
// /api/v1/admin/exports/:id/download) rather than the raw URL so user-supplied path
// segments cannot create unbounded label cardinality.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Export pipeline metrics.
//
// ExportsTotal counts finished export attempts by entity type, output format, and
// terminal status (completed/failed). ExportDuration observes the full pipeline run
// including history persistence. ExportPayloadBytes observes the serialized payload
// size of successful exports.
//
// Example PromQL queries:
//   - Failure ratio:        sum(rate(exports_total{status="failed"}[1h])) / sum(rate(exports_total[1h]))
//   - p95 export duration:  histogram_quantile(0.95, rate(export_duration_seconds_bucket[1h]))
var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_total",
			Help: "Total number of finished export attempts, by type, format, and terminal status.",
		},
		[]string{"type", "format", "status"},
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "export_duration_seconds",
			Help:    "Duration of a complete export pipeline run.",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExportPayloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "export_payload_bytes",
			Help:    "Serialized payload size of successful exports.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1 KiB .. 16 GiB
		},
	)
)

// Asset lifecycle metrics.
//
// AssetsDeletedTotal counts asset metadata rows removed, labelled by mode
// ("single" or "bulk"). AssetBinaryDeleteFailuresTotal counts blob-store deletions
// that failed while the metadata row was still removed — a steadily growing value
// means orphaned binaries are accumulating in the blob store.
var (
	AssetsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assets_deleted_total",
			Help: "Total number of asset metadata rows deleted, by deletion mode.",
		},
		[]string{"mode"},
	)

	AssetBinaryDeleteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_binary_delete_failures_total",
			Help: "Total number of blob-store deletions that failed during asset removal.",
		},
	)
)

// AuditLogWritesTotal counts audit trail writes by outcome ("ok" or "error").
// Audit failures never propagate to callers, so this counter is the primary signal
// that the trail is silently incomplete. Alert on rate(audit_log_writes_total{outcome="error"}[15m]) > 0.
var AuditLogWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "audit_log_writes_total",
		Help: "Total number of audit log write attempts, by outcome.",
	},
	[]string{"outcome"},
)

// DBOpenConnections tracks the number of open connections held by the sql.DB pool.
// It is sampled every 30 seconds by StartDBStatsCollector rather than per-request.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds until stopCh is closed.
func StartDBStatsCollector(conn *sql.DB, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				DBOpenConnections.Set(float64(conn.Stats().OpenConnections))
			case <-stopCh:
				slog.Debug("db stats collector stopped")
				return
			}
		}
	}()
}
