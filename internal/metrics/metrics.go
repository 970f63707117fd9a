package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APICalls counts upstream data-API requests by function and outcome.
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocketl_api_calls_total",
			Help: "Upstream data API calls by function and status",
		},
		[]string{"function", "status"},
	)

	// StorageOps counts object-store operations by type and outcome.
	StorageOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocketl_storage_operations_total",
			Help: "Object store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RowsUpserted counts relational rows written by table.
	RowsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocketl_rows_upserted_total",
			Help: "Rows upserted into the relational sink by table",
		},
		[]string{"table"},
	)

	// StageDuration observes wall time per extraction stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocketl_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// RunsTotal counts pipeline invocations by outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocketl_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"status"},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
