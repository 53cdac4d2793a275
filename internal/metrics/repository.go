// Package metrics defines Prometheus collectors for the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dbQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_queries_total",
		Help: "Count of block store queries.",
	}, []string{"model", "action", "success"})
	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_seconds",
		Help:    "Duration of block store queries.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"model", "action", "success"})
)

const headerModel = "evm_block_headers"

// Repository tracks metrics for block store operations.
type Repository struct{}

// NewRepository creates a Repository metrics collector.
func NewRepository() *Repository {
	return &Repository{}
}

// Observe records duration and outcome of a single store operation.
func (m Repository) Observe(operation string, err error, started time.Time) {
	success := strconv.FormatBool(err == nil)

	dbQueriesTotal.WithLabelValues(headerModel, operation, success).Inc()
	dbQueryDuration.WithLabelValues(headerModel, operation, success).Observe(time.Since(started).Seconds())
}
