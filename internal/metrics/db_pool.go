package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	dbConnectionsActiveDesc = prometheus.NewDesc(
		"db_connections_active",
		"Number of connections currently acquired from the pool.",
		nil, nil,
	)
	dbConnectionsIdleDesc = prometheus.NewDesc(
		"db_connections_idle",
		"Number of idle connections in the pool.",
		nil, nil,
	)
)

// PoolStatsCollector exposes live connection-pool gauges. The stats func is
// read at scrape time so the values are never stale snapshots.
type PoolStatsCollector struct {
	stats func() (active, idle int32)
}

// NewPoolStatsCollector builds a collector around a pool stats provider.
func NewPoolStatsCollector(stats func() (active, idle int32)) *PoolStatsCollector {
	return &PoolStatsCollector{stats: stats}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dbConnectionsActiveDesc
	ch <- dbConnectionsIdleDesc
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	active, idle := c.stats()
	ch <- prometheus.MustNewConstMetric(dbConnectionsActiveDesc, prometheus.GaugeValue, float64(active))
	ch <- prometheus.MustNewConstMetric(dbConnectionsIdleDesc, prometheus.GaugeValue, float64(idle))
}
