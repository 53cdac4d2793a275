package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	headTickErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "head_tick_errors_total",
		Help: "Count of failed head ticks per chain.",
	}, []string{"chain_id"})
	gapScanErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gap_scan_errors_total",
		Help: "Count of failed gap scans per chain.",
	}, []string{"chain_id"})
	headBlockNumber = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "head_block_number",
		Help: "Last observed head block number per chain.",
	}, []string{"chain_id"})
	schedulerLag = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventloop_or_scheduler_lag_seconds",
		Help: "Observed lag between scheduled and actual tick dispatch.",
	})

	headTickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evmsync",
		Subsystem: "ingester",
		Name:      "head_tick_duration_seconds",
		Help:      "Duration of a single chain head tick.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain_id", "status"})
	gapScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evmsync",
		Subsystem: "ingester",
		Name:      "gap_scan_duration_seconds",
		Help:      "Duration of a single chain gap scan.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain_id", "status"})
	gapScanSyncedHeights = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evmsync",
		Subsystem: "ingester",
		Name:      "gap_scan_synced_heights",
		Help:      "Number of missing heights synced per gap scan.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	}, []string{"chain_id"})
)

// Ingester tracks metrics for the two scheduler loops. The chain_id label
// domain is capped to the configured chains; anything else records as
// "unknown".
type Ingester struct {
	chains map[int32]string
}

// NewIngester constructs an Ingester metrics collector for the configured chains.
func NewIngester(chainIDs []int32) *Ingester {
	chains := make(map[int32]string, len(chainIDs))
	for _, id := range chainIDs {
		chains[id] = strconv.FormatInt(int64(id), 10)
	}
	return &Ingester{chains: chains}
}

func (m Ingester) chainLabel(chainID int32) string {
	if label, ok := m.chains[chainID]; ok {
		return label
	}
	return "unknown"
}

// ObserveHeadTick records the outcome of one chain's head tick.
func (m Ingester) ObserveHeadTick(chainID int32, head uint64, err error, started time.Time) {
	chain := m.chainLabel(chainID)
	status := "success"
	if err != nil {
		status = "error"
		headTickErrorsTotal.WithLabelValues(chain).Inc()
	} else {
		headBlockNumber.WithLabelValues(chain).Set(float64(head))
	}
	headTickDuration.WithLabelValues(chain, status).Observe(time.Since(started).Seconds())
}

// ObserveGapScan records the outcome of one chain's gap scan.
func (m Ingester) ObserveGapScan(chainID int32, synced int, err error, started time.Time) {
	chain := m.chainLabel(chainID)
	status := "success"
	if err != nil {
		status = "error"
		gapScanErrorsTotal.WithLabelValues(chain).Inc()
	} else if synced > 0 {
		gapScanSyncedHeights.WithLabelValues(chain).Observe(float64(synced))
	}
	gapScanDuration.WithLabelValues(chain, status).Observe(time.Since(started).Seconds())
}

// ObserveSchedulerLag publishes the latest dispatch lag of either timer.
func (m Ingester) ObserveSchedulerLag(lag time.Duration) {
	schedulerLag.Set(lag.Seconds())
}
