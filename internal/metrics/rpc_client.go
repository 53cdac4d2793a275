package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evmsync",
		Subsystem: "rpc_client",
		Name:      "operations_total",
		Help:      "Count of node RPC operations.",
	}, []string{"operation", "chain_id", "status"})
	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evmsync",
		Subsystem: "rpc_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of node RPC operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "chain_id", "status"})
)

// RPCClient tracks metrics for RPC calls to EVM nodes. The chain_id label
// domain is capped to the configured chains; anything else records as
// "unknown".
type RPCClient struct {
	chains map[int32]string
}

// NewRPCClient constructs a metrics collector for RPC calls against the
// configured chains.
func NewRPCClient(chainIDs []int32) *RPCClient {
	chains := make(map[int32]string, len(chainIDs))
	for _, id := range chainIDs {
		chains[id] = strconv.FormatInt(int64(id), 10)
	}
	return &RPCClient{chains: chains}
}

func (m RPCClient) chainLabel(chainID int32) string {
	if label, ok := m.chains[chainID]; ok {
		return label
	}
	return "unknown"
}

// Observe records a single RPC call outcome and duration.
func (m RPCClient) Observe(operation string, chainID int32, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	chain := m.chainLabel(chainID)
	rpcRequestsTotal.WithLabelValues(operation, chain, status).Inc()
	rpcRequestDuration.WithLabelValues(operation, chain, status).Observe(time.Since(started).Seconds())
}
