package ingester

import "time"

const (
	defaultHeadTickPeriod = 5 * time.Second
	defaultGapScanPeriod  = 1 * time.Minute

	defaultGapScanLimit uint64 = 10

	defaultChainWorkerCount = 8
)
