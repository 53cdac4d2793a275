// Package ingester drives the per-chain head tick and gap scan loops.
package ingester

import (
	"context"
	"time"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Gateway is the chain read surface the loops consume.
	Gateway interface {
		ChainName(chainID int32) string
		HeadNumber(ctx context.Context, chainID int32) (uint64, error)
		HeaderByNumber(ctx context.Context, chainID int32, number uint64) (model.InsertBlockHeader, error)
	}

	// Repository is the durable header store. It is also the loops' only
	// cursor; the scheduler keeps no persistent state of its own.
	Repository interface {
		LatestBlockHeader(ctx context.Context, chainID int32) (*model.BlockHeader, error)
		InsertBlockHeaders(ctx context.Context, headers []model.InsertBlockHeader) (int64, error)
		MissingBlockHeights(ctx context.Context, chainID int32, limit uint64) ([]uint64, error)
	}

	HeadTickerMetrics interface {
		ObserveHeadTick(chainID int32, head uint64, err error, started time.Time)
		ObserveSchedulerLag(lag time.Duration)
	}

	GapScannerMetrics interface {
		ObserveGapScan(chainID int32, synced int, err error, started time.Time)
		ObserveSchedulerLag(lag time.Duration)
	}
)
