package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/evmsync-backend/internal/clock"
	"github.com/goodnatureofminers/evmsync-backend/internal/evmrpc"
	"github.com/goodnatureofminers/evmsync-backend/internal/model"
	"github.com/goodnatureofminers/evmsync-backend/pkg/workerpool"
)

// GapScannerService fills interior holes in each chain's stored range on a
// long cadence. It never proposes heights outside the range the head tick
// has already observed, so the two loops cooperate without locking.
type GapScannerService struct {
	logger      *zap.Logger
	gateway     Gateway
	repo        Repository
	metrics     GapScannerMetrics
	chains      []int32
	period      time.Duration
	limit       uint64
	workerCount int
	scanOnStart bool
}

// NewGapScannerService builds a GapScannerService with dependencies.
func NewGapScannerService(
	gateway Gateway,
	repo Repository,
	metrics GapScannerMetrics,
	chains []int32,
	period time.Duration,
	limit uint64,
	logger *zap.Logger,
) (*GapScannerService, error) {
	if metrics == nil {
		return nil, errors.New("gap scanner metrics is required")
	}
	if period <= 0 {
		period = defaultGapScanPeriod
	}
	if limit == 0 {
		limit = defaultGapScanLimit
	}

	return &GapScannerService{
		logger:      logger.Named("gapScanner"),
		gateway:     gateway,
		repo:        repo,
		metrics:     metrics,
		chains:      chains,
		period:      period,
		limit:       limit,
		workerCount: defaultChainWorkerCount,
		scanOnStart: true,
	}, nil
}

// Run drives the gap scan loop until the context is canceled. One scan fires
// immediately so a fresh process starts repairing without waiting a full period.
func (s *GapScannerService) Run(ctx context.Context) error {
	s.logger.Info("starting gap scan loop",
		zap.Duration("period", s.period),
		zap.Uint64("limit", s.limit),
		zap.Int("chain_count", len(s.chains)),
	)
	if s.scanOnStart {
		s.scan(ctx)
	}
	return clock.Loop(ctx, s.period, s.metrics.ObserveSchedulerLag, s.scan)
}

func (s *GapScannerService) scan(ctx context.Context) {
	workerpool.Each(ctx, s.workerCount, s.chains, s.scanChain)
}

func (s *GapScannerService) scanChain(ctx context.Context, chainID int32) {
	started := time.Now()
	logger := s.logger.With(
		zap.Int32("chain_id", chainID),
		zap.String("chain", s.gateway.ChainName(chainID)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.period)
	defer cancel()

	synced, err := s.fillGaps(ctx, logger, chainID)
	s.metrics.ObserveGapScan(chainID, len(synced), err, started)
	if err != nil {
		if errors.Is(err, evmrpc.ErrChainUnknown) {
			logger.Error("chain has no transport configured", zap.Error(err))
		} else {
			logger.Warn("gap scan failed", zap.Error(err))
		}
		return
	}
	if len(synced) > 0 {
		logger.Info("synced missing blocks", zap.Uint64s("heights", synced))
	}
}

// fillGaps aborts a chain's scan on the first fetch failure and discards any
// partial results; the next scan re-derives the same heights from the store.
func (s *GapScannerService) fillGaps(ctx context.Context, logger *zap.Logger, chainID int32) ([]uint64, error) {
	latest, err := s.repo.LatestBlockHeader(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("latest block header: %w", err)
	}
	if latest == nil {
		logger.Debug("No blocks in DB yet")
		return nil, nil
	}

	missing, err := s.repo.MissingBlockHeights(ctx, chainID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("missing block heights: %w", err)
	}
	if len(missing) == 0 {
		logger.Debug("No missing blocks found")
		return nil, nil
	}

	type job struct {
		idx    int
		number uint64
	}
	jobs := make([]job, len(missing))
	for i, n := range missing {
		jobs[i] = job{idx: i, number: n}
	}

	// Distinct workers write distinct indices; at most limit requests are in
	// flight for the chain.
	headers := make([]model.InsertBlockHeader, len(missing))
	err = workerpool.Process(ctx, len(jobs), jobs, func(ctx context.Context, j job) error {
		header, fetchErr := s.gateway.HeaderByNumber(ctx, chainID, j.number)
		if fetchErr != nil {
			if errors.Is(fetchErr, evmrpc.ErrNotFound) {
				logger.Error("stored neighbors reference a height the node cannot serve",
					zap.Uint64("height", j.number),
				)
			}
			return fmt.Errorf("header %d: %w", j.number, fetchErr)
		}
		headers[j.idx] = header
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.InsertBlockHeaders(ctx, headers); err != nil {
		return nil, fmt.Errorf("insert block headers: %w", err)
	}

	return missing, nil
}
