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

// HeadTickerService persists the current head of every configured chain on a
// short cadence. Each chain's work is independent; one chain failing never
// delays or aborts the others.
type HeadTickerService struct {
	logger      *zap.Logger
	gateway     Gateway
	repo        Repository
	metrics     HeadTickerMetrics
	chains      []int32
	period      time.Duration
	workerCount int
}

// NewHeadTickerService builds a HeadTickerService with dependencies.
func NewHeadTickerService(
	gateway Gateway,
	repo Repository,
	metrics HeadTickerMetrics,
	chains []int32,
	period time.Duration,
	logger *zap.Logger,
) (*HeadTickerService, error) {
	if metrics == nil {
		return nil, errors.New("head ticker metrics is required")
	}
	if period <= 0 {
		period = defaultHeadTickPeriod
	}

	return &HeadTickerService{
		logger:      logger.Named("headTicker"),
		gateway:     gateway,
		repo:        repo,
		metrics:     metrics,
		chains:      chains,
		period:      period,
		workerCount: defaultChainWorkerCount,
	}, nil
}

// Run drives the head tick loop until the context is canceled.
func (s *HeadTickerService) Run(ctx context.Context) error {
	s.logger.Info("starting head tick loop",
		zap.Duration("period", s.period),
		zap.Int("chain_count", len(s.chains)),
	)
	return clock.Loop(ctx, s.period, s.metrics.ObserveSchedulerLag, s.tick)
}

func (s *HeadTickerService) tick(ctx context.Context) {
	workerpool.Each(ctx, s.workerCount, s.chains, s.tickChain)
}

func (s *HeadTickerService) tickChain(ctx context.Context, chainID int32) {
	started := time.Now()
	logger := s.logger.With(
		zap.Int32("chain_id", chainID),
		zap.String("chain", s.gateway.ChainName(chainID)),
	)

	// Each tick runs under one timer period; the next tick is the retry.
	ctx, cancel := context.WithTimeout(ctx, s.period)
	defer cancel()

	head, err := s.syncHead(ctx, chainID)
	s.metrics.ObserveHeadTick(chainID, head, err, started)
	if err != nil {
		if errors.Is(err, evmrpc.ErrChainUnknown) {
			logger.Error("chain has no transport configured", zap.Error(err))
		} else {
			logger.Warn("head tick failed", zap.Error(err))
		}
		return
	}

	logger.Debug("head synced", zap.Uint64("head", head))
}

func (s *HeadTickerService) syncHead(ctx context.Context, chainID int32) (uint64, error) {
	head, err := s.gateway.HeadNumber(ctx, chainID)
	if err != nil {
		return 0, fmt.Errorf("head number: %w", err)
	}

	header, err := s.gateway.HeaderByNumber(ctx, chainID, head)
	if err != nil {
		return head, fmt.Errorf("header %d: %w", head, err)
	}

	if _, err := s.repo.InsertBlockHeaders(ctx, []model.InsertBlockHeader{header}); err != nil {
		return head, fmt.Errorf("insert head header: %w", err)
	}

	return head, nil
}
