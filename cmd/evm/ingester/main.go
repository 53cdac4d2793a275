package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/evmsync-backend/internal/evmrpc"
	"github.com/goodnatureofminers/evmsync-backend/internal/metrics"
	"github.com/goodnatureofminers/evmsync-backend/internal/repository/postgres"
	"github.com/goodnatureofminers/evmsync-backend/internal/service/ingester"
	"github.com/goodnatureofminers/evmsync-backend/internal/transport"
)

type config struct {
	Port           int           `long:"port" env:"PORT" description:"HTTP listen port" default:"3000"`
	DatabaseURL    string        `long:"database-url" env:"DATABASE_URL" description:"Postgres DSN"`
	HeadTickPeriod time.Duration `long:"head-tick-period" env:"HEAD_TICK_PERIOD" description:"head tick period" default:"5s"`
	GapScanPeriod  time.Duration `long:"gap-scan-period" env:"GAP_SCAN_PERIOD" description:"gap scan period" default:"60s"`
	GapScanLimit   uint64        `long:"gap-scan-limit" env:"GAP_SCAN_LIMIT" description:"max heights fetched per gap scan per chain" default:"10"`
	MemoryCeiling  uint64        `long:"liveness-memory-ceiling" env:"LIVENESS_MEMORY_CEILING_BYTES" description:"in-use heap bytes before liveness fails" default:"1073741824"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("Postgres DSN is required")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("evm ingester failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	repo, err := postgres.NewRepository(ctx, cfg.DatabaseURL, metrics.NewRepository())
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repo.Close()

	prometheus.MustRegister(metrics.NewPoolStatsCollector(repo.PoolStats))

	chains := evmrpc.ConfiguredChainIDsFromEnv()
	gateway := evmrpc.NewGateway(logger, metrics.NewRPCClient(chains))
	if len(chains) == 0 {
		logger.Warn("no chains configured; ingestion loops will idle")
	}
	logger.Info("configured chains", zap.Int32s("chain_ids", chains))

	ingesterMetrics := metrics.NewIngester(chains)

	headTicker, err := ingester.NewHeadTickerService(
		gateway,
		repo,
		ingesterMetrics,
		chains,
		cfg.HeadTickPeriod,
		logger,
	)
	if err != nil {
		return err
	}
	gapScanner, err := ingester.NewGapScannerService(
		gateway,
		repo,
		ingesterMetrics,
		chains,
		cfg.GapScanPeriod,
		cfg.GapScanLimit,
		logger,
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := headTicker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("head ticker stopped", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := gapScanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("gap scanner stopped", zap.Error(err))
		}
	}()

	handler := transport.NewHandler(repo, metrics.NewHTTPServer(), cfg.MemoryCeiling, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           cors.Default().Handler(handler.Router()),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	wg.Wait()
	return nil
}
