// Package transport exposes the HTTP read API over stored block headers.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Repository is the read-only store surface the API serves from.
	Repository interface {
		LatestBlockHeader(ctx context.Context, chainID int32) (*model.BlockHeader, error)
		BlockHeaderByNumber(ctx context.Context, chainID int32, number uint64) (*model.BlockHeader, error)
		Ping(ctx context.Context) error
	}

	// HTTPMetrics records served requests.
	HTTPMetrics interface {
		Observe(method, path string, statusCode int, started time.Time)
	}
)

// Handler serves the read API, health probes, and the metrics endpoint.
type Handler struct {
	logger        *zap.Logger
	repo          Repository
	metrics       HTTPMetrics
	memoryCeiling uint64
}

// NewHandler builds the HTTP handler.
func NewHandler(repo Repository, metrics HTTPMetrics, memoryCeiling uint64, logger *zap.Logger) *Handler {
	if memoryCeiling == 0 {
		memoryCeiling = defaultMemoryCeiling
	}
	return &Handler{
		logger:        logger.Named("http"),
		repo:          repo,
		metrics:       metrics,
		memoryCeiling: memoryCeiling,
	}
}

// Router wires all routes behind the request-metrics middleware.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /evm/blocks/health", h.health)
	mux.HandleFunc("GET /evm/blocks/{chainID}/latest", h.latestBlock)
	mux.HandleFunc("GET /evm/blocks/{chainID}/{number}", h.blockByNumber)
	mux.HandleFunc("GET /health/liveness", h.liveness)
	mux.HandleFunc("GET /health/readiness", h.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", h.notFound)
	return h.instrument(mux)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) latestBlock(w http.ResponseWriter, r *http.Request) {
	chainID, ok := parseChainID(r.PathValue("chainID"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Invalid chain id")
		return
	}

	header, err := h.repo.LatestBlockHeader(r.Context(), chainID)
	if err != nil {
		h.logger.Error("latest block lookup failed", zap.Int32("chain_id", chainID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if header == nil {
		// 200 with a sentinel body, matching the API's documented contract.
		h.writeError(w, http.StatusOK, "Not found")
		return
	}

	h.writeJSON(w, http.StatusOK, header.DTO())
}

func (h *Handler) blockByNumber(w http.ResponseWriter, r *http.Request) {
	chainID, ok := parseChainID(r.PathValue("chainID"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Invalid chain id")
		return
	}
	number, err := strconv.ParseUint(r.PathValue("number"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid block number")
		return
	}

	header, err := h.repo.BlockHeaderByNumber(r.Context(), chainID, number)
	if err != nil {
		h.logger.Error("block lookup failed",
			zap.Int32("chain_id", chainID),
			zap.Uint64("number", number),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if header == nil {
		h.writeError(w, http.StatusOK, "Not found")
		return
	}

	h.writeJSON(w, http.StatusOK, header.DTO())
}

func (h *Handler) notFound(w http.ResponseWriter, _ *http.Request) {
	h.writeError(w, http.StatusNotFound, "Not found")
}

func parseChainID(raw string) (int32, bool) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		h.metrics.Observe(r.Method, r.URL.Path, ww.status, started)
	})
}

// statusRecorder captures the response code for metrics labeling.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
