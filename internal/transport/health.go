package transport

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMemoryCeiling = 1 << 30 // 1 GiB of in-use heap

	readinessTimeout = 5 * time.Second
)

// liveness checks only process-local signals.
func (h *Handler) liveness(w http.ResponseWriter, _ *http.Request) {
	if !h.memoryHealthy() {
		h.writeError(w, http.StatusServiceUnavailable, "Memory ceiling exceeded")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// readiness additionally requires the block store to be reachable.
func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if !h.memoryHealthy() {
		h.writeError(w, http.StatusServiceUnavailable, "Memory ceiling exceeded")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warn("readiness store ping failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "Store unreachable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) memoryHealthy() bool {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc < h.memoryCeiling
}
