// internal/delivery/rest/cache_handlers.go
package rest

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GET /api/cache/stats
func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.deps.Cache.Stats(r.Context())
	message := "Cache statistics retrieved successfully"
	if !stats.BackendAvailable {
		message = "Cache not available"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cache_stats": stats,
		"message":     message,
	})
}

// POST /api/cache/clear?pattern=
func (h *Handler) cacheClear(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	n, err := h.deps.Cache.Clear(r.Context(), pattern)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted_keys": n,
		"pattern":      pattern,
		"message":      fmt.Sprintf("Successfully cleared %d cache entries", n),
	})
}

// POST /api/cache/invalidate/symbol/{symbol}
func (h *Handler) invalidateSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	n, err := h.deps.Cache.InvalidateSymbol(r.Context(), symbol)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted_keys": n,
		"symbol":       symbol,
		"message":      fmt.Sprintf("Successfully invalidated %d cache entries for symbol %s", n, symbol),
	})
}

// POST /api/cache/invalidate/symbols
func (h *Handler) invalidateSymbols(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Cache.InvalidateSymbols(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Symbols cache invalidated successfully",
	})
}

// POST /api/cache/warm
func (h *Handler) warm(w http.ResponseWriter, r *http.Request) {
	runID, started := h.deps.Cache.StartWarm()
	if !started {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"message": "Cache warming is already running",
			"status":  "running",
		})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Cache warming started in background",
		"status":  "initiated",
		"run_id":  runID,
	})
}
