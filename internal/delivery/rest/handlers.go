// internal/delivery/rest/handlers.go
package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// GET /api/liquidations
func (h *Handler) liquidations(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows, err := h.deps.Service.Liquidations(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// GET /api/symbols
func (h *Handler) symbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.deps.Service.Symbols(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, symbols)
}

// GET /api/liquidation-orders
// С limit отдает массив, с диапазоном - {data, pagination}
func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.deps.Service.Orders(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if result.Pagination == nil {
		respondJSON(w, http.StatusOK, result.Orders)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GET /api/liquidation-orders/stream
func (h *Handler) streamOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parseQuery(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p.Normalize()
	if err := p.ValidateStream(); err != nil {
		respondError(w, r, err)
		return
	}
	batchSize, err := parseBatchSize(q, h.deps.StreamBatchSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("liquidation_orders_%s_%s_%s.jsonl",
			url.PathEscape(p.Symbol), q.Get("start_timestamp"), q.Get("end_timestamp"))))
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	written := 0

	err = h.deps.Service.StreamOrders(r.Context(), p, batchSize, func(batch []liquidation.Order) error {
		for i := range batch {
			if err := enc.Encode(batch[i]); err != nil {
				return err
			}
		}
		written += len(batch)
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// заголовки уже отправлены: ошибка уходит последней строкой потока
		_, detail := statusFor(err)
		logger.Warn("⚠️ Поток ордеров %s прерван после %d строк: %v", p.Symbol, written, err)
		_ = enc.Encode(map[string]string{"error": "Streaming error: " + detail})
	}
}
