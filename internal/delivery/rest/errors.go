// internal/delivery/rest/errors.go
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lazy-geeek/liqui-api/application/services/orchestrator"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/database"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
	"github.com/lazy-geeek/liqui-api/pkg/period"
)

// errorResponse - тело ответа об ошибке
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor сопоставляет ошибку со статусом HTTP и текстом для клиента
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, period.ErrInvalidTimestamp):
		return http.StatusBadRequest, "start_timestamp and end_timestamp must be valid Unix timestamps in milliseconds or datetime strings in ISO format"
	case errors.Is(err, period.ErrInvalidTimeframe),
		errors.Is(err, liquidation.ErrInvalidParameters):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orchestrator.ErrNotFound):
		return http.StatusNotFound, "No data found for the given parameters"
	case errors.Is(err, database.ErrQueryTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Query timed out"
	case errors.Is(err, database.ErrPoolExhausted),
		errors.Is(err, database.ErrConnection):
		return http.StatusServiceUnavailable, "Database service unavailable"
	case errors.Is(err, cache.ErrUnavailable):
		return http.StatusServiceUnavailable, "Cache not available"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled):
		logger.Error("❌ %s %s: %v", r.Method, r.URL.Path, err)
	case status >= http.StatusBadRequest:
		logger.Debug("⚠️ %s %s: %v", r.Method, r.URL.Path, err)
	}
	respondJSON(w, status, errorResponse{Detail: detail})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("⚠️ Не удалось записать ответ: %v", err)
	}
}
