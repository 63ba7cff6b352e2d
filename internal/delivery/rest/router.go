// internal/delivery/rest/router.go
package rest

import (
	"context"
	"net/http"

	"github.com/lazy-geeek/liqui-api/application/services/orchestrator"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// LiquidationService - чтение данных о ликвидациях
type LiquidationService interface {
	Liquidations(ctx context.Context, p liquidation.QueryParameters) ([]liquidation.AggregatedRow, error)
	Symbols(ctx context.Context) ([]string, error)
	Orders(ctx context.Context, p liquidation.QueryParameters) (liquidation.OrdersResult, error)
	StreamOrders(ctx context.Context, p liquidation.QueryParameters, batchSize int, fn func([]liquidation.Order) error) error
}

// CacheManager - управление кешем
type CacheManager interface {
	Stats(ctx context.Context) orchestrator.Stats
	Clear(ctx context.Context, pattern string) (int, error)
	InvalidateSymbol(ctx context.Context, symbol string) (int, error)
	InvalidateSymbols(ctx context.Context) error
	StartWarm() (string, bool)
}

// HealthCheck - проверка компонента; некритичный компонент дает статус degraded
type HealthCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Deps - зависимости роутера
type Deps struct {
	Service         LiquidationService
	Cache           CacheManager
	HealthChecks    []HealthCheck
	Observer        HTTPObserver
	Metrics         http.Handler
	StreamBatchSize int
}

// Handler - обработчики API
type Handler struct {
	deps Deps
}

// NewRouter создает chi-роутер со всеми маршрутами API
func NewRouter(deps Deps) http.Handler {
	h := &Handler{deps: deps}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(deps.Observer))
	router.Use(chimiddleware.Compress(5, "application/json", "application/x-ndjson"))

	router.Get("/health", h.health)
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics)
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/liquidations", h.liquidations)
		r.Get("/symbols", h.symbols)
		r.Get("/liquidation-orders", h.orders)
		r.Get("/liquidation-orders/stream", h.streamOrders)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.cacheStats)
			r.Post("/clear", h.cacheClear)
			r.Post("/invalidate/symbol/{symbol}", h.invalidateSymbol)
			r.Post("/invalidate/symbols", h.invalidateSymbols)
			r.Post("/warm", h.warm)
		})
	})

	return router
}
