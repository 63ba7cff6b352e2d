// internal/infrastructure/metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector хранит метрики сервиса в собственном реестре
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CacheRequests *prometheus.CounterVec
	CacheErrors   *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec
	Invalidations *prometheus.CounterVec
	WarmEntries   *prometheus.GaugeVec

	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewCollector создает метрики с указанным namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by data class and result (hit, miss, bypass)",
			},
			[]string{"class", "result"},
		),
		CacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Cache operations that failed or were short-circuited",
			},
			[]string{"operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open",
			},
			[]string{"name"},
		),
		Invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidated_keys_total",
				Help:      "Keys removed by invalidation",
			},
			[]string{"scope"},
		),
		WarmEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_warm_last_entries",
				Help:      "Entries of the last cache warm run by result (warmed, empty, failed)",
			},
			[]string{"result"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Query duration in seconds by statement and timeout class",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"statement", "mode"},
		),
		QueryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_query_errors_total",
				Help:      "Failed queries by statement and kind",
			},
			[]string{"statement", "kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheRequests,
		c.CacheErrors,
		c.BreakerState,
		c.Invalidations,
		c.WarmEntries,
		c.QueryDuration,
		c.QueryErrors,
	)

	return c
}

// Registry возвращает реестр (для тестов и дополнительных метрик)
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler отдает метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveQuery реализует database.QueryObserver
func (c *Collector) ObserveQuery(statement string, mode database.Mode, elapsed time.Duration, err error) {
	c.QueryDuration.WithLabelValues(statement, mode.String()).Observe(elapsed.Seconds())
	if err != nil {
		c.QueryErrors.WithLabelValues(statement, queryErrorKind(err)).Inc()
	}
}

// CacheResult учитывает исход чтения из кеша
func (c *Collector) CacheResult(class, result string) {
	c.CacheRequests.WithLabelValues(class, result).Inc()
}

// CacheError учитывает сбой операции кеша
func (c *Collector) CacheError(operation string) {
	c.CacheErrors.WithLabelValues(operation).Inc()
}

// Invalidated учитывает удаленные ключи
func (c *Collector) Invalidated(scope string, n int) {
	c.Invalidations.WithLabelValues(scope).Add(float64(n))
}

// WarmFinished фиксирует итог последнего прогрева
func (c *Collector) WarmFinished(warmed, empty, failed int64) {
	c.WarmEntries.WithLabelValues("warmed").Set(float64(warmed))
	c.WarmEntries.WithLabelValues("empty").Set(float64(empty))
	c.WarmEntries.WithLabelValues("failed").Set(float64(failed))
}

// BreakerChanged - обработчик смены состояния предохранителя
func (c *Collector) BreakerChanged(name string, _, to breaker.State) {
	c.BreakerState.WithLabelValues(name).Set(float64(to))
}

// ObserveHTTP учитывает HTTP запрос
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func queryErrorKind(err error) string {
	switch {
	case errors.Is(err, database.ErrQueryTimeout):
		return "timeout"
	case errors.Is(err, database.ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, database.ErrConnection):
		return "connection"
	case errors.Is(err, database.ErrBackendQuery):
		return "backend"
	default:
		return "other"
	}
}
