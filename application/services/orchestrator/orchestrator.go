// application/services/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/keys"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	liquidations_repo "github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/repository/liquidations"
	"github.com/lazy-geeek/liqui-api/internal/types"
)

// ErrNotFound - по запросу нет данных
var ErrNotFound = errors.New("no data found")

// Metrics - счетчики кеша, которые ведет оркестратор
type Metrics interface {
	CacheResult(class, result string)
	CacheError(operation string)
	Invalidated(scope string, n int)
}

type noopMetrics struct{}

func (noopMetrics) CacheResult(string, string) {}
func (noopMetrics) CacheError(string)          {}
func (noopMetrics) Invalidated(string, int)    {}

// Settings - TTL классов данных и параметры прогрева
type Settings struct {
	TTLLiquidations time.Duration
	TTLSymbols      time.Duration
	TTLOrders       time.Duration
	Warm            WarmSettings
}

// WarmSettings - что и как прогревать
type WarmSettings struct {
	Symbols     []string
	Timeframes  []string
	Window      time.Duration
	Concurrency int
	Timeout     time.Duration
}

// SettingsFromConfig собирает Settings из конфигурации приложения
func SettingsFromConfig(cfg config.CacheConfig) Settings {
	return Settings{
		TTLLiquidations: cfg.TTLLiquidations,
		TTLSymbols:      cfg.TTLSymbols,
		TTLOrders:       cfg.TTLOrders,
		Warm: WarmSettings{
			Symbols:     cfg.WarmSymbols,
			Timeframes:  cfg.WarmTimeframes,
			Window:      cfg.WarmWindow,
			Concurrency: cfg.WarmConcurrency,
			Timeout:     cfg.WarmTimeout,
		},
	}
}

// Orchestrator реализует cache-aside поверх хранилища ликвидаций
type Orchestrator struct {
	store    cache.Store
	breaker  *breaker.Breaker
	codec    *keys.Codec
	repo     liquidations_repo.LiquidationRepository
	metrics  Metrics
	bus      types.EventBus
	settings Settings
	now      func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	// фоновые прогревы
	mu       sync.Mutex
	warming  bool
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
	lastWarm *WarmReport
}

// Option настраивает Orchestrator
type Option func(*Orchestrator)

// WithMetrics подключает метрики
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithEventBus включает публикацию событий о завершении прогрева
func WithEventBus(bus types.EventBus) Option {
	return func(o *Orchestrator) {
		o.bus = bus
	}
}

// WithClock подменяет часы (для тестов прогрева)
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New создает оркестратор. store обычно обернут в cache.Guarded с тем же breaker
func New(store cache.Store, br *breaker.Breaker, codec *keys.Codec,
	repo liquidations_repo.LiquidationRepository, settings Settings, opts ...Option) *Orchestrator {

	bgCtx, bgCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:    store,
		breaker:  br,
		codec:    codec,
		repo:     repo,
		metrics:  noopMetrics{},
		settings: settings,
		now:      time.Now,
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stop отменяет фоновые прогревы и ждет их завершения
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.bgCancel()
	o.mu.Unlock()
	o.wg.Wait()
}

// Name возвращает имя сервиса
func (o *Orchestrator) Name() string {
	return "CacheAsideOrchestrator"
}
