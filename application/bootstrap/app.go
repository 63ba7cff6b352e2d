// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/application/services/orchestrator"
	"github.com/lazy-geeek/liqui-api/internal/delivery/rest"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/keys"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/memory"
	redis "github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/redis"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/metrics"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/database"
	liquidations_repo "github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/repository/liquidations"
	events "github.com/lazy-geeek/liqui-api/internal/infrastructure/transport/event_bus"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/transport/pgnotify"
	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

const metricsNamespace = "liqui_api"

// Application - процесс API со всеми ресурсами
type Application struct {
	config *config.Config

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	stopChan  chan os.Signal

	metrics         *metrics.Collector
	databaseService *database.DatabaseService
	redisService    *redis.RedisService
	memoryStore     *memory.Store
	breaker         *breaker.Breaker
	eventBus        *events.EventBus
	listener        *pgnotify.Listener
	orchestrator    *orchestrator.Orchestrator
	server          *rest.Server
}

// NewApplication создает приложение без открытия ресурсов
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Application{
		config:   cfg,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// Initialize открывает пул БД, кеш, шину событий и собирает HTTP API
func (app *Application) Initialize() error {
	cfg := app.config

	app.metrics = metrics.NewCollector(metricsNamespace)

	// 1. База данных
	app.databaseService = database.NewDatabaseService(cfg)
	if err := app.databaseService.Start(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	executor := database.NewExecutor(app.databaseService.GetDB(),
		cfg.Database.QueryTimeout, cfg.Database.LongQueryTimeout, app.metrics)

	repo, err := liquidations_repo.NewLiquidationRepository(executor,
		cfg.Database.TableName, cfg.Database.AggregationPushdown)
	if err != nil {
		return fmt.Errorf("liquidation repository: %w", err)
	}

	// 2. Кеш
	store, err := app.initCacheStore()
	if err != nil {
		return err
	}

	app.breaker = breaker.New(breaker.Settings{
		Name:             "cache",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Window:           cfg.Breaker.Window,
		Cooldown:         cfg.Breaker.Cooldown,
		MaxCooldown:      cfg.Breaker.MaxCooldown,
		Multiplier:       cfg.Breaker.Multiplier,
		OnStateChange:    app.onBreakerChange,
	})
	app.metrics.BreakerChanged(app.breaker.Name(), breaker.StateClosed, breaker.StateClosed)

	app.eventBus = events.NewEventBusFromConfig(cfg)
	app.orchestrator = orchestrator.New(
		cache.NewGuarded(store, app.breaker),
		app.breaker,
		keys.NewCodec(cfg.Cache.MaxKeyLength),
		repo,
		orchestrator.SettingsFromConfig(cfg.Cache),
		orchestrator.WithMetrics(app.metrics),
		orchestrator.WithEventBus(app.eventBus),
	)

	// 3. Инвалидация по NOTIFY
	app.eventBus.SubscribeAll(app.orchestrator.InvalidationSubscriber())
	app.eventBus.SubscribeAll(app.warmReporter())

	if cfg.Invalidation.Enabled {
		app.listener = pgnotify.NewListener(cfg.GetPostgresDSN(), cfg.Invalidation, app.eventBus)
	}

	// 4. HTTP
	app.server = rest.NewServer(cfg.Server, rest.NewRouter(rest.Deps{
		Service:         app.orchestrator,
		Cache:           app.orchestrator,
		HealthChecks:    app.healthChecks(),
		Observer:        app.metrics,
		Metrics:         app.metrics.Handler(),
		StreamBatchSize: cfg.Server.StreamBatchSize,
	}))

	logger.Info("✅ Приложение инициализировано")
	return nil
}

func (app *Application) initCacheStore() (cache.Store, error) {
	cfg := app.config

	if !cfg.Redis.Enabled {
		logger.Info("💾 Redis отключен, используется кеш в памяти")
		app.memoryStore = memory.NewStore(time.Minute)
		return app.memoryStore, nil
	}

	app.redisService = redis.NewRedisService(cfg)
	if err := app.redisService.Start(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewCache(app.redisService.GetClient(), redis.CacheOptions{
		OpTimeout:     cfg.Cache.OpTimeout,
		ScanTimeout:   cfg.Cache.ScanTimeout,
		ScanBatchSize: cfg.Cache.ScanBatchSize,
	}), nil
}

func (app *Application) onBreakerChange(name string, from, to breaker.State) {
	switch to {
	case breaker.StateOpen:
		logger.Warn("🔌 Предохранитель %s: %s -> %s, кеш обходится", name, from, to)
	default:
		logger.Info("🔌 Предохранитель %s: %s -> %s", name, from, to)
	}
	if app.metrics != nil {
		app.metrics.BreakerChanged(name, from, to)
	}
}

// warmReporter переносит итоги прогрева в метрики
func (app *Application) warmReporter() *events.BaseSubscriber {
	return events.NewBaseSubscriber("warm-reporter", []types.EventType{types.EventCacheWarmed},
		func(event types.Event) error {
			report, ok := event.Data.(orchestrator.WarmReport)
			if !ok {
				return fmt.Errorf("unexpected %s payload %T", event.Type, event.Data)
			}
			app.metrics.WarmFinished(report.Warmed, report.Empty, report.Failed)
			return nil
		})
}

func (app *Application) healthChecks() []rest.HealthCheck {
	checks := []rest.HealthCheck{{
		Name:     "database",
		Critical: true,
		Check:    app.databaseService.HealthCheck,
	}}

	if app.redisService != nil {
		checks = append(checks, rest.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				if !app.redisService.HealthCheck(ctx) {
					return errors.New("redis not available, running in fallback mode")
				}
				return nil
			},
		})
	}
	return checks
}
