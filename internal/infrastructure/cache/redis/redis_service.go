// internal/infrastructure/cache/redis/redis_service.go
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisService управляет жизненным циклом клиента Redis
type RedisService struct {
	mu     sync.RWMutex
	config *config.Config
	client *redis.Client
	state  ServiceState
}

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateDegraded ServiceState = "degraded"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// NewRedisService создает новый Redis сервис
func NewRedisService(cfg *config.Config) *RedisService {
	return &RedisService{
		config: cfg,
		state:  StateStopped,
	}
}

// BuildOptions собирает redis.Options из конфигурации; REDIS_URL имеет приоритет
func BuildOptions(rc config.RedisConfig) (*redis.Options, error) {
	var options *redis.Options
	if rc.URL != "" {
		parsed, err := redis.ParseURL(rc.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		options = parsed
	} else {
		options = &redis.Options{
			Addr:     fmt.Sprintf("%s:%d", rc.Host, rc.Port),
			Password: rc.Password,
			DB:       rc.DB,
		}
		if rc.UseTLS {
			options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	// Настройки пула соединений
	options.PoolSize = rc.PoolSize
	options.MinIdleConns = rc.MinIdleConns

	// Таймауты
	options.DialTimeout = rc.DialTimeout
	options.ReadTimeout = rc.ReadTimeout
	options.WriteTimeout = rc.WriteTimeout
	options.PoolTimeout = rc.PoolTimeout
	options.IdleTimeout = rc.IdleTimeout
	options.MaxConnAge = rc.MaxConnAge

	// Повторные попытки
	options.MaxRetries = rc.MaxRetries
	options.MinRetryBackoff = rc.MinRetryBackoff
	options.MaxRetryBackoff = rc.MaxRetryBackoff

	return options, nil
}

// Start создает клиента и проверяет подключение. Недоступный Redis не останавливает
// запуск: сервис переходит в degraded, а запросы идут в БД через предохранитель.
func (rs *RedisService) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.state == StateRunning || rs.state == StateDegraded {
		return fmt.Errorf("Redis service already running")
	}

	logger.Info("🔄 Starting Redis service...")
	rs.state = StateStarting

	options, err := BuildOptions(rs.config.Redis)
	if err != nil {
		rs.state = StateError
		return err
	}

	rs.client = redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("📡 Connecting to Redis: %s (DB: %d)", options.Addr, options.DB)

	if _, err := rs.client.Ping(ctx).Result(); err != nil {
		rs.state = StateDegraded
		logger.Warn("⚠️ Redis is not reachable, continuing without cache: %v (address: %s)", err, options.Addr)
		return nil
	}

	rs.state = StateRunning

	logger.Info("✅ Successfully connected to Redis")
	logger.Info("   • Address: %s", options.Addr)
	logger.Info("   • Database: %d", options.DB)
	logger.Info("   • Pool size: %d", options.PoolSize)
	logger.Info("   • Min idle connections: %d", options.MinIdleConns)

	return nil
}

// Stop закрывает клиента
func (rs *RedisService) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.client == nil {
		return fmt.Errorf("Redis service is not running")
	}

	logger.Info("🛑 Stopping Redis service...")
	rs.state = StateStopping

	if err := rs.client.Close(); err != nil {
		rs.state = StateError
		logger.Error("❌ Failed to close Redis client: %v", err)
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	rs.client = nil
	rs.state = StateStopped
	logger.Info("✅ Redis service stopped")

	return nil
}

// GetClient возвращает клиент Redis
func (rs *RedisService) GetClient() *redis.Client {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.client
}

// State возвращает состояние сервиса
func (rs *RedisService) State() ServiceState {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.state
}

// HealthCheck пингует Redis и обновляет состояние running/degraded
func (rs *RedisService) HealthCheck(ctx context.Context) bool {
	client := rs.GetClient()
	if client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	healthy := client.Ping(ctx).Err() == nil

	rs.mu.Lock()
	if rs.state == StateRunning || rs.state == StateDegraded {
		if healthy {
			rs.state = StateRunning
		} else {
			rs.state = StateDegraded
		}
	}
	rs.mu.Unlock()

	if !healthy {
		logger.Debug("⚠️ Redis health check failed")
	}
	return healthy
}

// GetStats возвращает статистику пула
func (rs *RedisService) GetStats() map[string]interface{} {
	client := rs.GetClient()
	stats := map[string]interface{}{
		"state":     rs.State(),
		"connected": client != nil,
	}

	if client != nil {
		poolStats := client.PoolStats()

		stats["pool_hits"] = poolStats.Hits
		stats["pool_misses"] = poolStats.Misses
		stats["pool_timeouts"] = poolStats.Timeouts
		stats["pool_total_conns"] = poolStats.TotalConns
		stats["pool_idle_conns"] = poolStats.IdleConns
		stats["pool_stale_conns"] = poolStats.StaleConns
		stats["pool_size"] = client.Options().PoolSize
	}

	return stats
}

// Name возвращает имя сервиса
func (rs *RedisService) Name() string {
	return "RedisService"
}
