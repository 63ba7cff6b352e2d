// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/keys"
	"github.com/lazy-geeek/liqui-api/pkg/period"
)

// ============================================
// КОНФИГУРАЦИЯ HTTP СЕРВЕРА
// ============================================

// ServerConfig - параметры HTTP API
type ServerConfig struct {
	Host            string        `mapstructure:"HTTP_HOST"`
	Port            int           `mapstructure:"HTTP_PORT"`
	ReadTimeout     time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `mapstructure:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"HTTP_SHUTDOWN_TIMEOUT"`
	StreamBatchSize int           `mapstructure:"STREAM_BATCH_SIZE"`
}

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация источника данных
type DatabaseConfig struct {
	// Основные параметры подключения
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	// Таблица ликвидаций (может быть schema.table)
	TableName string `mapstructure:"DB_LIQ_TABLENAME"`

	// Настройки пула соединений
	MinConns        int           `mapstructure:"DB_POOL_MIN"`
	MaxConns        int           `mapstructure:"DB_POOL_MAX"`
	MaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`

	// Таймауты запросов
	QueryTimeout     time.Duration `mapstructure:"QUERY_TIMEOUT_SECONDS"`
	LongQueryTimeout time.Duration `mapstructure:"LONG_QUERY_TIMEOUT_SECONDS"`

	// Агрегация на стороне БД или в процессе
	AggregationPushdown bool `mapstructure:"AGGREGATION_PUSHDOWN"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	// URL в стиле Dokku имеет приоритет над отдельными полями
	URL string `mapstructure:"REDIS_URL"`

	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`

	Enabled bool `mapstructure:"REDIS_ENABLED"`

	// Настройки пула соединений
	PoolSize        int           `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConns    int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	MaxRetries      int           `mapstructure:"REDIS_MAX_RETRIES"`
	MinRetryBackoff time.Duration `mapstructure:"REDIS_MIN_RETRY_BACKOFF"`
	MaxRetryBackoff time.Duration `mapstructure:"REDIS_MAX_RETRY_BACKOFF"`
	DialTimeout     time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout     time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`
	PoolTimeout     time.Duration `mapstructure:"REDIS_POOL_TIMEOUT"`
	IdleTimeout     time.Duration `mapstructure:"REDIS_IDLE_TIMEOUT"`
	MaxConnAge      time.Duration `mapstructure:"REDIS_MAX_CONN_AGE"`

	UseTLS bool `mapstructure:"REDIS_USE_TLS"`
}

// ============================================
// КОНФИГУРАЦИЯ КЕША
// ============================================

// CacheConfig - TTL по классам данных, ограничения ключей и прогрев
type CacheConfig struct {
	TTLLiquidations time.Duration `mapstructure:"CACHE_TTL_SECONDS"`
	TTLSymbols      time.Duration `mapstructure:"CACHE_TTL_SYMBOLS"`
	TTLOrders       time.Duration `mapstructure:"CACHE_TTL_ORDERS"`

	MaxKeyLength  int           `mapstructure:"CACHE_MAX_KEY_LENGTH"`
	OpTimeout     time.Duration `mapstructure:"CACHE_OP_TIMEOUT"`
	ScanTimeout   time.Duration `mapstructure:"CACHE_SCAN_TIMEOUT"`
	ScanBatchSize int64         `mapstructure:"CACHE_SCAN_BATCH_SIZE"`

	WarmEnabled     bool          `mapstructure:"CACHE_WARM_ENABLED"`
	WarmSymbols     []string      `mapstructure:"CACHE_WARM_SYMBOLS"`
	WarmTimeframes  []string      `mapstructure:"CACHE_WARM_TIMEFRAMES"`
	WarmWindow      time.Duration `mapstructure:"CACHE_WARM_WINDOW"`
	WarmConcurrency int           `mapstructure:"CACHE_WARM_CONCURRENCY"`
	WarmTimeout     time.Duration `mapstructure:"CACHE_WARM_TIMEOUT"`
}

// BreakerConfig - параметры предохранителя бэкенда кеша
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"BREAKER_FAILURE_THRESHOLD"`
	Window           time.Duration `mapstructure:"BREAKER_WINDOW"`
	Cooldown         time.Duration `mapstructure:"BREAKER_COOLDOWN"`
	MaxCooldown      time.Duration `mapstructure:"BREAKER_MAX_COOLDOWN"`
	Multiplier       float64       `mapstructure:"BREAKER_MULTIPLIER"`
}

// InvalidationConfig - инвалидация по LISTEN/NOTIFY
type InvalidationConfig struct {
	Enabled              bool          `mapstructure:"INVALIDATION_LISTEN_ENABLED"`
	Channel              string        `mapstructure:"INVALIDATION_CHANNEL"`
	MinReconnectInterval time.Duration `mapstructure:"INVALIDATION_MIN_RECONNECT"`
	MaxReconnectInterval time.Duration `mapstructure:"INVALIDATION_MAX_RECONNECT"`
}

// EventBusConfig - параметры внутренней шины событий
type EventBusConfig struct {
	BufferSize int `mapstructure:"EVENT_BUS_BUFFER_SIZE"`
	Workers    int `mapstructure:"EVENT_BUS_WORKERS"`
}

// LoggingConfig - параметры логирования
type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
	File  string `mapstructure:"LOG_FILE"`
	Debug bool   `mapstructure:"DEBUG_MODE"`
}

// Config - корневая конфигурация приложения
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`

	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Breaker      BreakerConfig
	Invalidation InvalidationConfig
	EventBus     EventBusConfig
	Logging      LoggingConfig
}

// LoadConfig читает .env (если есть) и переменные окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Printf("⚠️  Config file not found, using environment variables")
		}
	}

	cfg := &Config{}

	// ======================
	// ОСНОВНЫЕ НАСТРОЙКИ
	// ======================
	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// HTTP
	// ======================
	cfg.Server.Host = getEnv("HTTP_HOST", "0.0.0.0")
	cfg.Server.Port = getEnvInt("HTTP_PORT", getEnvInt("PORT", 8000))
	cfg.Server.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", 0)
	cfg.Server.IdleTimeout = getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.Server.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second)
	cfg.Server.StreamBatchSize = getEnvInt("STREAM_BATCH_SIZE", 1000)

	// ======================
	// БАЗА ДАННЫХ
	// ======================
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", getEnv("DB_DATABASE", ""))
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.TableName = getEnv("DB_LIQ_TABLENAME", "binance_liqs")
	cfg.Database.MinConns = getEnvInt("DB_POOL_MIN", 5)
	cfg.Database.MaxConns = getEnvInt("DB_POOL_MAX", 20)
	cfg.Database.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour)
	cfg.Database.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute)
	cfg.Database.QueryTimeout = getEnvSeconds("QUERY_TIMEOUT_SECONDS", 30*time.Second)
	cfg.Database.LongQueryTimeout = getEnvSeconds("LONG_QUERY_TIMEOUT_SECONDS", 120*time.Second)
	cfg.Database.AggregationPushdown = getEnvBool("AGGREGATION_PUSHDOWN", true)

	// ======================
	// REDIS
	// ======================
	cfg.Redis.URL = getEnv("REDIS_URL", "")
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", true)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 2)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 0)
	cfg.Redis.MinRetryBackoff = getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	cfg.Redis.MaxRetryBackoff = getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", time.Second)
	cfg.Redis.PoolTimeout = getEnvDuration("REDIS_POOL_TIMEOUT", time.Second)
	cfg.Redis.IdleTimeout = getEnvDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute)
	cfg.Redis.MaxConnAge = getEnvDuration("REDIS_MAX_CONN_AGE", 0)
	cfg.Redis.UseTLS = getEnvBool("REDIS_USE_TLS", false)

	// ======================
	// КЕШ
	// ======================
	cfg.Cache.TTLLiquidations = getEnvSeconds("CACHE_TTL_SECONDS", 300*time.Second)
	cfg.Cache.TTLSymbols = getEnvSeconds("CACHE_TTL_SYMBOLS", 3600*time.Second)
	cfg.Cache.TTLOrders = getEnvSeconds("CACHE_TTL_ORDERS", cfg.Cache.TTLLiquidations)
	cfg.Cache.MaxKeyLength = getEnvInt("CACHE_MAX_KEY_LENGTH", 200)
	cfg.Cache.OpTimeout = getEnvDuration("CACHE_OP_TIMEOUT", 250*time.Millisecond)
	cfg.Cache.ScanTimeout = getEnvDuration("CACHE_SCAN_TIMEOUT", 5*time.Second)
	cfg.Cache.ScanBatchSize = getEnvInt64("CACHE_SCAN_BATCH_SIZE", 500)
	cfg.Cache.WarmEnabled = getEnvBool("CACHE_WARM_ENABLED", true)
	cfg.Cache.WarmSymbols = parseList(getEnv("CACHE_WARM_SYMBOLS", "btcusdt,ethusdt"))
	cfg.Cache.WarmTimeframes = parseList(getEnv("CACHE_WARM_TIMEFRAMES", strings.Join(period.PopularPeriods, ",")))
	cfg.Cache.WarmWindow = getEnvDuration("CACHE_WARM_WINDOW", 24*time.Hour)
	cfg.Cache.WarmConcurrency = getEnvInt("CACHE_WARM_CONCURRENCY", 4)
	cfg.Cache.WarmTimeout = getEnvDuration("CACHE_WARM_TIMEOUT", 5*time.Minute)

	// ======================
	// ПРЕДОХРАНИТЕЛЬ
	// ======================
	cfg.Breaker.FailureThreshold = getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)
	cfg.Breaker.Window = getEnvDuration("BREAKER_WINDOW", 60*time.Second)
	cfg.Breaker.Cooldown = getEnvDuration("BREAKER_COOLDOWN", 30*time.Second)
	cfg.Breaker.MaxCooldown = getEnvDuration("BREAKER_MAX_COOLDOWN", 5*time.Minute)
	cfg.Breaker.Multiplier = getEnvFloat("BREAKER_MULTIPLIER", 2)

	// ======================
	// ИНВАЛИДАЦИЯ И ШИНА СОБЫТИЙ
	// ======================
	cfg.Invalidation.Enabled = getEnvBool("INVALIDATION_LISTEN_ENABLED", false)
	cfg.Invalidation.Channel = getEnv("INVALIDATION_CHANNEL", "liquidations_ingested")
	cfg.Invalidation.MinReconnectInterval = getEnvDuration("INVALIDATION_MIN_RECONNECT", 10*time.Second)
	cfg.Invalidation.MaxReconnectInterval = getEnvDuration("INVALIDATION_MAX_RECONNECT", time.Minute)
	cfg.EventBus.BufferSize = getEnvInt("EVENT_BUS_BUFFER_SIZE", 1000)
	cfg.EventBus.Workers = getEnvInt("EVENT_BUS_WORKERS", 2)

	// ======================
	// ЛОГИРОВАНИЕ
	// ======================
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "")
	cfg.Logging.Debug = getEnvBool("DEBUG_MODE", false)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "HTTP_PORT must be in range 1-65535")
	}
	if c.Server.StreamBatchSize <= 0 || c.Server.StreamBatchSize > 5000 {
		validationErrors = append(validationErrors, "STREAM_BATCH_SIZE must be in range 1-5000")
	}

	// Проверка настроек базы данных
	if c.Database.Host == "" {
		validationErrors = append(validationErrors, "DB_HOST is required")
	}
	if c.Database.Port <= 0 {
		validationErrors = append(validationErrors, "DB_PORT must be positive")
	}
	if c.Database.User == "" {
		validationErrors = append(validationErrors, "DB_USER is required")
	}
	if c.Database.Name == "" {
		validationErrors = append(validationErrors, "DB_NAME (or DB_DATABASE) is required")
	}
	if c.Database.TableName == "" {
		validationErrors = append(validationErrors, "DB_LIQ_TABLENAME is required")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns <= 0 || c.Database.MinConns > c.Database.MaxConns {
		validationErrors = append(validationErrors, "DB_POOL_MIN/DB_POOL_MAX must satisfy 0 <= min <= max, max > 0")
	}
	if c.Database.QueryTimeout <= 0 {
		validationErrors = append(validationErrors, "QUERY_TIMEOUT_SECONDS must be positive")
	}
	if c.Database.LongQueryTimeout < c.Database.QueryTimeout {
		validationErrors = append(validationErrors, "LONG_QUERY_TIMEOUT_SECONDS must not be shorter than QUERY_TIMEOUT_SECONDS")
	}

	// Проверка Redis
	if c.Redis.Enabled && c.Redis.URL != "" {
		if _, err := url.Parse(c.Redis.URL); err != nil {
			validationErrors = append(validationErrors, "REDIS_URL is not a valid URL")
		}
	}

	// Проверка кеша
	if c.Cache.TTLLiquidations <= 0 || c.Cache.TTLSymbols <= 0 || c.Cache.TTLOrders <= 0 {
		validationErrors = append(validationErrors, "CACHE_TTL_* values must be positive")
	}
	if c.Cache.OpTimeout <= 0 {
		validationErrors = append(validationErrors, "CACHE_OP_TIMEOUT must be positive")
	}
	if c.Cache.MaxKeyLength < keys.MinKeyLength {
		validationErrors = append(validationErrors, fmt.Sprintf("CACHE_MAX_KEY_LENGTH must be >= %d", keys.MinKeyLength))
	}
	if c.Cache.WarmConcurrency <= 0 {
		validationErrors = append(validationErrors, "CACHE_WARM_CONCURRENCY must be positive")
	}
	for _, tf := range c.Cache.WarmTimeframes {
		if !period.IsValidPeriod(tf) {
			validationErrors = append(validationErrors, fmt.Sprintf("CACHE_WARM_TIMEFRAMES contains invalid timeframe %q", tf))
		}
	}

	// Проверка предохранителя
	if c.Breaker.FailureThreshold <= 0 {
		validationErrors = append(validationErrors, "BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.Breaker.Cooldown <= 0 || c.Breaker.MaxCooldown < c.Breaker.Cooldown {
		validationErrors = append(validationErrors, "BREAKER_COOLDOWN must be positive and not exceed BREAKER_MAX_COOLDOWN")
	}
	if c.Breaker.Multiplier < 1 {
		validationErrors = append(validationErrors, "BREAKER_MULTIPLIER must be >= 1")
	}

	if c.Invalidation.Enabled && c.Invalidation.Channel == "" {
		validationErrors = append(validationErrors, "INVALIDATION_CHANNEL is required when listener is enabled")
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%s", strings.Join(validationErrors, "; "))
	}

	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis из отдельных полей
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// HTTPAddress возвращает адрес HTTP сервера
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDev сообщает, запущено ли приложение в режиме разработки
func (c *Config) IsDev() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// PrintSummary выводит сводку конфигурации без секретов
func (c *Config) PrintSummary(printf func(format string, v ...interface{})) {
	if printf == nil {
		printf = log.Printf
	}
	printf("📋 Конфигурация приложения:")
	printf("   • Окружение: %s (версия %s)", c.Environment, c.Version)
	printf("   • HTTP: %s", c.HTTPAddress())
	printf("   • PostgreSQL: %s:%d/%s, таблица %s", c.Database.Host, c.Database.Port, c.Database.Name, c.Database.TableName)
	printf("   • Пул БД: min=%d max=%d", c.Database.MinConns, c.Database.MaxConns)
	printf("   • Таймауты запросов: %v / %v (long)", c.Database.QueryTimeout, c.Database.LongQueryTimeout)
	printf("   • Агрегация в БД: %v", c.Database.AggregationPushdown)
	if c.Redis.URL != "" {
		printf("   • Redis: %s (enabled: %v)", redactURL(c.Redis.URL), c.Redis.Enabled)
	} else {
		printf("   • Redis: %s (DB: %d, Pool: %d, enabled: %v)", c.GetRedisAddress(), c.Redis.DB, c.Redis.PoolSize, c.Redis.Enabled)
	}
	printf("   • TTL: liq=%v symbols=%v orders=%v", c.Cache.TTLLiquidations, c.Cache.TTLSymbols, c.Cache.TTLOrders)
	printf("   • Прогрев кеша: %v (%d символов × %d таймфреймов)", c.Cache.WarmEnabled, len(c.Cache.WarmSymbols), len(c.Cache.WarmTimeframes))
	printf("   • Предохранитель: порог=%d окно=%v пауза=%v..%v",
		c.Breaker.FailureThreshold, c.Breaker.Window, c.Breaker.Cooldown, c.Breaker.MaxCooldown)
	printf("   • LISTEN/NOTIFY: %v (канал %s)", c.Invalidation.Enabled, c.Invalidation.Channel)
	printf("   • Уровень логирования: %s", c.Logging.Level)
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvSeconds принимает целое число секунд или строку длительности ("90s")
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
