// internal/infrastructure/cache/store.go
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss - ключа нет в кеше
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable - бэкенд кеша недоступен, превысил таймаут или отсечен предохранителем
	ErrUnavailable = errors.New("cache unavailable")
)

// Store - key/value хранилище с TTL поверх бэкенда кеша
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteMatching удаляет ключи по glob-шаблону и возвращает их число
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	Info(ctx context.Context) (BackendInfo, error)
}

// BackendInfo - сведения о бэкенде для статистики
type BackendInfo struct {
	Backend         string `json:"backend"`
	MemoryUsedBytes int64  `json:"memory_used_bytes"`
	MemoryUsedHuman string `json:"memory_used_human"`
	Keys            int64  `json:"keys"`
}
