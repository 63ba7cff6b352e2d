// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
)

// CacheOptions - таймауты и размер пачки SCAN
type CacheOptions struct {
	OpTimeout     time.Duration
	ScanTimeout   time.Duration
	ScanBatchSize int64
}

// Cache - реализация cache.Store поверх Redis. Каждая операция ограничена
// коротким таймаутом; ошибки и таймауты превращаются в cache.ErrUnavailable.
type Cache struct {
	client redis.UniversalClient
	opts   CacheOptions
}

// NewCache создает хранилище на существующем клиенте
func NewCache(client redis.UniversalClient, opts CacheOptions) *Cache {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 250 * time.Millisecond
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 5 * time.Second
	}
	if opts.ScanBatchSize <= 0 {
		opts.ScanBatchSize = 500
	}
	return &Cache{client: client, opts: opts}
}

// Get получает значение из Redis
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return data, nil
}

// Set устанавливает значение в Redis с TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Delete удаляет ключ из Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

// DeleteMatching проходит SCAN до конца, затем удаляет найденные ключи пачками DEL.
// Удаление во время обхода сдвигает курсор и теряет ключи
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ScanTimeout)
	defer cancel()

	var (
		cursor uint64
		found  []string
		seen   = make(map[string]struct{})
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, c.opts.ScanBatchSize).Result()
		if err != nil {
			return 0, unavailable("scan", err)
		}
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			found = append(found, k)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	batch := int(c.opts.ScanBatchSize)
	deleted := 0
	for start := 0; start < len(found); start += batch {
		end := start + batch
		if end > len(found) {
			end = len(found)
		}
		n, err := c.client.Del(ctx, found[start:end]...).Result()
		if err != nil {
			return deleted, unavailable("del", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

// Info читает секцию memory и размер базы
func (c *Cache) Info(ctx context.Context) (cache.BackendInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	raw, err := c.client.Info(ctx, "memory").Result()
	if err != nil {
		return cache.BackendInfo{}, unavailable("info", err)
	}
	info := parseMemoryInfo(raw)
	info.Backend = "redis"

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		info.Keys = size
	}
	return info, nil
}

func parseMemoryInfo(raw string) cache.BackendInfo {
	var info cache.BackendInfo
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		name, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok {
			continue
		}
		switch name {
		case "used_memory":
			info.MemoryUsedBytes, _ = strconv.ParseInt(value, 10, 64)
		case "used_memory_human":
			info.MemoryUsedHuman = value
		}
	}
	return info
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %v", cache.ErrUnavailable, op, err)
}

var _ cache.Store = (*Cache)(nil)
