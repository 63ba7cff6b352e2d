// internal/infrastructure/cache/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store - in-memory реализация cache.Store для локального запуска без Redis и тестов
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time

	stopCh chan struct{}
	once   sync.Once
}

// NewStore создает хранилище; при cleanupInterval > 0 запускает фоновую очистку
func NewStore(cleanupInterval time.Duration) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.startCleanupRoutine(cleanupInterval)
	}
	return s
}

// Get возвращает значение или cache.ErrMiss
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return nil, cache.ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set сохраняет значение с TTL; TTL <= 0 означает без срока
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete удаляет ключ
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// DeleteMatching удаляет ключи по glob-шаблону в правилах Redis
func (s *Store) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}
	matcher, err := cache.CompilePattern(pattern)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, e := range s.entries {
		if matcher.Match(key) {
			delete(s.entries, key)
			if !s.expired(e) {
				deleted++
			}
		}
	}
	return deleted, nil
}

// Info возвращает приблизительный объем занятой памяти
func (s *Store) Info(ctx context.Context) (cache.BackendInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var used int64
	var keys int64
	for key, e := range s.entries {
		if s.expired(e) {
			continue
		}
		used += int64(len(key) + len(e.value))
		keys++
	}
	return cache.BackendInfo{
		Backend:         "memory",
		MemoryUsedBytes: used,
		MemoryUsedHuman: humanBytes(used),
		Keys:            keys,
	}, nil
}

// Close останавливает фоновую очистку
func (s *Store) Close() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *Store) startCleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

var _ cache.Store = (*Store)(nil)
