// internal/infrastructure/cache/guarded.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
)

// Guarded пропускает вызовы к хранилищу через предохранитель и сообщает ему исход
// каждой операции. Промах считается успехом; отмена контекста вызывающим
// освобождает пробный слот без вердикта.
type Guarded struct {
	store   Store
	breaker *breaker.Breaker
}

// NewGuarded оборачивает хранилище предохранителем
func NewGuarded(store Store, b *breaker.Breaker) *Guarded {
	return &Guarded{store: store, breaker: b}
}

// Breaker возвращает предохранитель
func (g *Guarded) Breaker() *breaker.Breaker {
	return g.breaker
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := g.do(ctx, func() error {
		var err error
		out, err = g.store.Get(ctx, key)
		return err
	})
	return out, err
}

func (g *Guarded) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.do(ctx, func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

func (g *Guarded) Delete(ctx context.Context, key string) error {
	return g.do(ctx, func() error {
		return g.store.Delete(ctx, key)
	})
}

func (g *Guarded) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var n int
	err := g.do(ctx, func() error {
		var err error
		n, err = g.store.DeleteMatching(ctx, pattern)
		return err
	})
	return n, err
}

func (g *Guarded) Info(ctx context.Context) (BackendInfo, error) {
	var info BackendInfo
	err := g.do(ctx, func() error {
		var err error
		info, err = g.store.Info(ctx)
		return err
	})
	return info, err
}

func (g *Guarded) do(ctx context.Context, op func() error) error {
	ticket, ok := g.breaker.Allow()
	if !ok {
		return ErrUnavailable
	}

	err := op()
	switch {
	case err == nil, errors.Is(err, ErrMiss):
		g.breaker.Report(ticket, true)
	case ctx.Err() != nil:
		g.breaker.Release(ticket)
	case errors.Is(err, ErrUnavailable):
		g.breaker.Report(ticket, false)
	default:
		// ошибка вызова (например, неверный шаблон), а не бэкенда
		g.breaker.Report(ticket, true)
	}
	return err
}

var _ Store = (*Guarded)(nil)
