// application/services/orchestrator/methods.go
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// результаты чтения для метрик
const (
	resultHit         = "hit"
	resultMiss        = "miss"
	resultUnavailable = "unavailable"
	resultCorrupt     = "corrupt"
)

// Liquidations возвращает агрегированные ликвидации по бакетам таймфрейма
func (o *Orchestrator) Liquidations(ctx context.Context, p liquidation.QueryParameters) ([]liquidation.AggregatedRow, error) {
	p.Normalize()
	if err := p.ValidateAggregation(); err != nil {
		return nil, err
	}
	tf, err := p.TimeframeMillis()
	if err != nil {
		return nil, err
	}

	key, err := o.codec.Build(liquidation.ClassLiquidations, p)
	if err != nil {
		return nil, err
	}
	return cachedRead(ctx, o, liquidation.ClassLiquidations, key, o.settings.TTLLiquidations,
		func(ctx context.Context) ([]liquidation.AggregatedRow, error) {
			return o.repo.Aggregated(ctx, p.Symbol, tf, *p.Start, *p.End)
		},
		func(rows []liquidation.AggregatedRow) bool { return len(rows) == 0 },
	)
}

// Symbols возвращает список символов; пустой список тоже кешируется
func (o *Orchestrator) Symbols(ctx context.Context) ([]string, error) {
	return cachedRead(ctx, o, liquidation.ClassSymbols, o.codec.Symbols(), o.settings.TTLSymbols,
		o.repo.Symbols,
		nil,
	)
}

// Orders возвращает последние ордера (limit) или страницу ордеров в диапазоне
func (o *Orchestrator) Orders(ctx context.Context, p liquidation.QueryParameters) (liquidation.OrdersResult, error) {
	p.Normalize()
	if err := p.ValidateOrders(); err != nil {
		return liquidation.OrdersResult{}, err
	}

	empty := func(r liquidation.OrdersResult) bool { return len(r.Orders) == 0 }
	key, err := o.codec.Build(liquidation.ClassOrders, p)
	if err != nil {
		return liquidation.OrdersResult{}, err
	}

	if p.Limit > 0 {
		return cachedRead(ctx, o, liquidation.ClassOrders, key, o.settings.TTLOrders,
			func(ctx context.Context) (liquidation.OrdersResult, error) {
				orders, err := o.repo.LatestOrders(ctx, p.Symbol, p.Limit)
				return liquidation.OrdersResult{Orders: orders}, err
			},
			empty,
		)
	}

	p = p.WithPageDefaults()
	return cachedRead(ctx, o, liquidation.ClassOrders, key, o.settings.TTLOrders,
		func(ctx context.Context) (liquidation.OrdersResult, error) {
			return o.repo.OrdersPage(ctx, p.Symbol, *p.Start, *p.End, p.Page, p.PageSize)
		},
		empty,
	)
}

// StreamOrders выгружает ордера диапазона пачками, минуя кеш
func (o *Orchestrator) StreamOrders(ctx context.Context, p liquidation.QueryParameters, batchSize int,
	fn func([]liquidation.Order) error) error {

	p.Normalize()
	if err := p.ValidateStream(); err != nil {
		return err
	}
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", liquidation.ErrInvalidParameters)
	}
	return o.repo.StreamOrders(ctx, p.Symbol, *p.Start, *p.End, batchSize, fn)
}

// cachedRead: кеш -> при промахе хранилище -> запись в кеш с TTL класса.
// Недоступность кеша не влияет на результат чтения.
func cachedRead[T any](ctx context.Context, o *Orchestrator, class liquidation.DataClass, key string,
	ttl time.Duration, load func(context.Context) (T, error), isEmpty func(T) bool) (T, error) {

	var zero T
	label := string(class)

	raw, err := o.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		decodeErr := json.Unmarshal(raw, &v)
		if decodeErr == nil {
			o.hits.Add(1)
			o.metrics.CacheResult(label, resultHit)
			return v, nil
		}
		logger.Warn("⚠️ Поврежденная запись кеша %s: %v", key, decodeErr)
		o.metrics.CacheResult(label, resultCorrupt)
	case errors.Is(err, cache.ErrMiss):
		o.metrics.CacheResult(label, resultMiss)
	case ctx.Err() != nil:
		return zero, ctx.Err()
	default:
		logger.Debug("🔌 Кеш недоступен для %s: %v", key, err)
		o.metrics.CacheResult(label, resultUnavailable)
		o.metrics.CacheError("get")
	}
	o.misses.Add(1)

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if isEmpty != nil && isEmpty(v) {
		return zero, ErrNotFound
	}

	o.populate(ctx, key, v, ttl)
	return v, nil
}

// populate записывает значение в кеш; ошибки только логируются
func (o *Orchestrator) populate(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if ctx.Err() != nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error("❌ Не удалось сериализовать значение для %s: %v", key, err)
		return
	}
	if err := o.store.Set(ctx, key, payload, ttl); err != nil {
		logger.Debug("🔌 Не удалось записать %s в кеш: %v", key, err)
		o.metrics.CacheError("set")
	}
}
