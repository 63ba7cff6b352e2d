// application/services/orchestrator/invalidation.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// InvalidateSymbol удаляет агрегаты и ордера символа, включая сокращенные ключи
func (o *Orchestrator) InvalidateSymbol(ctx context.Context, symbol string) (int, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("%w: symbol is required", liquidation.ErrInvalidParameters)
	}

	total := 0
	for _, class := range []liquidation.DataClass{liquidation.ClassLiquidations, liquidation.ClassOrders} {
		n, err := o.store.DeleteMatching(ctx, o.codec.SymbolPattern(class, symbol))
		total += n
		if err != nil {
			o.metrics.CacheError("invalidate")
			return total, fmt.Errorf("invalidate %s for %s: %w", class, symbol, err)
		}
	}

	o.metrics.Invalidated("symbol", total)
	logger.Info("🧹 Инвалидирован кеш символа %s: %d ключей", symbol, total)
	return total, nil
}

// InvalidateSymbols удаляет закешированный список символов
func (o *Orchestrator) InvalidateSymbols(ctx context.Context) error {
	if err := o.store.Delete(ctx, o.codec.Symbols()); err != nil {
		o.metrics.CacheError("invalidate")
		return fmt.Errorf("invalidate symbols: %w", err)
	}
	o.metrics.Invalidated("symbols", 1)
	logger.Info("🧹 Инвалидирован список символов")
	return nil
}

// Clear удаляет ключи по glob-шаблону; пустой шаблон означает все ключи
func (o *Orchestrator) Clear(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}

	n, err := o.store.DeleteMatching(ctx, pattern)
	if err != nil {
		o.metrics.CacheError("clear")
		return n, fmt.Errorf("clear %q: %w", pattern, err)
	}

	o.metrics.Invalidated("pattern", n)
	logger.Info("🧹 Очищен кеш по шаблону %q: %d ключей", pattern, n)
	return n, nil
}
