// application/services/orchestrator/subscriber.go
package orchestrator

import (
	"context"
	"fmt"
	"time"

	events "github.com/lazy-geeek/liqui-api/internal/infrastructure/transport/event_bus"
	"github.com/lazy-geeek/liqui-api/internal/types"
)

const invalidationTimeout = 5 * time.Second

// InvalidationSubscriber - подписчик шины, сбрасывающий кеш по событиям загрузки данных
func (o *Orchestrator) InvalidationSubscriber() *events.BaseSubscriber {
	return events.NewBaseSubscriber(
		"cache-invalidator",
		[]types.EventType{types.EventLiquidationsIngested, types.EventSymbolsChanged},
		o.handleEvent,
	)
}

func (o *Orchestrator) handleEvent(event types.Event) error {
	ctx, cancel := context.WithTimeout(o.bgCtx, invalidationTimeout)
	defer cancel()

	switch event.Type {
	case types.EventSymbolsChanged:
		return o.InvalidateSymbols(ctx)

	case types.EventLiquidationsIngested:
		var notice types.IngestNotice
		switch data := event.Data.(type) {
		case types.IngestNotice:
			notice = data
		case *types.IngestNotice:
			if data == nil {
				return fmt.Errorf("empty %s payload", event.Type)
			}
			notice = *data
		default:
			return fmt.Errorf("unexpected %s payload %T", event.Type, event.Data)
		}

		if _, err := o.InvalidateSymbol(ctx, notice.Symbol); err != nil {
			return err
		}
		if notice.NewSymbol {
			return o.InvalidateSymbols(ctx)
		}
		return nil
	}
	return nil
}
