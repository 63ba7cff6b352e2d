// application/services/orchestrator/background.go
package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
	"github.com/lazy-geeek/liqui-api/pkg/period"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// WarmReport - итог прогрева
type WarmReport struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	StartMs       int64     `json:"start_timestamp"`
	EndMs         int64     `json:"end_timestamp"`
	SymbolsWarmed bool      `json:"symbols_warmed"`
	Warmed        int64     `json:"warmed"`
	Empty         int64     `json:"empty"`
	Failed        int64     `json:"failed"`
}

// Warm прогревает список символов и пары (символ, таймфрейм) через обычный путь чтения
func (o *Orchestrator) Warm(ctx context.Context) (WarmReport, error) {
	return o.warm(ctx, uuid.New().String())
}

// StartWarm запускает прогрев в фоне. Возвращает false, если прогрев уже идет
func (o *Orchestrator) StartWarm() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.warming || o.bgCtx.Err() != nil {
		return "", false
	}
	o.warming = true

	runID := uuid.New().String()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			o.warming = false
			o.mu.Unlock()
		}()

		if _, err := o.warm(o.bgCtx, runID); err != nil {
			logger.Warn("⚠️ Прогрев %s прерван: %v", runID, err)
		}
	}()

	return runID, true
}

// LastWarm возвращает итог последнего завершенного прогрева
func (o *Orchestrator) LastWarm() *WarmReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastWarm == nil {
		return nil
	}
	r := *o.lastWarm
	return &r
}

func (o *Orchestrator) warm(ctx context.Context, runID string) (WarmReport, error) {
	ws := o.settings.Warm
	if ws.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ws.Timeout)
		defer cancel()
	}

	now := o.now()
	end := now.Truncate(time.Minute).UnixMilli()
	start := end - ws.Window.Milliseconds()
	if start < 0 {
		start = 0
	}

	report := WarmReport{
		RunID:     runID,
		StartedAt: now,
		StartMs:   start,
		EndMs:     end,
	}
	logger.Info("🔥 Прогрев кеша %s: %d символов × %d таймфреймов, окно %s .. %s",
		runID, len(ws.Symbols), len(ws.Timeframes), period.FormatISO(start), period.FormatISO(end))

	if _, err := o.Symbols(ctx); err != nil {
		logger.Warn("⚠️ Прогрев списка символов не удался: %v", err)
	} else {
		report.SymbolsWarmed = true
	}

	var warmed, empty, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if ws.Concurrency > 0 {
		g.SetLimit(ws.Concurrency)
	}

	for _, symbol := range ws.Symbols {
		for _, tf := range ws.Timeframes {
			p := liquidation.QueryParameters{
				Symbol:    symbol,
				Timeframe: tf,
				Start:     &start,
				End:       &end,
			}
			g.Go(func() error {
				_, err := o.Liquidations(gctx, p)
				switch {
				case err == nil:
					warmed.Add(1)
				case errors.Is(err, ErrNotFound):
					empty.Add(1)
				default:
					failed.Add(1)
					logger.Warn("⚠️ Прогрев %s %s не удался: %v", p.Symbol, p.Timeframe, err)
				}
				// ошибки пар не прерывают остальной прогрев
				return nil
			})
		}
	}
	_ = g.Wait()

	report.Warmed = warmed.Load()
	report.Empty = empty.Load()
	report.Failed = failed.Load()
	report.FinishedAt = o.now()

	o.mu.Lock()
	o.lastWarm = &report
	o.mu.Unlock()

	logger.Info("✅ Прогрев %s завершен: прогрето %d, пусто %d, ошибок %d",
		runID, report.Warmed, report.Empty, report.Failed)

	if o.bus != nil {
		event := types.Event{Type: types.EventCacheWarmed, Source: o.Name(), Data: report}
		if err := o.bus.Publish(event); err != nil {
			logger.Debug("⚠️ Событие %s не опубликовано: %v", types.EventCacheWarmed, err)
		}
	}

	return report, ctx.Err()
}
