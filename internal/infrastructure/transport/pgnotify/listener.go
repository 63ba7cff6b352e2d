// internal/infrastructure/transport/pgnotify/listener.go
package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/pkg/logger"

	"github.com/lib/pq"
)

// ErrEmptyPayload - уведомление без символа
var ErrEmptyPayload = errors.New("empty notification payload")

const (
	sourceName   = "pgnotify"
	pingInterval = 90 * time.Second
)

// Source - источник уведомлений; *pq.Listener удовлетворяет интерфейсу
type Source interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener переводит NOTIFY из PostgreSQL в события шины
type Listener struct {
	source  Source
	channel string
	bus     types.EventBus

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewListener создает слушателя поверх pq.Listener
func NewListener(dsn string, cfg config.InvalidationConfig, bus types.EventBus) *Listener {
	src := pq.NewListener(dsn, cfg.MinReconnectInterval, cfg.MaxReconnectInterval, reportEvent)
	return NewListenerWithSource(src, cfg.Channel, bus)
}

// NewListenerWithSource создает слушателя с произвольным источником
func NewListenerWithSource(src Source, channel string, bus types.EventBus) *Listener {
	return &Listener{
		source:  src,
		channel: channel,
		bus:     bus,
	}
}

func reportEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		logger.Info("✅ LISTEN соединение установлено")
	case pq.ListenerEventDisconnected:
		logger.Warn("⚠️ LISTEN соединение потеряно: %v", err)
	case pq.ListenerEventReconnected:
		logger.Info("🔄 LISTEN соединение восстановлено")
	case pq.ListenerEventConnectionAttemptFailed:
		logger.Warn("⚠️ Не удалось подключиться для LISTEN: %v", err)
	}
}

// Start подписывается на канал и запускает цикл чтения
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	if err := l.source.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %q: %w", l.channel, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	l.wg.Add(1)
	go l.loop(loopCtx)

	logger.Info("👂 Слушаю канал PostgreSQL %q", l.channel)
	return nil
}

// Stop останавливает цикл и закрывает соединение
func (l *Listener) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.cancel()
	l.mu.Unlock()

	l.wg.Wait()
	return l.source.Close()
}

// Name возвращает имя сервиса
func (l *Listener) Name() string {
	return "PgNotifyListener"
}

func (l *Listener) loop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	notifications := l.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			l.handle(n)
		case <-ticker.C:
			if err := l.source.Ping(); err != nil {
				logger.Warn("⚠️ LISTEN ping: %v", err)
			}
		}
	}
}

func (l *Listener) handle(n *pq.Notification) {
	// nil приходит после переподключения: уведомления могли быть потеряны
	if n == nil {
		l.publish(types.EventSymbolsChanged, nil)
		return
	}

	notice, err := ParsePayload(n.Extra)
	if err != nil {
		logger.Warn("⚠️ Некорректное уведомление в %s: %q (%v)", n.Channel, n.Extra, err)
		return
	}
	l.publish(types.EventLiquidationsIngested, notice)
}

func (l *Listener) publish(eventType types.EventType, data interface{}) {
	err := l.bus.Publish(types.Event{
		Type:   eventType,
		Source: sourceName,
		Data:   data,
	})
	if err != nil {
		logger.Warn("⚠️ Не удалось опубликовать %s: %v", eventType, err)
	}
}

// ParsePayload разбирает полезную нагрузку NOTIFY:
// JSON {"symbol": "...", "new_symbol": true} или просто имя символа
func ParsePayload(payload string) (types.IngestNotice, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return types.IngestNotice{}, ErrEmptyPayload
	}

	var notice types.IngestNotice
	if strings.HasPrefix(payload, "{") {
		if err := json.Unmarshal([]byte(payload), &notice); err != nil {
			return types.IngestNotice{}, fmt.Errorf("decode payload: %w", err)
		}
	} else {
		notice.Symbol = payload
	}

	notice.Symbol = strings.ToLower(strings.TrimSpace(notice.Symbol))
	if notice.Symbol == "" {
		return types.IngestNotice{}, ErrEmptyPayload
	}
	return notice, nil
}
