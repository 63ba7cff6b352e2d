// internal/infrastructure/transport/event_bus/event_bus.go
package events

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/pkg/logger"

	"github.com/google/uuid"
)

// EventBus - шина событий с буфером и фиксированным числом обработчиков
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]types.EventSubscriber
	middlewares []Middleware
	eventBuffer chan types.Event
	config      EventBusConfig

	metricsMu sync.Mutex
	metrics   types.EventBusMetrics

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// EventBusConfig - конфигурация EventBus
type EventBusConfig struct {
	BufferSize    int  `json:"buffer_size"`
	WorkerCount   int  `json:"worker_count"`
	EnableLogging bool `json:"enable_logging"`
}

// DefaultConfig - конфигурация по умолчанию
var DefaultConfig = EventBusConfig{
	BufferSize:    1000,
	WorkerCount:   2,
	EnableLogging: true,
}

// NewEventBus создает новую шину событий
func NewEventBus(config ...EventBusConfig) *EventBus {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultConfig.WorkerCount
	}

	return &EventBus{
		subscribers: make(map[types.EventType][]types.EventSubscriber),
		eventBuffer: make(chan types.Event, cfg.BufferSize),
		metrics: types.EventBusMetrics{
			SubscribersCount: make(map[types.EventType]int),
		},
		config:   cfg,
		stopChan: make(chan struct{}),
	}
}

// Start запускает обработчиков событий
func (b *EventBus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return
	}
	b.running = true

	for i := 0; i < b.config.WorkerCount; i++ {
		b.wg.Add(1)
		go b.eventWorker(i)
	}

	if b.config.EnableLogging {
		logger.Info("🚀 EventBus запущен с %d обработчиками", b.config.WorkerCount)
	}
}

// Stop останавливает обработчиков, дообрабатывая уже принятые события
func (b *EventBus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopChan)
	b.mu.Unlock()

	b.wg.Wait()

	if b.config.EnableLogging {
		logger.Info("🛑 EventBus остановлен")
	}
}

// Subscribe подписывает обработчик на тип события
func (b *EventBus) Subscribe(eventType types.EventType, subscriber types.EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	found := false
	for _, et := range subscriber.GetSubscribedEvents() {
		if et == eventType {
			found = true
			break
		}
	}
	if !found {
		logger.Warn("⚠️ Подписчик %s не подписан на событие %s", subscriber.GetName(), eventType)
		return
	}

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
	b.setSubscriberCount(eventType, len(b.subscribers[eventType]))

	if b.config.EnableLogging {
		logger.Info("✅ %s подписался на %s", subscriber.GetName(), eventType)
	}
}

// Unsubscribe отписывает обработчик от типа события
func (b *EventBus) Unsubscribe(eventType types.EventType, subscriber types.EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[eventType]
	for i, sub := range subscribers {
		if sub == subscriber {
			b.subscribers[eventType] = append(subscribers[:i:i], subscribers[i+1:]...)
			b.setSubscriberCount(eventType, len(b.subscribers[eventType]))
			return
		}
	}
}

// AddMiddleware добавляет middleware
func (b *EventBus) AddMiddleware(middleware Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, middleware)
}

// Publish ставит событие в буфер; при переполненном буфере событие отбрасывается
func (b *EventBus) Publish(event types.Event) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()
	if !running {
		return fmt.Errorf("event bus is not running")
	}

	event = stamp(event)

	select {
	case b.eventBuffer <- event:
		b.metricsMu.Lock()
		b.metrics.EventsPublished++
		b.metricsMu.Unlock()
		logger.Debug("📤 Опубликовано событие: %s от %s", event.Type, event.Source)
		return nil
	default:
		b.metricsMu.Lock()
		b.metrics.EventsDropped++
		b.metricsMu.Unlock()
		logger.Warn("⚠️ Буфер событий полон, событие отброшено: %s", event.Type)
		return fmt.Errorf("event buffer is full")
	}
}

// PublishSync обрабатывает событие в текущей горутине
func (b *EventBus) PublishSync(event types.Event) error {
	return b.processEvent(stamp(event))
}

func stamp(event types.Event) types.Event {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}

func (b *EventBus) eventWorker(id int) {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventBuffer:
			_ = b.processEvent(event)
		case <-b.stopChan:
			// дообрабатываем то, что уже в буфере
			for {
				select {
				case event := <-b.eventBuffer:
					_ = b.processEvent(event)
				default:
					logger.Debug("🔍 [EventWorker %d] Остановлен", id)
					return
				}
			}
		}
	}
}

func (b *EventBus) processEvent(event types.Event) error {
	start := time.Now()
	defer func() {
		b.metricsMu.Lock()
		b.metrics.ProcessingTime += time.Since(start)
		b.metrics.EventsProcessed++
		b.metricsMu.Unlock()
	}()

	b.mu.RLock()
	subscribers := append([]types.EventSubscriber(nil), b.subscribers[event.Type]...)
	middlewares := append([]Middleware(nil), b.middlewares...)
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		logger.Debug("⚠️ Нет подписчиков для события: %s", event.Type)
		return nil
	}

	var lastError error
	for _, subscriber := range subscribers {
		handler := chain(middlewares, subscriber.HandleEvent)
		if err := handler(event); err != nil {
			lastError = err
			b.metricsMu.Lock()
			b.metrics.EventsFailed++
			b.metricsMu.Unlock()
			logger.Error("❌ Ошибка обработки события %s подписчиком %s: %v",
				event.Type, subscriber.GetName(), err)
		}
	}
	return lastError
}

func chain(middlewares []Middleware, handler HandlerFunc) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		next := handler
		handler = func(event types.Event) error {
			return mw.Process(event, next)
		}
	}
	return handler
}

func (b *EventBus) setSubscriberCount(eventType types.EventType, n int) {
	b.metricsMu.Lock()
	b.metrics.SubscribersCount[eventType] = n
	b.metricsMu.Unlock()
}

// GetMetrics возвращает снимок метрик
func (b *EventBus) GetMetrics() types.EventBusMetrics {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()

	snapshot := b.metrics
	snapshot.SubscribersCount = make(map[types.EventType]int, len(b.metrics.SubscribersCount))
	for k, v := range b.metrics.SubscribersCount {
		snapshot.SubscribersCount[k] = v
	}
	return snapshot
}

// GetEventTypes возвращает все типы событий с подписчиками
func (b *EventBus) GetEventTypes() []types.EventType {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventTypes := make([]types.EventType, 0, len(b.subscribers))
	for eventType := range b.subscribers {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Slice(eventTypes, func(i, j int) bool {
		return eventTypes[i] < eventTypes[j]
	})
	return eventTypes
}

// IsRunning возвращает true если EventBus запущен
func (b *EventBus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Name возвращает имя сервиса
func (b *EventBus) Name() string {
	return "EventBus"
}

var _ types.EventBus = (*EventBus)(nil)
