// internal/infrastructure/transport/event_bus/subscribers.go
package events

import (
	"fmt"

	"github.com/lazy-geeek/liqui-api/internal/types"
)

// BaseSubscriber - подписчик на основе функции-обработчика с фиксированным набором типов
type BaseSubscriber struct {
	name    string
	types   []types.EventType
	handles map[types.EventType]bool
	handler HandlerFunc
}

// NewBaseSubscriber создает подписчика; повторяющиеся типы событий отбрасываются
func NewBaseSubscriber(name string, eventTypes []types.EventType, handler func(types.Event) error) *BaseSubscriber {
	s := &BaseSubscriber{
		name:    name,
		handles: make(map[types.EventType]bool, len(eventTypes)),
		handler: handler,
	}
	for _, et := range eventTypes {
		if s.handles[et] {
			continue
		}
		s.handles[et] = true
		s.types = append(s.types, et)
	}
	return s
}

// HandleEvent передает событие обработчику; чужие типы - ошибка
func (s *BaseSubscriber) HandleEvent(event types.Event) error {
	if !s.handles[event.Type] {
		return fmt.Errorf("%s: unexpected event %s", s.name, event.Type)
	}
	return s.handler(event)
}

// Handles сообщает, объявлен ли тип события подписчиком
func (s *BaseSubscriber) Handles(eventType types.EventType) bool {
	return s.handles[eventType]
}

func (s *BaseSubscriber) GetName() string {
	return s.name
}

func (s *BaseSubscriber) GetSubscribedEvents() []types.EventType {
	out := make([]types.EventType, len(s.types))
	copy(out, s.types)
	return out
}

// SubscribeAll подписывает подписчика на все объявленные им типы событий
func (b *EventBus) SubscribeAll(subscriber types.EventSubscriber) {
	for _, et := range subscriber.GetSubscribedEvents() {
		b.Subscribe(et, subscriber)
	}
}
