// /internal/types/eventbus.go
package types

import (
	"time"
)

// EventType - тип события
type EventType string

const (
	// EventLiquidationsIngested - в таблицу ликвидаций записаны новые строки символа
	EventLiquidationsIngested EventType = "liquidations_ingested"
	// EventSymbolsChanged - набор символов мог измениться
	EventSymbolsChanged EventType = "symbols_changed"
	// EventCacheWarmed - завершен прогрев кеша, Data - итог прогрева
	EventCacheWarmed EventType = "cache_warmed"
)

// Event - событие внутренней шины. ID и Timestamp проставляет шина, если они пустые
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventBus - шина событий
type EventBus interface {
	Publish(event Event) error
	PublishSync(event Event) error
	Subscribe(eventType EventType, subscriber EventSubscriber)
	Unsubscribe(eventType EventType, subscriber EventSubscriber)
}

// EventSubscriber - получатель событий объявленных типов
type EventSubscriber interface {
	HandleEvent(event Event) error
	GetName() string
	GetSubscribedEvents() []EventType
}

// EventBusMetrics - снимок счетчиков шины
type EventBusMetrics struct {
	EventsPublished  int64             `json:"events_published"`
	EventsProcessed  int64             `json:"events_processed"`
	EventsFailed     int64             `json:"events_failed"`
	EventsDropped    int64             `json:"events_dropped"`
	SubscribersCount map[EventType]int `json:"subscribers_count"`
	ProcessingTime   time.Duration     `json:"processing_time"`
}

// IngestNotice - полезная нагрузка EventLiquidationsIngested
type IngestNotice struct {
	Symbol    string `json:"symbol"`
	NewSymbol bool   `json:"new_symbol"`
}
