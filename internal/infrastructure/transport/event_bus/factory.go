package events

import (
	"strings"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
)

// NewEventBusFromConfig создает EventBus из конфигурации со стандартными middleware
func NewEventBusFromConfig(cfg *config.Config) *EventBus {
	bus := NewEventBus(EventBusConfig{
		BufferSize:    cfg.EventBus.BufferSize,
		WorkerCount:   cfg.EventBus.Workers,
		EnableLogging: true,
	})

	bus.AddMiddleware(&RecoveryMiddleware{})
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		bus.AddMiddleware(&LoggingMiddleware{})
	}

	return bus
}
