// internal/infrastructure/transport/event_bus/event.go
package events

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lazy-geeek/liqui-api/internal/types"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// Middleware - промежуточное ПО для обработки событий
type Middleware interface {
	Process(event types.Event, next HandlerFunc) error
}

// HandlerFunc - функция обработки события
type HandlerFunc func(event types.Event) error

// RecoveryMiddleware превращает панику подписчика в ошибку
type RecoveryMiddleware struct{}

func (m *RecoveryMiddleware) Process(event types.Event, next HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("⚠️ Паника при обработке %s: %v\n%s", event.Type, r, debug.Stack())
			err = fmt.Errorf("panic while handling %s: %v", event.Type, r)
		}
	}()
	return next(event)
}

// LoggingMiddleware логирует время обработки событий
type LoggingMiddleware struct{}

func (m *LoggingMiddleware) Process(event types.Event, next HandlerFunc) error {
	start := time.Now()
	err := next(event)
	logger.Debug("📨 %s (%s) обработано за %v, ошибка: %v", event.Type, event.ID, time.Since(start), err)
	return err
}
