// application/bootstrap/builder.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// Run запускает сервисы и блокируется до сигнала завершения или ошибки HTTP сервера
func (app *Application) Run() error {
	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return errors.New("приложение уже запущено")
	}
	if app.server == nil {
		app.mu.Unlock()
		return errors.New("приложение не инициализировано")
	}

	logger.Info("🚀 Запуск приложения...")

	app.eventBus.Start()

	if app.listener != nil {
		if err := app.listener.Start(context.Background()); err != nil {
			// без LISTEN кеш устаревает только по TTL
			logger.Warn("⚠️ LISTEN/NOTIFY недоступен: %v", err)
			app.listener = nil
		}
	}

	if err := app.server.Start(); err != nil {
		app.mu.Unlock()
		app.shutdown()
		return fmt.Errorf("запуск HTTP сервера: %w", err)
	}

	if app.config.Cache.WarmEnabled {
		if runID, ok := app.orchestrator.StartWarm(); ok {
			logger.Info("🔥 Прогрев кеша запущен в фоне (%s)", runID)
		}
	}

	app.running = true
	app.startTime = time.Now()
	app.mu.Unlock()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopChan)

	logger.Info("✅ Приложение запущено и работает")
	app.logStatus()

	var runErr error
	select {
	case sig := <-app.stopChan:
		logger.Info("🛑 Получен сигнал %v", sig)
	case runErr = <-app.server.Errors():
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout())
	defer cancel()
	if err := app.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown останавливает сервисы в обратном порядке запуска
func (app *Application) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		app.shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Graceful shutdown завершен успешно")
		return nil
	case <-ctx.Done():
		logger.Warn("⚠️ Таймаут graceful shutdown, принудительное завершение")
		return ctx.Err()
	}
}

func (app *Application) shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	logger.Info("🛑 Останавливаем приложение...")

	// 1. Новые запросы больше не принимаются
	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки HTTP сервера: %v", err)
		}
	}

	// 2. Источники событий и фоновые задачи
	if app.listener != nil {
		if err := app.listener.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки LISTEN: %v", err)
		}
	}
	if app.eventBus != nil {
		app.eventBus.Stop()
	}
	if app.orchestrator != nil {
		app.orchestrator.Stop()
	}

	// 3. Хранилища
	if app.redisService != nil {
		if err := app.redisService.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки Redis: %v", err)
		}
	}
	if app.memoryStore != nil {
		app.memoryStore.Close()
	}
	if app.databaseService != nil {
		if err := app.databaseService.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки базы данных: %v", err)
		}
	}

	if app.running {
		logger.Info("✅ Приложение остановлено. Время работы: %v", time.Since(app.startTime))
	}
	app.running = false
}

// Stop посылает сигнал завершения работающему Run
func (app *Application) Stop() {
	select {
	case app.stopChan <- syscall.SIGTERM:
	default:
	}
}

func (app *Application) shutdownTimeout() time.Duration {
	// запас сверх таймаута HTTP на остановку хранилищ
	return app.config.Server.ShutdownTimeout + 10*time.Second
}

func (app *Application) logStatus() {
	flat := make(map[string]string)
	for key, value := range app.Status() {
		flat[key] = fmt.Sprint(value)
	}
	logger.GetLogger().Status(flat)
}

// Status возвращает состояние приложения
func (app *Application) Status() map[string]interface{} {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]interface{}{
		"running":     app.running,
		"uptime":      time.Since(app.startTime).String(),
		"start_time":  app.startTime.Format(time.RFC3339),
		"environment": app.config.Environment,
		"version":     app.config.Version,
	}
	if app.databaseService != nil {
		status["database"] = app.databaseService.GetStats()
	}
	if app.redisService != nil {
		status["redis"] = app.redisService.GetStats()
	}
	if app.eventBus != nil {
		status["event_bus"] = app.eventBus.GetMetrics()
	}
	if app.breaker != nil {
		status["breaker"] = app.breaker.State().String()
	}
	return status
}
