// cmd/api/main.go
package main

import (
	"log"
	"os"

	"github.com/lazy-geeek/liqui-api/application/bootstrap"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	// 1. Конфигурация, логгер и все ресурсы
	app, err := bootstrap.NewAppBuilder().
		WithConfigFile(envFile).
		WithOption(bootstrap.WithLogging()).
		WithOption(bootstrap.WithConfigSummary()).
		Build()
	if err != nil {
		log.Fatal("Failed to build application: ", err)
	}
	defer logger.Sync()

	// 2. Работаем до сигнала завершения
	if err := app.Run(); err != nil {
		logger.Error("❌ Приложение завершилось с ошибкой: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}
