// application/bootstrap/app_builder.go
package bootstrap

import (
	"fmt"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

const defaultEnvFile = ".env"

// AppOption применяется к приложению до Initialize
type AppOption func(*Application) error

// AppBuilder собирает Application: конфигурация -> опции -> Initialize
type AppBuilder struct {
	config  *config.Config
	envFile string
	options []AppOption
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{envFile: defaultEnvFile}
}

// WithConfig задает готовую конфигурацию; .env тогда не читается
func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithConfigFile задает .env файл, из которого Build загрузит конфигурацию
func (b *AppBuilder) WithConfigFile(path string) *AppBuilder {
	b.envFile = path
	return b
}

func (b *AppBuilder) WithOption(option AppOption) *AppBuilder {
	b.options = append(b.options, option)
	return b
}

// Build загружает конфигурацию, применяет опции и открывает ресурсы.
// При ошибке Initialize уже открытые ресурсы закрываются.
func (b *AppBuilder) Build() (*Application, error) {
	cfg := b.config
	if cfg == nil {
		loaded, err := config.LoadConfig(b.envFile)
		if err != nil {
			return nil, fmt.Errorf("загрузка конфигурации из %s: %w", b.envFile, err)
		}
		cfg = loaded
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return nil, err
	}

	for i, option := range b.options {
		if err := option(app); err != nil {
			return nil, fmt.Errorf("опция #%d: %w", i+1, err)
		}
	}

	if err := app.Initialize(); err != nil {
		app.shutdown()
		return nil, fmt.Errorf("инициализация: %w", err)
	}
	return app, nil
}

// WithLogging поднимает глобальный zap-логгер по LOG_LEVEL/LOG_FILE/DEBUG_MODE
func WithLogging() AppOption {
	return func(app *Application) error {
		lc := app.config.Logging
		return logger.InitGlobal(lc.File, lc.Level, lc.Debug || app.config.IsDev())
	}
}

// WithConfigSummary печатает действующую конфигурацию без секретов
func WithConfigSummary() AppOption {
	return func(app *Application) error {
		app.config.PrintSummary(logger.Info)
		return nil
	}
}
