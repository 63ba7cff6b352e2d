// pkg/logger/logger.go

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Уровни логирования
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// Logger - printf-обертка над zap.SugaredLogger
type Logger struct {
	base      *zap.Logger
	sugar     *zap.SugaredLogger
	logLevel  string
	debugMode bool
}

// NewLogger создает логгер. Пустой logPath означает вывод только в stdout.
func NewLogger(logPath string, logLevel string, debug bool) (*Logger, error) {
	var zapConfig zap.Config
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Sampling = nil
	}
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(logLevel))
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, logPath)
	}

	base, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{
		base:      base,
		sugar:     base.Sugar(),
		logLevel:  strings.ToUpper(logLevel),
		debugMode: debug,
	}, nil
}

// NewNop возвращает логгер, который ничего не пишет (для тестов)
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{base: base, sugar: base.Sugar(), logLevel: LevelInfo}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Методы для разных уровней
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.sugar.Fatalf(format, v...)
}

// Zap отдает базовый zap.Logger для компонентов со структурированными полями
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

func (l *Logger) Status(stats map[string]string) {
	l.Info("%s", strings.Repeat("─", 50))
	l.Info("📊 СТАТУС СИСТЕМЫ")
	for key, value := range stats {
		l.Info("   %-20s: %s", key, value)
	}
	l.Info("%s", strings.Repeat("─", 50))
}

func (l *Logger) Close() {
	if l.base != nil {
		_ = l.base.Sync()
	}
}
