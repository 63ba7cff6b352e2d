// pkg/logger/global.go
package logger

import "sync/atomic"

var (
	global atomic.Pointer[Logger]
	nop    = NewNop()
)

// InitGlobal заменяет глобальный логгер; предыдущий сбрасывается на диск
func InitGlobal(logPath, logLevel string, debug bool) error {
	l, err := NewLogger(logPath, logLevel, debug)
	if err != nil {
		return err
	}
	if prev := global.Swap(l); prev != nil {
		prev.Close()
	}
	return nil
}

// GetLogger возвращает глобальный логгер; до InitGlobal это no-op логгер
func GetLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return nop
}

func Debug(format string, v ...interface{}) { GetLogger().Debug(format, v...) }
func Info(format string, v ...interface{})  { GetLogger().Info(format, v...) }
func Warn(format string, v ...interface{})  { GetLogger().Warn(format, v...) }
func Error(format string, v ...interface{}) { GetLogger().Error(format, v...) }
func Fatal(format string, v ...interface{}) { GetLogger().Fatal(format, v...) }

// Sync сбрасывает буферы глобального логгера
func Sync() {
	if l := global.Load(); l != nil {
		l.Close()
	}
}
