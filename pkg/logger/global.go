// pkg/logger/global.go
package logger

import (
	"os"
)

var globalLogger *Logger

func InitGlobal(logPath, logLevel string, debug bool) error {
	l, err := NewLogger(logPath, logLevel, debug)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// SetGlobal подменяет глобальный логгер
func SetGlobal(l *Logger) {
	globalLogger = l
}

// GetLogger возвращает глобальный логгер, при отсутствии создает stdout-логгер уровня INFO
func GetLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewWithWriter(os.Stdout, LevelInfo)
	}
	return globalLogger
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	GetLogger().Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	GetLogger().Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	GetLogger().Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	GetLogger().Error(format, v...)
}

func Named(component string) *Logger {
	return GetLogger().Named(component)
}
