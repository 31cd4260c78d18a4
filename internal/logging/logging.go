// Package logging initializes the application's structured loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu          sync.Mutex
	level       = new(slog.LevelVar)
	fileWriters []io.Closer
)

// Init configures the default slog logger. Structured JSON goes to
// stdout; the level can be raised to debug with SetDebug.
func Init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SetDebug switches the minimum level between info and debug.
func SetDebug(debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// NewFileLogger returns a logger writing text logs to the given path
// with size-based rotation. Callers own the returned logger; the file
// is closed by Close at shutdown.
func NewFileLogger(path, service string) *slog.Logger {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	mu.Lock()
	fileWriters = append(fileWriters, writer)
	mu.Unlock()

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", service)
}

// Close flushes and closes all file-backed loggers.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, w := range fileWriters {
		_ = w.Close()
	}
	fileWriters = nil
}

// ForService returns a child of the default logger tagged with a
// service name, the conventional per-package logger constructor.
func ForService(service string) *slog.Logger {
	return slog.Default().With("service", service)
}
