// Package logging provides the component-scoped structured logger shared by
// every subsystem in the gateway.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	baseOnce sync.Once
	base     *slog.Logger
)

func rootLogger() *slog.Logger {
	baseOnce.Do(func() {
		level := slog.LevelInfo
		if os.Getenv("MOLTIS_LOG_DEBUG") != "" {
			level = slog.LevelDebug
		}
		base = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	})
	return base
}

// Logger is the minimal logging surface every component depends on.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ComponentLogger tags every line with a fixed component name, mirroring the
// teacher's logging.NewComponentLogger("Router") idiom.
type ComponentLogger struct {
	component string
	log       *slog.Logger
}

// NewComponentLogger returns a Logger prefixed with component.
func NewComponentLogger(component string) *ComponentLogger {
	return &ComponentLogger{component: component, log: rootLogger()}
}

func (c *ComponentLogger) Debug(format string, args ...any) {
	c.log.Debug(sprintf(format, args...), "component", c.component)
}

func (c *ComponentLogger) Info(format string, args ...any) {
	c.log.Info(sprintf(format, args...), "component", c.component)
}

func (c *ComponentLogger) Warn(format string, args ...any) {
	c.log.Warn(sprintf(format, args...), "component", c.component)
}

func (c *ComponentLogger) Error(format string, args ...any) {
	c.log.Error(sprintf(format, args...), "component", c.component)
}

// nopLogger discards everything; used where no logger was configured.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// OrNop returns logger, or a no-op Logger if logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}

// LatencyLogger records operation durations under a fixed component tag,
// mirroring the teacher's logging.NewLatencyLogger("HTTP") idiom.
type LatencyLogger struct {
	component string
	log       *slog.Logger
}

// NewLatencyLogger returns a latency logger tagged with component.
func NewLatencyLogger(component string) *LatencyLogger {
	return &LatencyLogger{component: component, log: rootLogger()}
}

// Track logs how long fn took to run, along with its error if any.
func (l *LatencyLogger) Track(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if err != nil {
		l.log.Warn("operation failed", "component", l.component, "operation", operation, "elapsed_ms", elapsed.Milliseconds(), "error", err.Error())
	} else {
		l.log.Info("operation completed", "component", l.component, "operation", operation, "elapsed_ms", elapsed.Milliseconds())
	}
	return err
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
