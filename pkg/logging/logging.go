// Package logging mints per-component slog.Logger instances from a
// single backend, so every subsystem's output shares one writer and
// one level policy.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/decred/slog"
)

// Config controls the shared backend.
type Config struct {
	// DebugLevel is one of trace, debug, info, warn, error, critical, off.
	DebugLevel string
	Writer     io.Writer
}

// Backend mints named slog.Logger instances that all write to the same
// underlying slog.Backend, so every component's output is interleaved
// and level-filtered consistently.
type Backend struct {
	mu      sync.Mutex
	backend *slog.Backend
	level   slog.Level
	loggers map[string]slog.Logger
}

// NewBackend creates a Backend writing to cfg.Writer (stdout if nil).
func NewBackend(cfg Config) (*Backend, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}

	return &Backend{
		backend: slog.NewBackend(w),
		level:   level,
		loggers: make(map[string]slog.Logger),
	}, nil
}

// Logger returns the named logger, creating it on first use.
func (b *Backend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.loggers[subsystem]; ok {
		return l
	}

	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	b.loggers[subsystem] = l
	return l
}

// SetLevel updates the level for every logger minted so far and any
// future one.
func (b *Backend) SetLevel(level slog.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.level = level
	for _, l := range b.loggers {
		l.SetLevel(level)
	}
}

// Disabled returns a logger that discards everything, useful as a
// zero-value-safe default in tests that don't care about log output.
func Disabled() slog.Logger {
	b := slog.NewBackend(io.Discard)
	l := b.Logger("DISABLED")
	l.SetLevel(slog.LevelOff)
	return l
}
