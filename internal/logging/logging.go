package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
)

// Manager owns the process logger: level, optional log file, and
// component-scoped child loggers for the rest of the runtime.
type Manager struct {
	mu     sync.RWMutex
	level  slog.LevelVar
	logger *slog.Logger
	file   *os.File
}

func NewManager() *Manager {
	m := &Manager{}
	m.level.Set(slog.LevelInfo)
	m.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &m.level}))

	return m
}

// Configure applies the logging config. When file logging is enabled the
// log file is opened in append mode and records go to both stdout and the
// file; a sink failing does not stop the other from receiving records.
func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	sinks := []io.Writer{os.Stdout}
	if cfg.LogToFile {
		cleanPath := filepath.Clean(filePath)
		// #nosec G304 -- path is resolved by app runtime and points to user config dir.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		m.file = file
		sinks = append(sinks, file)
	}

	m.level.Set(level)
	m.logger = slog.New(slog.NewTextHandler(tee(sinks...), &slog.HandlerOptions{Level: &m.level}))
	slog.SetDefault(m.logger)

	return nil
}

// Logger returns a child logger tagged with a component name.
func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

// SetLevel changes the level of every logger handed out by this manager.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil

	return err
}

// ParseLevel maps a config level string onto a slog level. An empty string
// means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", raw)
	}
}

// teeWriter duplicates records across sinks. A record counts as written
// when at least one sink accepted it.
type teeWriter struct {
	sinks []io.Writer
}

func tee(sinks ...io.Writer) io.Writer {
	if len(sinks) == 1 {
		return sinks[0]
	}

	return &teeWriter{sinks: sinks}
}

func (w *teeWriter) Write(p []byte) (int, error) {
	var (
		delivered bool
		firstErr  error
	)
	for _, sink := range w.sinks {
		n, err := sink.Write(p)
		switch {
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
		case n < len(p):
			if firstErr == nil {
				firstErr = io.ErrShortWrite
			}
		default:
			delivered = true
		}
	}
	if !delivered && firstErr != nil {
		return 0, firstErr
	}

	return len(p), nil
}
