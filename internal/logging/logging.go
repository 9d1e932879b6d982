package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Buffer keeps the most recent log lines in memory so they can be
// served over the /logs endpoint.
type Buffer struct {
	lines []string
	mu    sync.Mutex
}

// NewBuffer creates a buffer that retains up to 1000 lines.
func NewBuffer() *Buffer {
	return &Buffer{lines: make([]string, 0, 1000)}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, string(p))
	if len(b.lines) > 1000 {
		b.lines = b.lines[len(b.lines)-1000:]
	}
	return len(p), nil
}

// Lines returns a copy of the buffered log lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Init initializes the global logger, writing human-readable output to
// stderr and raw lines into the returned buffer.
func Init(verbose bool) *Buffer {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	buf := NewBuffer()
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multi := zerolog.MultiLevelWriter(console, buf)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	return buf
}

// WithComponent creates a logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
