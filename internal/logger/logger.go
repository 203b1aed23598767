package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	levelVar = new(slog.LevelVar)
	output   = &swappableWriter{w: os.Stderr}
)

// L is the process-wide logger. It writes to stderr so that stdout stays
// reserved for streamed answers. L itself never changes; SetOutput only
// swaps the writer underneath it.
var L = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: levelVar}))

// swappableWriter lets the destination change while records are being written.
type swappableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swappableWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *swappableWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// SetOutput redirects L to w, keeping the current level. It is safe to call
// while other goroutines log.
func SetOutput(w io.Writer) {
	output.set(w)
}
