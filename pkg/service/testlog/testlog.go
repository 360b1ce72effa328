package testlog

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
)

// Testing interface to log to. Using this instead of *testing.T keeps
// helpers usable from benchmarks too.
type Testing interface {
	Logf(format string, args ...any)
	Helper()
}

type lineWriter struct {
	t   Testing
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// keep the partial line for the next write
			w.buf.Write(line)
			break
		}
		w.t.Helper()
		w.t.Logf("%s", bytes.TrimRight(line, "\n"))
	}
	return len(p), nil
}

// Logger returns a logger that writes to t.Log, so output is only shown for
// failing tests or with -v.
func Logger(t Testing, level slog.Level) log.Logger {
	h := log.NewTerminalHandlerWithLevel(&lineWriter{t: t}, level, false)
	return log.NewLogger(h)
}

var _ Testing = (*testing.T)(nil)
