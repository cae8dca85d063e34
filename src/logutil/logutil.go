package logutil

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	LogFileName  = "lighthouse_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

var verbose atomic.Bool

// Setup routes the standard logger. With file logging on, output goes to
// LogFileName inside dir with size rotation (10MB, 3 archives); otherwise
// it stays on stderr. It returns the log file path, or "" for stderr.
func Setup(dir string, enableFileLogging, verboseLogging bool) string {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	verbose.Store(verboseLogging)
	if !enableFileLogging {
		log.SetOutput(os.Stderr)
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log dir: %v\n", err)
		return ""
	}
	w := &rotatingWriter{path: filepath.Join(dir, LogFileName)}
	w.rotateIfNeeded()
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return ""
	}
	w.f = f
	log.SetOutput(w)
	return w.path
}

// Debugf logs only when verbose logging is enabled.
func Debugf(format string, args ...any) {
	if verbose.Load() {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

// rotatingWriter is only written through the standard logger, which
// serialises calls.
type rotatingWriter struct {
	path string
	f    *os.File
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		w.rotate()
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) rotateIfNeeded() {
	if st, err := os.Stat(w.path); err == nil && st.Size() > maxSizeBytes {
		w.rotate()
	}
}

// rotate shifts .1 -> .2 -> .3, dropping the oldest, and moves the live file to .1.
func (w *rotatingWriter) rotate() {
	_ = os.Remove(w.archiveName(maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
}

func (w *rotatingWriter) archiveName(n int) string { return fmt.Sprintf("%s.%d", w.path, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}
