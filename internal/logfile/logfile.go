// Package logfile writes captured log lines to plain-text files: a
// continuous capture writer for headless runs and one-shot snapshots for
// the interactive save action.
package logfile

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/linetap/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Writer is a mutexed append-only writer for a continuous capture file.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open creates or opens a capture file at path, creating parent
// directories as needed.
func Open(path string) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("logfile: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("logfile: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("logfile: open: %w", err)
	}
	return &Writer{path: path, file: f}, nil
}

// Append writes one formatted event line.
func (w *Writer) Append(ev model.LogEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("logfile: writer is closed")
	}
	if _, err := w.file.WriteString(ev.Format() + "\n"); err != nil {
		return fmt.Errorf("logfile: write: %w", err)
	}
	return nil
}

// OnEvent implements model.Sink so a Writer can sit directly behind the
// bus. Write failures are logged, not propagated; capture is best-effort.
func (w *Writer) OnEvent(ev model.LogEvent) {
	if err := w.Append(ev); err != nil {
		log.Printf("logfile: %v", err)
	}
}

// Path returns the capture file path.
func (w *Writer) Path() string { return w.path }

// Close closes the underlying file. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Snapshot writes lines to a new timestamped file under dir and returns
// its path.
func Snapshot(dir string, lines []string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("logfile: directory is empty")
	}
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return "", fmt.Errorf("logfile: mkdir: %w", err)
	}

	name := "linetap-" + time.Now().Format("20060102-150405") + ".log"
	path := filepath.Join(dir, name)

	data := []byte(strings.Join(lines, "\n"))
	if len(lines) > 0 {
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, defaultFileMode); err != nil {
		return "", fmt.Errorf("logfile: write snapshot: %w", err)
	}
	return path, nil
}
