// Package jsonl appends JSON records to daily files under a data directory.
package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends records to <dir>/<2006-01-02>.jsonl. Safe for concurrent use.
type Writer struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &Writer{
		dir:   dir,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Path returns today's file.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, w.now().UTC().Format("2006-01-02")+".jsonl")
}

// fileLock returns the mutex for path. The map grows by one entry per day.
func (w *Writer) fileLock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[path]
	if !ok {
		l = &sync.Mutex{}
		w.locks[path] = l
	}
	return l
}

// Append writes records to today's file, one per line. All records of a
// call land in the same file even across midnight.
func (w *Writer) Append(records ...any) (string, error) {
	path := w.Path()
	l := w.fileLock(path)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return path, nil
}
