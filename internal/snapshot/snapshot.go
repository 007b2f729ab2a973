// Package snapshot implements the write-behind persistence
// collaborator. The engine hands it the full in-memory state after each
// committed mutation and never waits for the write to finish; a failed
// or slow write is logged and never surfaces to callers.
package snapshot

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cofleet/exchange/internal/domain"
)

// Snapshot is the full engine state handed to the persistence
// collaborator after a committed mutation.
type Snapshot struct {
	TakenAt time.Time                  `json:"taken_at"`
	Orders  []*domain.Order            `json:"orders"`
	Trades  []*domain.Trade            `json:"trades"`
	Volumes map[string]map[int64]int64 `json:"volumes"`
}

// Writer receives snapshots without blocking the caller.
type Writer interface {
	Write(s Snapshot)
}

// Nop is a Writer that discards snapshots. Used in tests and when no
// data directory is configured.
type Nop struct{}

// Write discards the snapshot.
func (Nop) Write(Snapshot) {}

// FileWriter persists snapshots as JSON files in a data directory on a
// background goroutine. Writes coalesce: if snapshots arrive faster
// than they can be written, only the latest pending one is kept.
type FileWriter struct {
	dir    string
	logger *slog.Logger
	ch     chan Snapshot
	done   chan struct{}
}

// NewFileWriter creates a FileWriter for the given directory.
func NewFileWriter(dir string, logger *slog.Logger) *FileWriter {
	return &FileWriter{
		dir:    dir,
		logger: logger,
		ch:     make(chan Snapshot, 1),
		done:   make(chan struct{}),
	}
}

// Write queues a snapshot, replacing any pending one. Never blocks.
func (w *FileWriter) Write(s Snapshot) {
	for {
		select {
		case w.ch <- s:
			return
		default:
		}
		select {
		case <-w.ch: // drop the stale pending snapshot
		default:
		}
	}
}

// Start launches the background writer goroutine.
func (w *FileWriter) Start() {
	go func() {
		defer close(w.done)
		for s := range w.ch {
			w.persist(s)
		}
	}()
}

// Stop flushes any pending snapshot and stops the writer.
func (w *FileWriter) Stop() {
	close(w.ch)
	<-w.done
}

func (w *FileWriter) persist(s Snapshot) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.Error("snapshot mkdir failed", slog.String("error", err.Error()))
		return
	}
	w.writeFile("orders.json", s.Orders)
	w.writeFile("trades.json", s.Trades)
	w.writeFile("volumes.json", s.Volumes)
}

// writeFile marshals v and renames a temp file into place so readers
// never observe a partial write.
func (w *FileWriter) writeFile(name string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.logger.Error("snapshot marshal failed",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		return
	}

	path := filepath.Join(w.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		w.logger.Error("snapshot write failed",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		w.logger.Error("snapshot rename failed",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
	}
}

// Load reads a previously persisted snapshot from dir. Missing files
// yield an empty snapshot, not an error.
func Load(dir string) (Snapshot, error) {
	s := Snapshot{Volumes: make(map[string]map[int64]int64)}

	if err := loadFile(filepath.Join(dir, "orders.json"), &s.Orders); err != nil {
		return s, err
	}
	if err := loadFile(filepath.Join(dir, "trades.json"), &s.Trades); err != nil {
		return s, err
	}
	if err := loadFile(filepath.Join(dir, "volumes.json"), &s.Volumes); err != nil {
		return s, err
	}
	return s, nil
}

func loadFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(raw, v)
}
