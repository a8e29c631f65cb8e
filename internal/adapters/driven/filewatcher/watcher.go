// Package filewatcher feeds dropped text files into the ingestion
// entrypoint. It watches a single directory for extracted-text files
// and ingests each one after its writes settle.
package filewatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driving"
	"github.com/pablofarias19/sentency-sub002/internal/logger"
)

// DefaultSettle is how long a file must stay quiet after its last write
// before it is ingested. Extraction tools write large files in several
// chunks; ingesting on the first event would read a partial document.
const DefaultSettle = 500 * time.Millisecond

// DefaultRebuildQuiet is how long the directory must stay quiet after
// the last successful ingestion before the index is rebuilt. Rebuilds
// are wholesale, so a bulk drop coalesces into a single rebuild once
// every file has settled.
const DefaultRebuildQuiet = 2 * time.Second

// Watcher monitors a directory and ingests every *.txt file dropped or
// rewritten there. The document ID is the file stem, so rewriting a
// file supersedes its earlier chunks. Ingested chunks only become
// searchable through an index rebuild, so the watcher rebuilds once
// ingestion goes quiet.
type Watcher struct {
	dir          string
	ingest       driving.Ingestor
	settle       time.Duration
	rebuildQuiet time.Duration
	onError      func(path string, err error)

	mu           sync.Mutex
	pending      map[string]*time.Timer
	rebuildTimer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before a changed file is ingested.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithRebuildQuiet overrides the quiet period before the index rebuild.
func WithRebuildQuiet(d time.Duration) Option {
	return func(w *Watcher) { w.rebuildQuiet = d }
}

// WithErrorHandler installs a callback for per-file ingestion failures.
// The default logs and keeps watching.
func WithErrorHandler(fn func(path string, err error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New creates a watcher over dir feeding the given ingestor.
func New(dir string, ingest driving.Ingestor, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: watch directory %s: %v", domain.ErrInvalidInput, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	w := &Watcher{
		dir:          dir,
		ingest:       ingest,
		settle:       DefaultSettle,
		rebuildQuiet: DefaultRebuildQuiet,
		pending:      make(map[string]*time.Timer),
	}
	w.onError = func(path string, err error) {
		logger.Warn("Ingesting %s failed: %v", path, err)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until the context is cancelled. Create and write events
// on eligible files schedule an ingestion after the settle period; a
// new event on the same file resets its timer.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !Eligible(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// Eligible reports whether a path is an extracted-text file the watcher
// ingests. Hidden files and non-.txt extensions are skipped.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".txt")
}

// schedule (re)arms the settle timer for one path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := w.ingestFile(ctx, path); err != nil {
			w.onError(path, err)
			return
		}
		w.scheduleRebuild(ctx)
	})
}

// scheduleRebuild (re)arms the rebuild timer. Every successful
// ingestion pushes it back, so a bulk drop rebuilds once, not once per
// file.
func (w *Watcher) scheduleRebuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rebuildTimer != nil {
		w.rebuildTimer.Stop()
	}
	w.rebuildTimer = time.AfterFunc(w.rebuildQuiet, func() {
		if err := w.ingest.RebuildIndex(ctx); err != nil {
			w.onError(w.dir, err)
			return
		}
		logger.Info("Index rebuilt, ingested documents are searchable")
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	if w.rebuildTimer != nil {
		w.rebuildTimer.Stop()
		w.rebuildTimer = nil
	}
}

// ingestFile reads one settled file and hands it to the ingestor. The
// document ID is the file stem, so a rewritten file replaces its prior
// chunks instead of accumulating duplicates.
func (w *Watcher) ingestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	base := filepath.Base(path)
	doc := domain.SourceDocument{
		ID:   strings.TrimSuffix(base, filepath.Ext(base)),
		Text: string(data),
		Metadata: domain.MetadataRecord{
			SourceFile: base,
		},
	}

	report, err := w.ingest.Ingest(ctx, doc)
	if err != nil {
		return err
	}
	logger.Info("Ingested %s: %d chunks, %d failures", base, len(report.ChunkIDs), len(report.Failures))
	return nil
}
