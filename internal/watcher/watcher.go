package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/extract"
	"github.com/xxxsen/concierge/internal/rag"
)

const DefaultDebounce = 500 * time.Millisecond

type Ingester interface {
	IngestPath(ctx context.Context, name string, body io.Reader) (*rag.IngestResult, error)
}

type fileStamp struct {
	size  int64
	mtime time.Time
}

// Watcher ingests supported files dropped into a directory. Files present
// at start are ingested once. Repeated events for one path within the
// debounce window collapse into a single ingest.
type Watcher struct {
	dir      string
	ingester Ingester
	debounce time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stamps  map[string]fileStamp
	wg      sync.WaitGroup
	watcher *fsnotify.Watcher
}

func New(dir string, ingester Ingester, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir %s is not a directory", dir)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		ingester: ingester,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		stamps:   make(map[string]fileStamp),
		watcher:  fw,
	}, nil
}

// Run blocks until ctx is done, then waits for in-flight ingests.
func (w *Watcher) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx).With(zap.String("dir", w.dir))
	defer func() {
		_ = w.watcher.Close()
		w.stopTimers()
		w.wg.Wait()
	}()
	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !extract.Supported(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logutil.GetLogger(ctx).Warn("scan watch dir failed", zap.String("dir", w.dir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !extract.Supported(e.Name()) {
			continue
		}
		w.schedule(ctx, filepath.Join(w.dir, e.Name()))
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	logger := logutil.GetLogger(ctx).With(zap.String("path", path))
	info, err := os.Stat(path)
	if err != nil {
		logger.Debug("watched file gone", zap.Error(err))
		return
	}
	stamp := fileStamp{size: info.Size(), mtime: info.ModTime()}
	w.mu.Lock()
	prev, seen := w.stamps[path]
	w.mu.Unlock()
	if seen && prev == stamp {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("open watched file failed", zap.Error(err))
		return
	}
	defer f.Close()
	res, err := w.ingester.IngestPath(ctx, filepath.Base(path), f)
	if err != nil {
		logger.Error("ingest watched file failed", zap.Error(err))
		return
	}
	w.mu.Lock()
	w.stamps[path] = stamp
	w.mu.Unlock()
	logger.Info("watched file ingested", zap.Int("chunks", res.Chunks), zap.String("embed_tier", string(res.Outcome.Tier)))
}
