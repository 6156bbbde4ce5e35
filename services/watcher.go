package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// settleDelay is how long a dropped file must stay quiet before ingestion.
// Copying a PDF into the folder fires a burst of Write events; ingesting on
// each one would index the same document several times.
const settleDelay = 2 * time.Second

// DropFolderWatcher auto-ingests PDFs that appear in a local directory.
// This is a convenience path for local setups without the HTTP upload; the
// same ingestion pipeline runs underneath.
type DropFolderWatcher struct {
	service RAGService
	logger  *logrus.Logger
}

// NewDropFolderWatcher wires the watcher to the ingestion pipeline.
func NewDropFolderWatcher(service RAGService, logger *logrus.Logger) *DropFolderWatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &DropFolderWatcher{service: service, logger: logger}
}

// Watch blocks until the context is cancelled, ingesting every PDF created
// or rewritten in dirPath. Editors often write via create-temp-then-rename,
// so Create and Write are handled identically; a re-dropped file ingests as
// a new document. Event bursts for one path are coalesced per settleDelay.
func (w *DropFolderWatcher) Watch(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.WithError(err).Error("failed to create drop-folder watcher")
		return
	}
	defer watcher.Close()

	pending := newDebouncer(settleDelay, func(path string) {
		w.logger.WithField("file", path).Info("drop folder: ingesting file")
		if err := w.ingestFile(ctx, path); err != nil {
			w.logger.WithError(err).WithField("file", path).Error("drop folder: ingestion failed")
		}
	})
	defer pending.stop()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsSupportedFile(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					pending.trigger(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.WithError(err).Error("drop-folder watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := watcher.Add(dirPath); err != nil {
		w.logger.WithError(err).WithField("dir", dirPath).Error("failed to watch drop folder")
		return
	}
	w.logger.WithField("dir", dirPath).Info("watching drop folder")

	<-ctx.Done()
}

// debouncer runs fn for a path only after the path has been quiet for the
// whole delay; retriggering resets the clock.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(path string)
	pending map[string]*time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fn func(path string)) *debouncer {
	return &debouncer{delay: delay, fn: fn, pending: make(map[string]*time.Timer)}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if timer, ok := d.pending[path]; ok {
		timer.Reset(d.delay)
		return
	}
	d.pending[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.pending, path)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fn(path)
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, timer := range d.pending {
		timer.Stop()
		delete(d.pending, path)
	}
}

func (w *DropFolderWatcher) ingestFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = w.service.Ingest(ctx, filepath.Base(path), f, info.Size(), "application/pdf")
	return err
}
