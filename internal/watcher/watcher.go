// Package watcher runs a live filesystem subscription that forwards
// recognized creation events to the same Processor entry point the
// crawler uses, until cancelled. Grounded on the teacher's
// internal/license.StartWatcher fsnotify loop shape and
// internal/nvr.EventDedup's golang-lru coalescing cache, retargeted from
// license-file reload / NVR event dedup to camera artifact creation
// events.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

const (
	coalesceWindow   = 1 * time.Second
	coalesceCapacity = 4096
	backoffInitial   = 1 * time.Second
	backoffMax       = 30 * time.Second
)

// Pipeline is the subset of *processor.Pipeline the watcher depends on.
// Offer blocks the caller while the queue is full rather than dropping the
// event: a dropped creation event would be lost for good, since rediscovery
// only re-subscribes directories, it never re-scans existing files for ones
// the watcher missed.
type Pipeline interface {
	Offer(ctx context.Context, path string, opts processor.Options) error
}

// Watcher subscribes to every recognized snap/record subtree under root
// and periodically re-scans for newly created camera directories.
type Watcher struct {
	root                string
	pl                  Pipeline
	recorder            events.Recorder
	rediscoveryInterval time.Duration

	coalesce *lru.Cache[string, time.Time]
}

// New builds a Watcher. rediscoveryInterval defaults to 60s when zero or
// negative.
func New(root string, pl Pipeline, recorder events.Recorder, rediscoveryInterval time.Duration) (*Watcher, error) {
	if rediscoveryInterval <= 0 {
		rediscoveryInterval = 60 * time.Second
	}
	cache, err := lru.New[string, time.Time](coalesceCapacity)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:                root,
		pl:                  pl,
		recorder:            recorder,
		rediscoveryInterval: rediscoveryInterval,
		coalesce:            cache,
	}, nil
}

// Run subscribes and dispatches until ctx is cancelled. A failing
// subscription is retried with exponential backoff (1s -> 30s cap),
// emitting a warning event on every retry.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := backoffInitial

	for {
		err := w.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		w.recorder.Record(events.Event{Kind: events.WatchWarning, Path: w.root, Err: err})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer fsw.Close()

	if err := w.subscribeAll(fsw); err != nil {
		return fmt.Errorf("watcher: initial subscribe: %w", err)
	}

	ticker := time.NewTicker(w.rediscoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher: event channel closed")
			}
			w.handleEvent(ctx, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher: error channel closed")
			}
			return err

		case <-ticker.C:
			if err := w.subscribeAll(fsw); err != nil {
				return fmt.Errorf("watcher: rediscovery: %w", err)
			}
		}
	}
}

// handleEvent admits one fsnotify event to the pipeline, blocking on Offer
// while the queue is full. This stalls the event-read loop below it (and,
// transitively, risks overflowing fsnotify's own internal event buffer
// during a sustained backlog) in exchange for never silently dropping a
// recognized creation event — a dropped event has no other path back into
// the pipeline short of an operator running a manual crawl.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if _, err := pathparser.Parse(ev.Name); err != nil {
		return
	}

	if w.isDuplicate(ev.Name) {
		return
	}

	w.pl.Offer(ctx, ev.Name, processor.Options{})
}

// isDuplicate coalesces repeat notifications for the same path within
// coalesceWindow into a single dispatch.
func (w *Watcher) isDuplicate(path string) bool {
	if last, ok := w.coalesce.Get(path); ok && time.Since(last) < coalesceWindow {
		return true
	}
	w.coalesce.Add(path, time.Now())
	return false
}

// subscribeAll adds the existing snap/ and record/ directory of every
// recognized camera directory under root to fsw; the camera directories
// themselves are not watched. It is called at startup and on every
// rediscovery tick so newly created camera directories are picked up.
func (w *Watcher) subscribeAll(fsw *fsnotify.Watcher) error {
	locations, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}

	for _, loc := range locations {
		if !loc.IsDir() {
			continue
		}
		locPath := filepath.Join(w.root, loc.Name())

		devices, err := os.ReadDir(locPath)
		if err != nil {
			continue
		}
		for _, dev := range devices {
			if !dev.IsDir() || pathparser.InferDeviceType(dev.Name()) == pathparser.DeviceUnknown {
				continue
			}
			devPath := filepath.Join(locPath, dev.Name())
			for _, kind := range []string{"snap", "record"} {
				kindPath := filepath.Join(devPath, kind)
				if info, err := os.Stat(kindPath); err == nil && info.IsDir() {
					_ = fsw.Add(kindPath) // already-watched paths return nil; fine to re-add
				}
			}
		}
	}

	return nil
}
