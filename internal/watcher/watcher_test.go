package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

type fakePipeline struct {
	offered []string
}

func (f *fakePipeline) Offer(ctx context.Context, path string, opts processor.Options) error {
	f.offered = append(f.offered, path)
	return nil
}

type nullRecorder struct{}

func (nullRecorder) Record(events.Event) {}

func TestHandleEvent_IgnoresUnrecognizedPaths(t *testing.T) {
	pl := &fakePipeline{}
	w, err := New("/camroot", pl, nullRecorder{}, 0)
	require.NoError(t, err)

	w.handleEvent(context.Background(), fsnotify.Event{Name: "/camroot/not-a-camera-path.txt", Op: fsnotify.Create})

	require.Empty(t, pl.offered)
}

func TestHandleEvent_ForwardsRecognizedCreate(t *testing.T) {
	pl := &fakePipeline{}
	w, err := New("/camroot", pl, nullRecorder{}, 0)
	require.NoError(t, err)

	path := "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg"
	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})

	require.Equal(t, []string{path}, pl.offered)
}

func TestHandleEvent_CoalescesDuplicateWithinWindow(t *testing.T) {
	pl := &fakePipeline{}
	w, err := New("/camroot", pl, nullRecorder{}, 0)
	require.NoError(t, err)

	path := "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg"
	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})

	require.Len(t, pl.offered, 1)
}

func TestIsDuplicate_ExpiresAfterWindow(t *testing.T) {
	pl := &fakePipeline{}
	w, err := New("/camroot", pl, nullRecorder{}, 0)
	require.NoError(t, err)

	path := "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg"
	w.coalesce.Add(path, time.Now().Add(-2*coalesceWindow))

	require.False(t, w.isDuplicate(path))
}
