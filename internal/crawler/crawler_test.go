package crawler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/crawler"
	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

type fakePipeline struct {
	offered []string
}

func (f *fakePipeline) Offer(ctx context.Context, path string, opts processor.Options) error {
	f.offered = append(f.offered, path)
	if opts.Done != nil {
		opts.Done <- events.Event{Kind: events.Ingested, Path: path}
	}
	return nil
}

func TestCrawl_OrdersFilesByLocationDeviceThenTimestamp(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-120000.jpg"))
	mustWriteFile(t, filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-110000.jpg"))
	mustWriteFile(t, filepath.Join(root, "backyard", "R2C2", "snap", "MDAlarm_20260101-090000.jpg"))

	pl := &fakePipeline{}
	report, err := crawler.Crawl(context.Background(), root, pl, crawler.Options{})
	require.NoError(t, err)

	require.Equal(t, 3, report.Seen)
	require.Equal(t, 3, report.ProcessedOK)
	require.Equal(t, []string{
		filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-110000.jpg"),
		filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-120000.jpg"),
		filepath.Join(root, "backyard", "R2C2", "snap", "MDAlarm_20260101-090000.jpg"),
	}, pl.offered)
}

func TestCrawl_RespectsLimit(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-120000.jpg"))
	mustWriteFile(t, filepath.Join(root, "backyard", "FoscamCamera1", "snap", "MDAlarm_20260101-110000.jpg"))

	pl := &fakePipeline{}
	report, err := crawler.Crawl(context.Background(), root, pl, crawler.Options{Limit: 1})
	require.NoError(t, err)

	require.Equal(t, 1, report.Seen)
	require.Len(t, pl.offered, 1)
}

func mustWriteFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
