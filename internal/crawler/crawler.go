// Package crawler implements bulk backfill: crawling root streams every
// file under its recognized camera directories' snap/ and record/
// children through the shared Processor pipeline, in
// deterministic order, and returns a CrawlReport summarizing the outcome.
// Grounded on the teacher's internal/nvr/monitor.go discovery+enqueue
// shape, replaced here by a synchronous filepath.WalkDir-free two-level
// directory scan since the grammar is two fixed levels deep, not a tree.
package crawler

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/metrics"
	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

// Pipeline is the subset of *processor.Pipeline the crawler depends on.
type Pipeline interface {
	Offer(ctx context.Context, path string, opts processor.Options) error
}

// Options narrows a crawl to a subset of the tree.
type Options struct {
	// Limit caps the number of files offered to the Processor; zero means
	// unlimited.
	Limit int

	// Kinds restricts to "snap", "record", or both when empty.
	Kinds []pathparser.Kind

	// Cameras restricts to specific cameras, identified by
	// Parsed.FullName() ("<location>_<device_name>"); empty means all.
	Cameras []string
}

// FailureRecord is one of the first N failures surfaced in a CrawlReport.
type FailureRecord struct {
	Path string
	Err  error
}

const maxReportedFailures = 20

// CrawlReport is the result of one crawl run.
type CrawlReport struct {
	Seen                int
	SkippedKnown        int
	SkippedUnrecognized int
	ProcessedOK         int
	Failed              int
	FirstFailures       []FailureRecord
}

// Crawl walks root two levels deep, offering every file in a recognized
// camera's snap/ and record/ directories to pl in deterministic order;
// names the grammar rejects are offered too and come back as
// skipped_unrecognized. Offer blocks on a full queue, so a slow pl
// paces the walk rather than dropping files.
func Crawl(ctx context.Context, root string, pl Pipeline, opts Options) (CrawlReport, error) {
	var report CrawlReport

	cameraDirs, err := discoverCameraDirs(root)
	if err != nil {
		return report, err
	}

	for _, cam := range cameraDirs {
		if !cameraSelected(cam, opts.Cameras) {
			continue
		}

		files, err := filesForCamera(cam, opts.Kinds)
		if err != nil {
			return report, err
		}

		for _, f := range files {
			if opts.Limit > 0 && report.Seen >= opts.Limit {
				return report, nil
			}
			report.Seen++
			metrics.CrawlFilesSeen.WithLabelValues("seen").Inc()

			done := make(chan events.Event, 1)
			if err := pl.Offer(ctx, f.path, processor.Options{BypassReadinessWait: true, Done: done}); err != nil {
				return report, err
			}

			select {
			case e := <-done:
				tally(&report, e)
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}
	}

	return report, nil
}

func tally(report *CrawlReport, e events.Event) {
	switch e.Kind {
	case events.Ingested:
		report.ProcessedOK++
		metrics.CrawlFilesSeen.WithLabelValues("processed_ok").Inc()
	case events.SkippedKnown:
		report.SkippedKnown++
		metrics.CrawlFilesSeen.WithLabelValues("skipped_known").Inc()
	case events.SkippedUnrecognized:
		report.SkippedUnrecognized++
		metrics.CrawlFilesSeen.WithLabelValues("skipped_unrecognized").Inc()
	default:
		report.Failed++
		metrics.CrawlFilesSeen.WithLabelValues("failed").Inc()
		if len(report.FirstFailures) < maxReportedFailures {
			report.FirstFailures = append(report.FirstFailures, FailureRecord{Path: e.Path, Err: e.Err})
		}
	}
}

type cameraDir struct {
	location   string
	deviceName string
	path       string
}

// discoverCameraDirs finds every <root>/<location>/<device_name> directory
// whose device name looks like a camera, ordered by (location, device_name)
// ascending.
func discoverCameraDirs(root string) ([]cameraDir, error) {
	locations, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var cams []cameraDir
	for _, loc := range locations {
		if !loc.IsDir() {
			continue
		}
		devices, err := os.ReadDir(filepath.Join(root, loc.Name()))
		if err != nil {
			continue
		}
		for _, dev := range devices {
			if !dev.IsDir() {
				continue
			}
			if pathparser.InferDeviceType(dev.Name()) == pathparser.DeviceUnknown {
				continue
			}
			cams = append(cams, cameraDir{
				location:   loc.Name(),
				deviceName: dev.Name(),
				path:       filepath.Join(root, loc.Name(), dev.Name()),
			})
		}
	}

	sort.Slice(cams, func(i, j int) bool {
		if cams[i].location != cams[j].location {
			return cams[i].location < cams[j].location
		}
		return cams[i].deviceName < cams[j].deviceName
	})

	return cams, nil
}

func cameraSelected(cam cameraDir, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	fullName := cam.location + "_" + cam.deviceName
	for _, w := range wanted {
		if w == fullName {
			return true
		}
	}
	return false
}

type discoveredFile struct {
	path string
	ts   *int64 // unix nanos; nil when unparseable
	name string
}

// filesForCamera enumerates a camera's snap/ and record/ children, sorted
// by file_timestamp ascending with unparseable-timestamp files sorting
// last by name.
func filesForCamera(cam cameraDir, kinds []pathparser.Kind) ([]discoveredFile, error) {
	var files []discoveredFile

	for _, kind := range []pathparser.Kind{pathparser.KindSnap, pathparser.KindRecord} {
		if !kindSelected(kind, kinds) {
			continue
		}
		dir := filepath.Join(cam.path, string(kind))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())

			var ts *int64
			if parsed, err := pathparser.Parse(path); err == nil && parsed.FileTimestamp != nil {
				nanos := parsed.FileTimestamp.UnixNano()
				ts = &nanos
			}
			// Names the grammar rejects outright still flow through with
			// ts == nil (sorting last); the Processor's own parse phase
			// classifies them as skipped_unrecognized.
			files = append(files, discoveredFile{path: path, ts: ts, name: entry.Name()})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.ts == nil && b.ts == nil {
			return a.name < b.name
		}
		if a.ts == nil {
			return false
		}
		if b.ts == nil {
			return true
		}
		return *a.ts < *b.ts
	})

	return files, nil
}

func kindSelected(kind pathparser.Kind, wanted []pathparser.Kind) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if w == kind {
			return true
		}
	}
	return false
}
