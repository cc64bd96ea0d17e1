// Package processor implements the Artifact Processor: the single
// process(path) entry point shared by the crawler and the watcher, and the
// bounded-queue/worker-pool pipeline that feeds it.
// Grounded on the teacher's queue+worker+ticker shape in
// internal/nvr/monitor.go, replacing NVR/channel health probing with
// artifact describe-derive-persist.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
	"github.com/mikesvoboda/foscam-ingest/internal/data"
	"github.com/mikesvoboda/foscam-ingest/internal/describer"
	"github.com/mikesvoboda/foscam-ingest/internal/describer/videoframe"
	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/metrics"
	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
)

const (
	readinessPollInterval = 250 * time.Millisecond
	readinessMaxWait      = 10 * time.Second
	transientRetryBackoff = 500 * time.Millisecond
)

// Options controls per-call behavior that differs between producers.
type Options struct {
	// BypassReadinessWait skips the readiness wait for the crawler, which
	// only ever sees files that finished writing.
	BypassReadinessWait bool

	// Retry marks Process's own second attempt after a readiness timeout,
	// so a file that is still not ready is dropped instead of retried again.
	Retry bool

	// Done, if non-nil, receives the terminal event once Process finishes
	// with path. The crawler uses this to build a synchronous CrawlReport
	// over the pipeline's asynchronous worker pool.
	Done chan<- events.Event
}

// Processor is the single entry point for turning one discovered path into
// a committed Detection (or a classified skip/failure).
type Processor struct {
	store         *data.Store
	describer     describer.Describer
	thumbnailRoot string
	recorder      events.Recorder
}

func New(store *data.Store, d describer.Describer, thumbnailRoot string, recorder events.Recorder) *Processor {
	return &Processor{store: store, describer: d, thumbnailRoot: thumbnailRoot, recorder: recorder}
}

// Process runs a single path through parse, dedupe, readiness wait,
// describe, alert derivation, and commit, in that order, reporting exactly
// one terminal event when it's done.
func (p *Processor) Process(ctx context.Context, path string, opts Options) {
	start := time.Now()

	// Phase 1: parse.
	parsed, err := pathparser.Parse(path)
	if err != nil {
		p.finish(opts, events.Event{Kind: events.SkippedUnrecognized, Path: path, Err: err})
		return
	}

	// Phase 2: dedupe.
	exists, err := p.store.Detections.ExistsByFilepath(ctx, path)
	if err != nil {
		p.finish(opts, events.Event{Kind: events.FailedPermanent, Path: path, Err: fmt.Errorf("dedupe check: %w", err)})
		return
	}
	if exists {
		p.finish(opts, events.Event{Kind: events.SkippedKnown, Path: path})
		return
	}

	// Phase 3: readiness wait (watcher path only).
	if !opts.BypassReadinessWait {
		ready, err := waitForReadiness(ctx, path)
		if err != nil {
			p.finish(opts, events.Event{Kind: events.FailedPermanent, Path: path, Err: err})
			return
		}
		if !ready {
			if opts.Retry {
				p.finish(opts, events.Event{Kind: events.FailedTransient, Path: path, Err: fmt.Errorf("file never became ready")})
				return
			}
			// Re-queue once by recursing with Retry set; caller's pipeline
			// worker loop treats this as a normal synchronous call.
			p.Process(ctx, path, Options{BypassReadinessWait: opts.BypassReadinessWait, Retry: true, Done: opts.Done})
			return
		}
	}

	// Phase 4: describe.
	outcome, describeErr := p.describe(ctx, path, parsed)
	if describeErr != nil && !outcome.unanalyzable {
		p.finish(opts, events.Event{Kind: events.FailedPermanent, Path: path, Err: describeErr})
		return
	}

	// Phase 5: derive.
	flags, fired := alerts.Derive(outcome.description)
	_ = flags // denormalized on the Detection by CommitArtifact from fired kinds

	detection := data.Detection{
		Filename:           parsed.Filename,
		Filepath:           path,
		MediaType:          mediaTypeOf(parsed),
		MotionType:         motionTypeString(parsed),
		ProcessingTime:     time.Since(start).Seconds(),
		Description:        outcome.description,
		Confidence:         outcome.confidence,
		AnalysisStructured: outcome.analysisJSON,
		Timestamp:          time.Now(),
		FileTimestamp:      parsed.FileTimestamp,
		Width:              outcome.width,
		Height:             outcome.height,
		FrameCount:         outcome.frameCount,
		DurationSeconds:    outcome.durationSeconds,
		ThumbnailPath:      outcome.thumbnailPath,
	}

	// Phase 6: persist.
	detectionID, err := p.store.CommitArtifact(ctx, data.ArtifactCommit{
		Location:   parsed.Location,
		DeviceName: parsed.DeviceName,
		Detection:  detection,
		FiredKinds: fired,
	})
	if err != nil {
		if err == data.ErrDuplicateFilepath {
			p.finish(opts, events.Event{Kind: events.SkippedKnown, Path: path})
			return
		}
		p.finish(opts, events.Event{Kind: events.FailedPermanent, Path: path, Err: fmt.Errorf("commit: %w", err)})
		return
	}

	// Phase 7: post-commit.
	p.finish(opts, events.Event{
		Kind:       events.Ingested,
		Path:       path,
		Detection:  detectionID,
		AlertKinds: fired,
		Duration:   time.Since(start),
	})
}

// finish records the terminal event, bumps the matching metric, and — if
// the caller (typically the crawler) registered a completion channel —
// forwards the outcome so a synchronous CrawlReport can be built over an
// otherwise asynchronous worker pool.
func (p *Processor) finish(opts Options, e events.Event) {
	p.recorder.Record(e)
	metrics.ProcessedTotal.WithLabelValues(string(e.Kind)).Inc()
	if opts.Done != nil {
		opts.Done <- e
	}
}

type describeOutcome struct {
	description     string
	confidence      float64
	analysisJSON    []byte
	width, height   int
	frameCount      *int
	durationSeconds *float64
	thumbnailPath   *string
	unanalyzable    bool
}

// describe reads and describes path, classifying failures along the way,
// and extracts a thumbnail for video. A transient describer error is
// retried once after a short backoff; a permanent failure yields a "seen
// but unanalyzable" outcome rather than an error, so the artifact still
// commits with an empty description instead of being dropped.
func (p *Processor) describe(ctx context.Context, path string, parsed *pathparser.Parsed) (describeOutcome, error) {
	if parsed.MediaType == pathparser.MediaImage {
		return p.describeImage(ctx, path)
	}
	return p.describeVideo(ctx, path)
}

func (p *Processor) describeImage(ctx context.Context, path string) (describeOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return unanalyzableOutcome(), nil
	}

	result, err := p.describer.DescribeImage(ctx, data)
	if err != nil {
		if describer.IsTransient(err) {
			time.Sleep(transientRetryBackoff)
			result, err = p.describer.DescribeImage(ctx, data)
		}
		if err != nil {
			return unanalyzableOutcome(), nil
		}
	}

	_, fired := alerts.Derive(compositeImageFiredInput(result))
	description := describer.CompositeImageDescription(result, fired)
	analysisJSON, _ := json.Marshal(result.Aspects)

	return describeOutcome{
		description:  description,
		confidence:   result.Confidence,
		analysisJSON: analysisJSON,
		width:        result.Width,
		height:       result.Height,
	}, nil
}

func (p *Processor) describeVideo(ctx context.Context, path string) (describeOutcome, error) {
	result, err := p.describer.DescribeVideo(ctx, path)
	if err != nil {
		if describer.IsTransient(err) {
			time.Sleep(transientRetryBackoff)
			result, err = p.describer.DescribeVideo(ctx, path)
		}
		if err != nil {
			return unanalyzableOutcome(), nil
		}
	}

	_, fired := alerts.Derive(compositeVideoFiredInput(result))
	description := describer.CompositeVideoDescription(result, fired)
	analysisJSON, _ := json.Marshal(map[string]any{
		"timeline": result.Timeline,
		"events":   result.Events,
	})

	var thumbnailPath *string
	if len(result.ThumbnailBytes) > 0 {
		dest := filepath.Join(p.thumbnailRoot, stem(path)+".jpg")
		if writeErr := writeThumbnail(dest, result.ThumbnailBytes); writeErr == nil {
			thumbnailPath = &dest
		}
		// A write failure leaves thumbnailPath nil; the Detection still
		// commits without one rather than failing the whole artifact.
	}

	frameCount := result.FrameCount
	duration := result.DurationSeconds

	return describeOutcome{
		description:     description,
		confidence:      result.Confidence,
		analysisJSON:    analysisJSON,
		width:           result.Width,
		height:          result.Height,
		frameCount:      &frameCount,
		durationSeconds: &duration,
		thumbnailPath:   thumbnailPath,
	}, nil
}

func unanalyzableOutcome() describeOutcome {
	return describeOutcome{description: "", confidence: 0, unanalyzable: true}
}

// compositeImageFiredInput/compositeVideoFiredInput feed the alert deriver
// a rich-enough string before the final composite is built, since the
// composite itself embeds the ALERTS tail the deriver produced.
func compositeImageFiredInput(d *describer.ImageDescription) string {
	return strings.Join([]string{d.Aspects[describer.AspectGeneral], d.Aspects[describer.AspectSecurity], d.Aspects[describer.AspectObjects], d.Aspects[describer.AspectActivities], d.Aspects[describer.AspectEnvironment]}, " ")
}

func compositeVideoFiredInput(d *describer.VideoDescription) string {
	parts := append([]string{d.Caption}, d.Events...)
	for _, t := range d.Timeline {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

func mediaTypeOf(p *pathparser.Parsed) data.MediaType {
	if p.MediaType == pathparser.MediaImage {
		return data.MediaImage
	}
	return data.MediaVideo
}

func motionTypeString(p *pathparser.Parsed) *string {
	s := string(p.MotionType)
	return &s
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeThumbnail(dest string, data []byte) error {
	return videoframe.WriteAtomic(dest, data)
}
