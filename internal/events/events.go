// Package events defines the terminal-outcome notifications the Artifact
// Processor emits for every path it finishes with: ingested, the two skip
// kinds, and the two failure kinds. Grounded
// on the teacher's charmbracelet/log structured-field logging style used
// throughout internal/nvr and internal/api.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
)

// Kind names the terminal outcome a processed path landed on.
type Kind string

const (
	Ingested            Kind = "ingested"
	SkippedKnown        Kind = "skipped_known"
	SkippedUnrecognized Kind = "skipped_unrecognized"
	FailedTransient     Kind = "failed_transient"
	FailedPermanent     Kind = "failed_permanent"

	// WatchWarning reports a retried subscription failure in the watcher's
	// event source.
	WatchWarning Kind = "watch_warning"
)

// Event is a single terminal-outcome notification.
type Event struct {
	Kind       Kind
	Path       string
	Detection  uuid.UUID
	AlertKinds []alerts.Kind
	Duration   time.Duration
	Err        error
}

// Recorder is how the Processor reports a terminal outcome. Production
// wires Logging; tests can substitute a slice-collecting fake.
type Recorder interface {
	Record(e Event)
}

// Logging is the default Recorder, writing one structured line per event
// at a level that matches severity.
type Logging struct {
	Logger interface {
		Info(msg any, keyvals ...any)
		Warn(msg any, keyvals ...any)
		Error(msg any, keyvals ...any)
	}
}

func NewLogging(logger interface {
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}) Logging {
	return Logging{Logger: logger}
}

func (l Logging) Record(e Event) {
	switch e.Kind {
	case Ingested:
		l.Logger.Info("artifact ingested", "path", e.Path, "detection_id", e.Detection, "alerts", kindNames(e.AlertKinds), "duration", e.Duration)
	case SkippedKnown:
		l.Logger.Info("artifact skipped: already known", "path", e.Path)
	case SkippedUnrecognized:
		l.Logger.Warn("artifact skipped: unrecognized path", "path", e.Path, "err", e.Err)
	case FailedTransient:
		l.Logger.Warn("artifact failed transiently", "path", e.Path, "err", e.Err)
	case FailedPermanent:
		l.Logger.Error("artifact failed permanently", "path", e.Path, "err", e.Err)
	case WatchWarning:
		l.Logger.Warn("watcher event source failing, retrying", "path", e.Path, "err", e.Err)
	}
}

func kindNames(kinds []alerts.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
