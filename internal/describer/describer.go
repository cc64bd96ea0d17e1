// Package describer defines the vision-language capability the artifact
// processor depends on: image bytes or a video path in, a structured
// description out. The underlying model is opaque and swappable — tests
// use Stub, production wires Onnx behind a Serializing wrapper that
// enforces a single shared describer lock.
package describer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
)

// Aspect names every Describer implementation is expected to populate.
const (
	AspectGeneral     = "general"
	AspectSecurity    = "security"
	AspectObjects     = "objects"
	AspectActivities  = "activities"
	AspectEnvironment = "environment"
)

// ImageDescription is the result of describing a single still frame.
type ImageDescription struct {
	Aspects    map[string]string
	Caption    string
	Confidence float64
	Width      int
	Height     int
}

// TimelineEntry is one narrated instant in a video's timeline.
type TimelineEntry struct {
	TimeSeconds float64
	Text        string
}

// VideoDescription is the result of describing a video clip.
type VideoDescription struct {
	Timeline        []TimelineEntry
	Events          []string
	Caption         string
	Confidence      float64
	Width           int
	Height          int
	FrameCount      int
	DurationSeconds float64
	ThumbnailBytes  []byte
}

// Describer is the capability contract every vision-language backend
// implements.
type Describer interface {
	DescribeImage(ctx context.Context, data []byte) (*ImageDescription, error)
	DescribeVideo(ctx context.Context, path string) (*VideoDescription, error)
}

// TransientError marks a failure the processor should retry once.
// Anything else is treated as permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("describer: transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried once before the
// processor falls back to a "seen but unanalyzable" Detection.
func IsTransient(err error) bool {
	_, ok := err.(*TransientError)
	return ok
}

// CompositeImageDescription joins the image's aspects and the fired alert
// kinds into the single description string stored on the Detection row.
func CompositeImageDescription(d *ImageDescription, fired []alerts.Kind) string {
	parts := []string{
		"SCENE: " + orUnknown(d.Aspects[AspectGeneral]),
		"SECURITY: " + orUnknown(d.Aspects[AspectSecurity]),
		"OBJECTS: " + orUnknown(d.Aspects[AspectObjects]),
		"ACTIVITY: " + orUnknown(d.Aspects[AspectActivities]),
		"SETTING: " + orUnknown(d.Aspects[AspectEnvironment]),
		"ALERTS: " + joinKinds(fired),
	}
	return strings.Join(parts, " | ")
}

// CompositeVideoDescription is the video analogue of
// CompositeImageDescription: a timeline synthesis, the timestamped events
// within it, the distinct event types observed, and the fired alert kinds.
func CompositeVideoDescription(d *VideoDescription, fired []alerts.Kind) string {
	var timelineLines []string
	for _, t := range d.Timeline {
		timelineLines = append(timelineLines, fmt.Sprintf("%s: %s", formatHHMM(t.TimeSeconds), t.Text))
	}

	parts := []string{
		"TIMELINE ANALYSIS " + d.Caption,
		"EVENTS: " + strings.Join(timelineLines, " | "),
		"EVENT TYPES: " + strings.Join(d.Events, ", "),
		"ALERTS: " + joinKinds(fired),
	}
	return strings.Join(parts, " | ")
}

func formatHHMM(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func joinKinds(kinds []alerts.Kind) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
