package data

import (
	"time"

	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
)

// Camera is uniquely identified by (location, device_name).
type Camera struct {
	ID              uuid.UUID
	Location        string
	DeviceName      string
	DeviceType      pathparser.DeviceType
	FullName        string
	CreatedAt       time.Time
	LastSeen        time.Time
	IsActive        bool
	TotalDetections int
	TotalAlerts     int
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Detection is uniquely identified by its absolute Filepath.
type Detection struct {
	ID             uuid.UUID
	Filename       string
	Filepath       string
	MediaType      MediaType
	CameraID       uuid.UUID
	MotionType     *string
	Processed      bool
	ProcessingTime float64

	Description        string
	Confidence          float64
	AnalysisStructured  []byte // opaque JSON blob of the Describer's raw aspects

	Timestamp     time.Time
	FileTimestamp *time.Time

	Width           int
	Height          int
	FrameCount      *int
	DurationSeconds *float64

	HasPerson          bool
	HasVehicle         bool
	HasPackage         bool
	HasUnusualActivity bool
	IsNightTime        bool
	AlertCount         int

	ThumbnailPath *string
}

// AlertType is the small fixed catalog seeded at startup.
type AlertType struct {
	ID       uuid.UUID
	Name     string
	Priority int
}

// DetectionAlert is the explicit many-to-many join between Detection and
// AlertType, kept in lockstep with Detection's denormalized flags.
type DetectionAlert struct {
	DetectionID uuid.UUID
	AlertTypeID uuid.UUID
	Confidence  float64
	DetectedAt  time.Time
}

// ProcessingStats is the optional roll-up, rebuilt on demand.
type ProcessingStats struct {
	Date     time.Time
	Hour     int
	CameraID uuid.UUID
	Count    int
}
