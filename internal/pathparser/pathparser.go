// Package pathparser extracts camera identity, artifact kind, and motion
// metadata from a filesystem path produced by the foscam camera tree.
//
// Expected shape:
//
//	…/<location>/<device_name>/(snap|record)/<name>
package pathparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrUnrecognizedPath is returned when a path does not match the grammar
// at all: wrong directory shape, wrong kind segment, or a filename that
// matches neither the image nor the video pattern. Such a path is
// rejected without side effects.
var ErrUnrecognizedPath = errors.New("pathparser: unrecognized path")

// DeviceType classifies a camera by its device-name prefix.
type DeviceType string

const (
	DeviceStandard DeviceType = "standard"
	DeviceR2       DeviceType = "R2"
	DeviceR2C      DeviceType = "R2C"
	DeviceUnknown  DeviceType = "unknown"
)

// Kind is the artifact's media category, taken from its parent directory.
type Kind string

const (
	KindSnap   Kind = "snap"
	KindRecord Kind = "record"
)

// MediaType is the stored Detection.media_type.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MotionType distinguishes ordinary motion detection from human-shape
// motion detection.
type MotionType string

const (
	MotionMD  MotionType = "MD"
	MotionHMD MotionType = "HMD"
)

// Parsed is the structured result of a successful parse.
type Parsed struct {
	Path       string
	Location   string
	DeviceName string
	DeviceType DeviceType
	Kind       Kind
	MediaType  MediaType
	MotionType MotionType

	// FileTimestamp is nil when the date/time group in the filename failed
	// to parse as a real calendar time (e.g. an invalid day-of-month). A
	// nil timestamp does not make the path unrecognized: the filename
	// grammar match and the timestamp parse are separate concerns.
	FileTimestamp *time.Time

	Filename string
}

var (
	snapNameRe   = regexp.MustCompile(`^(MDAlarm|HMDAlarm)_(\d{8})-(\d{6})\.jpg$`)
	recordNameRe = regexp.MustCompile(`^MDalarm_(\d{8})_(\d{6})\.mkv$`)
)

// Parse extracts camera and artifact metadata from an absolute path.
func Parse(path string) (*Parsed, error) {
	clean := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(clean, "/")
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPath, path)
	}

	filename := parts[len(parts)-1]
	kindSeg := parts[len(parts)-2]
	deviceName := parts[len(parts)-3]
	location := parts[len(parts)-4]

	var kind Kind
	switch kindSeg {
	case "snap":
		kind = KindSnap
	case "record":
		kind = KindRecord
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPath, path)
	}

	var (
		mediaType  MediaType
		motionType MotionType
		dateGroup  string
		timeGroup  string
	)

	switch kind {
	case KindSnap:
		m := snapNameRe.FindStringSubmatch(filename)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPath, path)
		}
		mediaType = MediaImage
		if m[1] == "HMDAlarm" {
			motionType = MotionHMD
		} else {
			motionType = MotionMD
		}
		dateGroup, timeGroup = m[2], m[3]
	case KindRecord:
		m := recordNameRe.FindStringSubmatch(filename)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPath, path)
		}
		mediaType = MediaVideo
		motionType = MotionMD
		dateGroup, timeGroup = m[1], m[2]
	}

	p := &Parsed{
		Path:       path,
		Location:   location,
		DeviceName: deviceName,
		DeviceType: InferDeviceType(deviceName),
		Kind:       kind,
		MediaType:  mediaType,
		MotionType: motionType,
		Filename:   filename,
	}

	if ts, err := time.ParseInLocation("20060102150405", dateGroup+timeGroup, time.Local); err == nil {
		p.FileTimestamp = &ts
	}

	return p, nil
}

// InferDeviceType classifies a camera by its device-name prefix, exported
// so the persistence layer can derive it independently when get-or-create
// races an as-yet-unparsed path.
func InferDeviceType(deviceName string) DeviceType {
	switch {
	case strings.HasPrefix(deviceName, "FoscamCamera"):
		return DeviceStandard
	case strings.HasPrefix(deviceName, "R2C"):
		return DeviceR2C
	case strings.HasPrefix(deviceName, "R2"):
		return DeviceR2
	default:
		return DeviceUnknown
	}
}

// Render reconstructs the original filename from a Parsed result, the
// inverse of Parse for well-formed names.
func (p *Parsed) Render() string {
	if p.FileTimestamp == nil {
		return p.Filename
	}
	switch p.Kind {
	case KindSnap:
		prefix := "MDAlarm"
		if p.MotionType == MotionHMD {
			prefix = "HMDAlarm"
		}
		return fmt.Sprintf("%s_%s-%s.jpg", prefix, p.FileTimestamp.Format("20060102"), p.FileTimestamp.Format("150405"))
	case KindRecord:
		return fmt.Sprintf("MDalarm_%s_%s.mkv", p.FileTimestamp.Format("20060102"), p.FileTimestamp.Format("150405"))
	}
	return p.Filename
}

// FullName mirrors the Camera.full_name derivation.
func (p *Parsed) FullName() string {
	return p.Location + "_" + p.DeviceName
}
