package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
)

type DetectionModel struct {
	DB DBTX
}

func (m DetectionModel) ExistsByFilepath(ctx context.Context, filepath string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM detections WHERE filepath = $1)`
	var exists bool
	err := m.DB.QueryRowContext(ctx, query, filepath).Scan(&exists)
	return exists, err
}

func (m DetectionModel) GetByID(ctx context.Context, id uuid.UUID) (*Detection, error) {
	const query = `
		SELECT id, filename, filepath, media_type, camera_id, motion_type, processed, processing_time_seconds,
		       description, confidence, analysis_structured, timestamp, file_timestamp,
		       width, height, frame_count, duration_seconds,
		       has_person, has_vehicle, has_package, has_unusual_activity, is_night_time, alert_count,
		       thumbnail_path
		FROM detections WHERE id = $1`

	var d Detection
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Filename, &d.Filepath, &d.MediaType, &d.CameraID, &d.MotionType, &d.Processed, &d.ProcessingTime,
		&d.Description, &d.Confidence, &d.AnalysisStructured, &d.Timestamp, &d.FileTimestamp,
		&d.Width, &d.Height, &d.FrameCount, &d.DurationSeconds,
		&d.HasPerson, &d.HasVehicle, &d.HasPackage, &d.HasUnusualActivity, &d.IsNightTime, &d.AlertCount,
		&d.ThumbnailPath,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	return &d, err
}

// ArtifactCommit is everything the Artifact Processor's commit step needs
// written atomically: Camera get-or-create (from Location/DeviceName),
// Detection insert, DetectionAlert rows, and the Camera counter bump.
type ArtifactCommit struct {
	Location   string
	DeviceName string
	Detection  Detection
	FiredKinds []alerts.Kind
}

// ErrDuplicateFilepath signals a unique-index race that callers should
// treat as a dedupe hit, not a failure.
var ErrDuplicateFilepath = fmt.Errorf("data: detection filepath already exists")

// CommitArtifact runs the full per-file commit in one transaction:
// get-or-create Camera, insert Detection, insert DetectionAlert rows,
// bump Camera counters. A concurrent duplicate filepath surfaces as
// ErrDuplicateFilepath so the Processor can drop it silently.
func (s *Store) CommitArtifact(ctx context.Context, commit ArtifactCommit) (uuid.UUID, error) {
	var detectionID uuid.UUID

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cameras := CameraModel{DB: tx}
		camera, err := cameras.GetOrCreate(ctx, commit.Location, commit.DeviceName)
		if err != nil {
			return fmt.Errorf("get-or-create camera: %w", err)
		}
		if err := cameras.TouchLastSeen(ctx, camera.ID); err != nil {
			return fmt.Errorf("touch last_seen: %w", err)
		}

		d := commit.Detection
		d.CameraID = camera.ID
		d.Processed = true
		d.HasPerson, d.HasVehicle, d.HasPackage = false, false, false
		d.HasUnusualActivity, d.IsNightTime = false, false
		for _, k := range commit.FiredKinds {
			switch k {
			case alerts.PersonDetected:
				d.HasPerson = true
			case alerts.VehicleDetected:
				d.HasVehicle = true
			case alerts.PackageDetected:
				d.HasPackage = true
			case alerts.UnusualActivity:
				d.HasUnusualActivity = true
			case alerts.NightTime:
				d.IsNightTime = true
			}
		}
		d.AlertCount = len(commit.FiredKinds)

		const insert = `
			INSERT INTO detections (
				filename, filepath, media_type, camera_id, motion_type, processed, processing_time_seconds,
				description, confidence, analysis_structured, timestamp, file_timestamp,
				width, height, frame_count, duration_seconds,
				has_person, has_vehicle, has_package, has_unusual_activity, is_night_time, alert_count,
				thumbnail_path
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7,
				$8, $9, $10, $11, $12,
				$13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22,
				$23
			)
			RETURNING id`

		err = tx.QueryRowContext(ctx, insert,
			d.Filename, d.Filepath, string(d.MediaType), d.CameraID, d.MotionType, d.Processed, d.ProcessingTime,
			d.Description, d.Confidence, d.AnalysisStructured, d.Timestamp, d.FileTimestamp,
			d.Width, d.Height, d.FrameCount, d.DurationSeconds,
			d.HasPerson, d.HasVehicle, d.HasPackage, d.HasUnusualActivity, d.IsNightTime, d.AlertCount,
			d.ThumbnailPath,
		).Scan(&detectionID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateFilepath
			}
			return fmt.Errorf("insert detection: %w", err)
		}

		if len(commit.FiredKinds) > 0 {
			alertTypes := AlertTypeModel{DB: tx}
			names := make([]string, len(commit.FiredKinds))
			for i, k := range commit.FiredKinds {
				names[i] = string(k)
			}
			ids, err := alertTypes.nameToID(ctx, names)
			if err != nil {
				return fmt.Errorf("resolve alert types: %w", err)
			}

			const insertAlert = `
				INSERT INTO detection_alerts (detection_id, alert_type_id, confidence, detected_at)
				VALUES ($1, $2, $3, $4)`
			for _, k := range commit.FiredKinds {
				typeID, ok := ids[string(k)]
				if !ok {
					return fmt.Errorf("alert type %q not seeded", k)
				}
				if _, err := tx.ExecContext(ctx, insertAlert, detectionID, typeID, d.Confidence, time.Now()); err != nil {
					return fmt.Errorf("insert detection_alert %q: %w", k, err)
				}
			}
		}

		if err := cameras.BumpCounters(ctx, camera.ID, 1, len(commit.FiredKinds)); err != nil {
			return fmt.Errorf("bump camera counters: %w", err)
		}

		return nil
	})

	return detectionID, err
}
