package data

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
)

type CameraModel struct {
	DB DBTX
}

// GetOrCreate creates the Camera row for a detected file atomically on
// first sight. A plain SELECT is
// tried first since it is the common case after warm-up; the INSERT
// path uses ON CONFLICT DO NOTHING plus a re-SELECT to settle races
// between concurrent producers discovering the same camera at once.
func (m CameraModel) GetOrCreate(ctx context.Context, location, deviceName string) (*Camera, error) {
	camera, err := m.getByNaturalKey(ctx, location, deviceName)
	if err == nil {
		return camera, nil
	}
	if err != ErrRecordNotFound {
		return nil, err
	}

	deviceType := pathparser.InferDeviceType(deviceName)
	fullName := location + "_" + deviceName

	const insert = `
		INSERT INTO cameras (location, device_name, device_type, full_name, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (location, device_name) DO NOTHING
		RETURNING id, location, device_name, device_type, full_name, created_at, last_seen, is_active, total_detections, total_alerts`

	var c Camera
	err = m.DB.QueryRowContext(ctx, insert, location, deviceName, string(deviceType), fullName).Scan(
		&c.ID, &c.Location, &c.DeviceName, &c.DeviceType, &c.FullName,
		&c.CreatedAt, &c.LastSeen, &c.IsActive, &c.TotalDetections, &c.TotalAlerts,
	)
	if err == sql.ErrNoRows {
		// Lost the race to a concurrent insert; the row now exists.
		return m.getByNaturalKey(ctx, location, deviceName)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m CameraModel) getByNaturalKey(ctx context.Context, location, deviceName string) (*Camera, error) {
	const query = `
		SELECT id, location, device_name, device_type, full_name, created_at, last_seen, is_active, total_detections, total_alerts
		FROM cameras
		WHERE location = $1 AND device_name = $2`

	var c Camera
	err := m.DB.QueryRowContext(ctx, query, location, deviceName).Scan(
		&c.ID, &c.Location, &c.DeviceName, &c.DeviceType, &c.FullName,
		&c.CreatedAt, &c.LastSeen, &c.IsActive, &c.TotalDetections, &c.TotalAlerts,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	return &c, err
}

// TouchLastSeen updates last_seen to now, run as part of the per-artifact
// commit transaction alongside the counter bump.
func (m CameraModel) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE cameras SET last_seen = NOW() WHERE id = $1`
	_, err := m.DB.ExecContext(ctx, query, id)
	return err
}

// BumpCounters applies Δdetections/Δalerts incrementally. A periodic
// VerifyCounters sweep reports any drift found.
func (m CameraModel) BumpCounters(ctx context.Context, id uuid.UUID, deltaDetections, deltaAlerts int) error {
	const query = `
		UPDATE cameras
		SET total_detections = total_detections + $1, total_alerts = total_alerts + $2
		WHERE id = $3`
	_, err := m.DB.ExecContext(ctx, query, deltaDetections, deltaAlerts, id)
	return err
}

func (m CameraModel) List(ctx context.Context) ([]*Camera, error) {
	const query = `
		SELECT id, location, device_name, device_type, full_name, created_at, last_seen, is_active, total_detections, total_alerts
		FROM cameras
		ORDER BY location, device_name`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		var c Camera
		if err := rows.Scan(
			&c.ID, &c.Location, &c.DeviceName, &c.DeviceType, &c.FullName,
			&c.CreatedAt, &c.LastSeen, &c.IsActive, &c.TotalDetections, &c.TotalAlerts,
		); err != nil {
			return nil, err
		}
		cameras = append(cameras, &c)
	}
	return cameras, rows.Err()
}
