package data

import (
	"context"

	"github.com/google/uuid"
)

// DriftedCamera is one camera whose incrementally maintained counters
// disagree with a full recount over Detection/DetectionAlert rows.
type DriftedCamera struct {
	CameraID        uuid.UUID
	StoredDetections, ActualDetections int
	StoredAlerts, ActualAlerts         int
}

// VerifyCounters reports every camera whose incrementally maintained
// counters disagree with a full recount over Detection/DetectionAlert
// rows. It is read-only: the caller decides whether drift (from a crashed
// mid-transaction worker or a manual SQL edit) warrants correction, rather
// than this sweep silently rewriting counters out from under a concurrent
// commit.
func (s *Store) VerifyCounters(ctx context.Context) ([]DriftedCamera, error) {
	const query = `
		SELECT c.id, c.total_detections, COALESCE(counts.detections, 0), c.total_alerts, COALESCE(counts.alerts, 0)
		FROM cameras c
		LEFT JOIN (
			SELECT
				d.camera_id,
				count(DISTINCT d.id) AS detections,
				count(da.detection_id) AS alerts
			FROM detections d
			LEFT JOIN detection_alerts da ON da.detection_id = d.id
			GROUP BY d.camera_id
		) counts ON counts.camera_id = c.id
		WHERE c.total_detections != COALESCE(counts.detections, 0) OR c.total_alerts != COALESCE(counts.alerts, 0)`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifted []DriftedCamera
	for rows.Next() {
		var d DriftedCamera
		if err := rows.Scan(&d.CameraID, &d.StoredDetections, &d.ActualDetections, &d.StoredAlerts, &d.ActualAlerts); err != nil {
			return nil, err
		}
		drifted = append(drifted, d)
	}
	return drifted, rows.Err()
}
