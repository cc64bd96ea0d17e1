package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DetectionListFilter narrows ListDetections.
type DetectionListFilter struct {
	Start      *time.Time
	End        *time.Time
	CameraIDs  []uuid.UUID
	OnlyAlerts bool
}

type Page struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// ListDetections returns a page of detections ordered file_timestamp desc,
// id desc, plus pagination metadata.
func (m DetectionModel) ListDetections(ctx context.Context, filter DetectionListFilter, page, perPage int) ([]*Detection, Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	where := "WHERE 1=1"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return pqPlaceholder(len(args))
	}

	if filter.Start != nil {
		where += " AND file_timestamp >= " + arg(*filter.Start)
	}
	if filter.End != nil {
		where += " AND file_timestamp <= " + arg(*filter.End)
	}
	if len(filter.CameraIDs) > 0 {
		where += " AND camera_id = ANY(" + arg(pq.Array(filter.CameraIDs)) + ")"
	}
	if filter.OnlyAlerts {
		where += " AND alert_count > 0"
	}

	var total int
	countQuery := "SELECT count(*) FROM detections " + where
	if err := m.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, Page{}, err
	}

	limitArg := arg(perPage)
	offsetArg := arg((page - 1) * perPage)
	query := `
		SELECT id, filename, filepath, media_type, camera_id, motion_type, processed, processing_time_seconds,
		       description, confidence, analysis_structured, timestamp, file_timestamp,
		       width, height, frame_count, duration_seconds,
		       has_person, has_vehicle, has_package, has_unusual_activity, is_night_time, alert_count,
		       thumbnail_path
		FROM detections ` + where + `
		ORDER BY file_timestamp DESC NULLS LAST, id DESC
		LIMIT ` + limitArg + ` OFFSET ` + offsetArg

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Page{}, err
	}
	defer rows.Close()

	var items []*Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(
			&d.ID, &d.Filename, &d.Filepath, &d.MediaType, &d.CameraID, &d.MotionType, &d.Processed, &d.ProcessingTime,
			&d.Description, &d.Confidence, &d.AnalysisStructured, &d.Timestamp, &d.FileTimestamp,
			&d.Width, &d.Height, &d.FrameCount, &d.DurationSeconds,
			&d.HasPerson, &d.HasVehicle, &d.HasPackage, &d.HasUnusualActivity, &d.IsNightTime, &d.AlertCount,
			&d.ThumbnailPath,
		); err != nil {
			return nil, Page{}, err
		}
		items = append(items, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, Page{}, err
	}

	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}

	return items, Page{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}, nil
}

// Stats computes today/week/month/total counts, windows anchored to local
// midnight.
type Stats struct {
	Today int
	Week  int
	Month int
	Total int
}

func (m DetectionModel) Stats(ctx context.Context, now time.Time) (Stats, error) {
	loc := now.Location()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	const query = `
		SELECT
			count(*) FILTER (WHERE timestamp >= $1) AS today,
			count(*) FILTER (WHERE timestamp >= $2) AS week,
			count(*) FILTER (WHERE timestamp >= $3) AS month,
			count(*) AS total
		FROM detections`

	var s Stats
	err := m.DB.QueryRowContext(ctx, query, midnight, weekStart, monthStart).Scan(&s.Today, &s.Week, &s.Month, &s.Total)
	return s, err
}

// HeatmapBucket is one row of either the daily or hourly heatmap.
type HeatmapBucket struct {
	Bucket          time.Time
	Count           int
	CameraBreakdown map[uuid.UUID]int
}

// HeatmapDaily buckets detections by calendar day over the trailing `days`
// days.
func (m DetectionModel) HeatmapDaily(ctx context.Context, days int, cameraIDs []uuid.UUID, perCamera bool, now time.Time) ([]HeatmapBucket, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -days+1)

	where := "WHERE file_timestamp >= $1"
	args := []any{since}
	if len(cameraIDs) > 0 {
		where += " AND camera_id = ANY($2)"
		args = append(args, pq.Array(cameraIDs))
	}

	if perCamera {
		query := `
			SELECT date_trunc('day', file_timestamp) AS bucket, camera_id, count(*)
			FROM detections ` + where + `
			GROUP BY bucket, camera_id
			ORDER BY bucket`
		return scanBreakdownBuckets(ctx, m.DB, query, args)
	}

	query := `
		SELECT date_trunc('day', file_timestamp) AS bucket, count(*)
		FROM detections ` + where + `
		GROUP BY bucket
		ORDER BY bucket`
	return scanPlainBuckets(ctx, m.DB, query, args)
}

// HeatmapHourly buckets detections by start-of-hour over the trailing 24
// hours ending now.
func (m DetectionModel) HeatmapHourly(ctx context.Context, cameraIDs []uuid.UUID, perCamera bool, now time.Time) ([]HeatmapBucket, error) {
	since := now.Add(-24 * time.Hour)

	where := "WHERE file_timestamp >= $1"
	args := []any{since}
	if len(cameraIDs) > 0 {
		where += " AND camera_id = ANY($2)"
		args = append(args, pq.Array(cameraIDs))
	}

	if perCamera {
		query := `
			SELECT date_trunc('hour', file_timestamp) AS bucket, camera_id, count(*)
			FROM detections ` + where + `
			GROUP BY bucket, camera_id
			ORDER BY bucket`
		return scanBreakdownBuckets(ctx, m.DB, query, args)
	}

	query := `
		SELECT date_trunc('hour', file_timestamp) AS bucket, count(*)
		FROM detections ` + where + `
		GROUP BY bucket
		ORDER BY bucket`
	return scanPlainBuckets(ctx, m.DB, query, args)
}

func scanPlainBuckets(ctx context.Context, db DBTX, query string, args []any) ([]HeatmapBucket, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []HeatmapBucket
	for rows.Next() {
		var b HeatmapBucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func scanBreakdownBuckets(ctx context.Context, db DBTX, query string, args []any) ([]HeatmapBucket, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byBucket := map[time.Time]*HeatmapBucket{}
	var order []time.Time
	for rows.Next() {
		var bucket time.Time
		var cameraID uuid.UUID
		var count int
		if err := rows.Scan(&bucket, &cameraID, &count); err != nil {
			return nil, err
		}
		b, ok := byBucket[bucket]
		if !ok {
			b = &HeatmapBucket{Bucket: bucket, CameraBreakdown: map[uuid.UUID]int{}}
			byBucket[bucket] = b
			order = append(order, bucket)
		}
		b.CameraBreakdown[cameraID] = count
		b.Count += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]HeatmapBucket, len(order))
	for i, bucket := range order {
		result[i] = *byBucket[bucket]
	}
	return result, nil
}

// ErrThumbnailMissing is returned when a Detection has no thumbnail_path
// (image detections, or a video whose extraction failed) — the Query
// API maps this to a 404.
var ErrThumbnailMissing = &thumbnailMissingError{}

type thumbnailMissingError struct{}

func (*thumbnailMissingError) Error() string { return "data: detection has no thumbnail" }

// ThumbnailPathFor resolves the on-disk path for a detection's thumbnail.
func (m DetectionModel) ThumbnailPathFor(ctx context.Context, id uuid.UUID) (string, error) {
	const query = `SELECT thumbnail_path FROM detections WHERE id = $1`
	var path sql.NullString
	err := m.DB.QueryRowContext(ctx, query, id).Scan(&path)
	if err == sql.ErrNoRows {
		return "", ErrRecordNotFound
	}
	if err != nil {
		return "", err
	}
	if !path.Valid || path.String == "" {
		return "", ErrThumbnailMissing
	}
	return path.String, nil
}

func pqPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
