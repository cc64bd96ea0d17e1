// Package queryapi shapes internal/data's read queries into the exact
// operations the external dashboard consumes: all read-only and
// side-effect-free. Grounded on the teacher's
// internal/api handler layer, which sits over internal/data the same way.
package queryapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
)

// API is the Query API surface, constructed over a Store.
type API struct {
	store *data.Store
}

func New(store *data.Store) *API {
	return &API{store: store}
}

// DetectionsPage is the list_detections response shape.
type DetectionsPage struct {
	Items      []*data.Detection `json:"items"`
	Pagination data.Page         `json:"pagination"`
}

// ListDetections returns a page of detections, newest first, optionally
// filtered by time range, camera, and alert status.
func (a *API) ListDetections(ctx context.Context, page, perPage int, start, end *time.Time, cameraIDs []uuid.UUID, onlyAlerts bool) (DetectionsPage, error) {
	items, pg, err := a.store.Detections.ListDetections(ctx, data.DetectionListFilter{
		Start:     start,
		End:       end,
		CameraIDs: cameraIDs,
		OnlyAlerts: onlyAlerts,
	}, page, perPage)
	if err != nil {
		return DetectionsPage{}, fmt.Errorf("queryapi: list_detections: %w", err)
	}
	return DetectionsPage{Items: items, Pagination: pg}, nil
}

// ListCameras returns every known camera.
func (a *API) ListCameras(ctx context.Context) ([]*data.Camera, error) {
	cameras, err := a.store.Cameras.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryapi: list_cameras: %w", err)
	}
	return cameras, nil
}

// Stats returns the dashboard's summary roll-up, anchored to the local
// time zone at the instant of the call.
func (a *API) Stats(ctx context.Context) (data.Stats, error) {
	stats, err := a.store.Detections.Stats(ctx, time.Now())
	if err != nil {
		return data.Stats{}, fmt.Errorf("queryapi: stats: %w", err)
	}
	return stats, nil
}

// HeatmapDaily returns a per-day detection count for the trailing `days`
// days, optionally broken out per camera.
func (a *API) HeatmapDaily(ctx context.Context, days int, cameraIDs []uuid.UUID, perCamera bool) ([]data.HeatmapBucket, error) {
	if days <= 0 {
		days = 30
	}
	buckets, err := a.store.Detections.HeatmapDaily(ctx, days, cameraIDs, perCamera, time.Now())
	if err != nil {
		return nil, fmt.Errorf("queryapi: heatmap_daily: %w", err)
	}
	return buckets, nil
}

// HeatmapHourly returns a per-hour detection count for the trailing 24h
// ending now, bucketed by start-of-hour.
func (a *API) HeatmapHourly(ctx context.Context, cameraIDs []uuid.UUID, perCamera bool) ([]data.HeatmapBucket, error) {
	buckets, err := a.store.Detections.HeatmapHourly(ctx, cameraIDs, perCamera, time.Now())
	if err != nil {
		return nil, fmt.Errorf("queryapi: heatmap_hourly: %w", err)
	}
	return buckets, nil
}

// ErrNoThumbnail is returned when a detection has no stored thumbnail path:
// every image detection, and any video whose thumbnail extraction failed.
var ErrNoThumbnail = data.ErrThumbnailMissing

// ThumbnailFor returns the JPEG bytes at the stored path, or
// ErrNoThumbnail (dashboard maps this to 404).
func (a *API) ThumbnailFor(ctx context.Context, detectionID uuid.UUID, readFile func(path string) ([]byte, error)) (contentType string, content []byte, err error) {
	path, err := a.store.Detections.ThumbnailPathFor(ctx, detectionID)
	if err != nil {
		return "", nil, err
	}
	content, err = readFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("queryapi: thumbnail_for: read %s: %w", path, err)
	}
	return "image/jpeg", content, nil
}
