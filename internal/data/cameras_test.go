package data_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
)

func TestCameraModel_GetOrCreate_ExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "location", "device_name", "device_type", "full_name",
		"created_at", "last_seen", "is_active", "total_detections", "total_alerts",
	}).AddRow(id, "backyard", "FoscamCamera1", "standard", "backyard_FoscamCamera1", now, now, true, 3, 1)

	mock.ExpectQuery("SELECT id, location, device_name").
		WithArgs("backyard", "FoscamCamera1").
		WillReturnRows(rows)

	model := data.CameraModel{DB: db}
	camera, err := model.GetOrCreate(context.Background(), "backyard", "FoscamCamera1")
	require.NoError(t, err)
	require.Equal(t, id, camera.ID)
	require.Equal(t, 3, camera.TotalDetections)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCameraModel_GetOrCreate_InsertsWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{
		"id", "location", "device_name", "device_type", "full_name",
		"created_at", "last_seen", "is_active", "total_detections", "total_alerts",
	}

	mock.ExpectQuery("SELECT id, location, device_name").
		WithArgs("backyard", "R2C-front").
		WillReturnRows(sqlmock.NewRows(columns))

	id := uuid.New()
	now := time.Now()
	insertRows := sqlmock.NewRows(columns).
		AddRow(id, "backyard", "R2C-front", "R2C", "backyard_R2C-front", now, now, true, 0, 0)

	mock.ExpectQuery("INSERT INTO cameras").
		WithArgs("backyard", "R2C-front", "R2C", "backyard_R2C-front").
		WillReturnRows(insertRows)

	model := data.CameraModel{DB: db}
	camera, err := model.GetOrCreate(context.Background(), "backyard", "R2C-front")
	require.NoError(t, err)
	require.Equal(t, id, camera.ID)
	require.Equal(t, "R2C", string(camera.DeviceType))

	require.NoError(t, mock.ExpectationsWereMet())
}
