package data_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
)

func TestDetectionModel_ExistsByFilepath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	model := data.DetectionModel{DB: db}
	exists, err := model.ExistsByFilepath(context.Background(), "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitArtifact_CameraLookupErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, location, device_name").
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	store := data.NewStore(db)
	_, err = store.CommitArtifact(context.Background(), data.ArtifactCommit{
		Location:   "backyard",
		DeviceName: "FoscamCamera1",
		Detection: data.Detection{
			Filename:  "MDAlarm_20260101-120000.jpg",
			Filepath:  "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg",
			MediaType: data.MediaImage,
		},
	})
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
