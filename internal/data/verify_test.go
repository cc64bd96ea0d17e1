package data_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
)

func TestVerifyCounters_ReportsDriftWithoutMutating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	camID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "total_detections", "detections", "total_alerts", "alerts"}).
		AddRow(camID, 3, 5, 1, 2)

	mock.ExpectQuery("SELECT c.id, c.total_detections").WillReturnRows(rows)

	store := data.NewStore(db)
	drifted, err := store.VerifyCounters(context.Background())
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	require.Equal(t, camID, drifted[0].CameraID)
	require.Equal(t, 3, drifted[0].StoredDetections)
	require.Equal(t, 5, drifted[0].ActualDetections)
	require.Equal(t, 1, drifted[0].StoredAlerts)
	require.Equal(t, 2, drifted[0].ActualAlerts)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyCounters_NoDriftReturnsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT c.id, c.total_detections").
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_detections", "detections", "total_alerts", "alerts"}))

	store := data.NewStore(db)
	drifted, err := store.VerifyCounters(context.Background())
	require.NoError(t, err)
	require.Empty(t, drifted)

	require.NoError(t, mock.ExpectationsWereMet())
}
