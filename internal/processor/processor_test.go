package processor_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
	"github.com/mikesvoboda/foscam-ingest/internal/describer"
	"github.com/mikesvoboda/foscam-ingest/internal/events"
	"github.com/mikesvoboda/foscam-ingest/internal/processor"
)

type fakeRecorder struct {
	events []events.Event
}

func (f *fakeRecorder) Record(e events.Event) { f.events = append(f.events, e) }

func TestProcess_SkipsUnrecognizedPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := data.NewStore(db)
	rec := &fakeRecorder{}
	p := processor.New(store, &describer.Stub{}, t.TempDir(), rec)

	p.Process(context.Background(), "/camroot/not-a-camera-path.txt", processor.Options{})

	require.Len(t, rec.events, 1)
	require.Equal(t, events.SkippedUnrecognized, rec.events[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_SkipsKnownDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := data.NewStore(db)
	rec := &fakeRecorder{}
	p := processor.New(store, &describer.Stub{}, t.TempDir(), rec)

	p.Process(context.Background(), "/camroot/backyard/FoscamCamera1/snap/MDAlarm_20260101-120000.jpg", processor.Options{})

	require.Len(t, rec.events, 1)
	require.Equal(t, events.SkippedKnown, rec.events[0].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}
