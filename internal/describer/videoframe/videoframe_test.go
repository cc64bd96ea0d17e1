package videoframe_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/describer/videoframe"
)

func TestNew_SkipsWithoutBinaries(t *testing.T) {
	_, err := videoframe.New()
	if err != nil {
		t.Skipf("ffmpeg/ffprobe not available, skipping: %v", err)
	}
}

func TestFrame_ExtractsThumbnail(t *testing.T) {
	x, err := videoframe.New()
	if err != nil {
		t.Skipf("ffmpeg/ffprobe not available, skipping: %v", err)
	}

	fixture := filepath.Join("testdata", "sample.mkv")
	if _, err := os.Stat(fixture); err != nil {
		t.Skip("no sample clip fixture available in this environment")
	}

	result, err := x.Frame(context.Background(), fixture)
	require.NoError(t, err)
	assert.NotEmpty(t, result.JPEGBytes)
	assert.Greater(t, result.Width, 0)
	assert.Greater(t, result.Height, 0)
}

func TestWriteAtomic_CreatesFileAtDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "thumb.jpg")

	require.NoError(t, videoframe.WriteAtomic(dest, []byte("jpeg-bytes")))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestWriteAtomic_LeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "thumb.jpg")

	require.NoError(t, videoframe.WriteAtomic(dest, []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "thumb.jpg", entries[0].Name())
}
