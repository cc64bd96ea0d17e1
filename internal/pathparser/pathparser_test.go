package pathparser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesvoboda/foscam-ingest/internal/pathparser"
)

func TestParse_ImageDaytimePerson(t *testing.T) {
	p, err := pathparser.Parse("/data/ami_frontyard_left/FoscamCamera_00626EFE8B21/snap/MDAlarm_20250712-213837.jpg")
	require.NoError(t, err)

	assert.Equal(t, "ami_frontyard_left", p.Location)
	assert.Equal(t, "FoscamCamera_00626EFE8B21", p.DeviceName)
	assert.Equal(t, pathparser.DeviceStandard, p.DeviceType)
	assert.Equal(t, pathparser.KindSnap, p.Kind)
	assert.Equal(t, pathparser.MediaImage, p.MediaType)
	assert.Equal(t, pathparser.MotionMD, p.MotionType)
	require.NotNil(t, p.FileTimestamp)
	assert.Equal(t, time.Date(2025, 7, 12, 21, 38, 37, 0, time.Local), *p.FileTimestamp)
}

func TestParse_VideoR2C(t *testing.T) {
	p, err := pathparser.Parse("/data/dock_left/R2C_00626EFE89A8/record/MDalarm_20250714_003211.mkv")
	require.NoError(t, err)

	assert.Equal(t, pathparser.DeviceR2C, p.DeviceType)
	assert.Equal(t, pathparser.KindRecord, p.Kind)
	assert.Equal(t, pathparser.MediaVideo, p.MediaType)
	assert.Equal(t, pathparser.MotionMD, p.MotionType)
}

func TestParse_R2NotR2C(t *testing.T) {
	p, err := pathparser.Parse("/data/garage/R2_ABCDEF/record/MDalarm_20250714_003211.mkv")
	require.NoError(t, err)
	assert.Equal(t, pathparser.DeviceR2, p.DeviceType)
}

func TestParse_HumanMotionPrefix(t *testing.T) {
	p, err := pathparser.Parse("/data/loc/FoscamCamera_X/snap/HMDAlarm_20250101-120000.jpg")
	require.NoError(t, err)
	assert.Equal(t, pathparser.MotionHMD, p.MotionType)
}

func TestParse_UnrecognizedPath(t *testing.T) {
	_, err := pathparser.Parse("/data/ami_frontyard_left/FoscamCamera_X/snap/readme.txt")
	assert.ErrorIs(t, err, pathparser.ErrUnrecognizedPath)
}

func TestParse_WrongKindSegment(t *testing.T) {
	_, err := pathparser.Parse("/data/loc/FoscamCamera_X/thumbs/MDAlarm_20250101-120000.jpg")
	assert.ErrorIs(t, err, pathparser.ErrUnrecognizedPath)
}

func TestParse_ShallowPath(t *testing.T) {
	_, err := pathparser.Parse("/snap/MDAlarm_20250101-120000.jpg")
	assert.ErrorIs(t, err, pathparser.ErrUnrecognizedPath)
}

func TestParse_UnparseableTimestampStillSucceeds(t *testing.T) {
	// Month 13 is not a valid calendar month, but the filename still
	// matches the grammar: file_timestamp must be nil, not an error.
	p, err := pathparser.Parse("/data/loc/FoscamCamera_X/snap/MDAlarm_20251399-120000.jpg")
	require.NoError(t, err)
	assert.Nil(t, p.FileTimestamp)
}

func TestRoundTrip(t *testing.T) {
	names := []string{
		"MDAlarm_20250712-213837.jpg",
		"HMDAlarm_20250101-120000.jpg",
		"MDalarm_20250714_003211.mkv",
	}
	dirs := []string{"snap", "snap", "record"}

	for i, name := range names {
		path := "/data/loc/FoscamCamera_X/" + dirs[i] + "/" + name
		p, err := pathparser.Parse(path)
		require.NoError(t, err)
		assert.Equal(t, name, p.Render())
	}
}

func TestFullName(t *testing.T) {
	p, err := pathparser.Parse("/data/ami_frontyard_left/FoscamCamera_00626EFE8B21/snap/MDAlarm_20250712-213837.jpg")
	require.NoError(t, err)
	assert.Equal(t, "ami_frontyard_left_FoscamCamera_00626EFE8B21", p.FullName())
}
