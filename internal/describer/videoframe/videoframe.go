// Package videoframe extracts a single representative thumbnail frame from
// a video clip by shelling out to ffmpeg/ffprobe, the same wrapper-over-
// binary approach used for hardware-accelerated transcoding elsewhere in
// the retrieval pack (edge/orchestrator/internal/video/ffmpeg.go). No
// example repo carries a Go-native demuxer, so this is the grounded path
// rather than a hand-rolled container parser.
package videoframe

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// defaultOffset is the thumbnail capture point for clips long enough to
// have one: a few seconds in, past any initial exposure ramp-up the
// cameras tend to show on motion trigger.
const defaultOffset = 5 * time.Second

// Extractor wraps the ffmpeg/ffprobe binaries resolved from PATH.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
}

func New() (*Extractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("videoframe: ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("videoframe: ffprobe not found in PATH: %w", err)
	}
	return &Extractor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
}

// Result carries the extracted frame plus the duration ffprobe measured,
// which the Describer implementation folds into VideoDescription.
type Result struct {
	JPEGBytes       []byte
	Width           int
	Height          int
	DurationSeconds float64
}

// Frame extracts one JPEG thumbnail from path at an offset chosen as the
// midpoint for clips shorter than defaultOffset, otherwise a fixed offset
// into the clip.
func (x *Extractor) Frame(ctx context.Context, path string) (*Result, error) {
	duration, err := x.probeDuration(ctx, path)
	if err != nil {
		return nil, err
	}

	offset := defaultOffset
	if duration > 0 && time.Duration(duration*float64(time.Second)) < defaultOffset {
		offset = time.Duration(duration * float64(time.Second) / 2)
	}

	data, err := x.extractAt(ctx, path, offset)
	if err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("videoframe: decode extracted frame: %w", err)
	}
	bounds := img.Bounds()

	return &Result{
		JPEGBytes:       data,
		Width:           bounds.Dx(),
		Height:          bounds.Dy(),
		DurationSeconds: duration,
	}, nil
}

// WriteAtomic writes data to destPath via a temp-file-then-rename, so a
// reader never observes a partially written thumbnail.
func WriteAtomic(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("videoframe: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".thumb-*.tmp")
	if err != nil {
		return fmt.Errorf("videoframe: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("videoframe: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("videoframe: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("videoframe: rename into place: %w", err)
	}
	return nil
}

func (x *Extractor) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, x.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("videoframe: ffprobe duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("videoframe: parse ffprobe duration: %w", err)
	}
	return duration, nil
}

func (x *Extractor) extractAt(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatOffset(offset),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}

	cmd := exec.CommandContext(ctx, x.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("videoframe: ffmpeg extract: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("videoframe: ffmpeg produced no frame data for %s", path)
	}
	return stdout.Bytes(), nil
}

func formatOffset(d time.Duration) string {
	total := d.Seconds()
	return fmt.Sprintf("%.3f", total)
}
