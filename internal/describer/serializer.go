package describer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikesvoboda/foscam-ingest/internal/metrics"
)

// Serializing wraps a Describer with a single shared lock: any caller —
// crawler task, watcher task, or a future reprocess task — must hold it
// while inside DescribeImage/DescribeVideo, keeping GPU memory usage
// predictable when two producers run at once. Per-call timeouts are
// enforced here too, since they are a property of serialized access to
// the shared model, not of the model implementation itself.
type Serializing struct {
	inner Describer
	mu    sync.Mutex

	imageTimeout time.Duration
	videoTimeout time.Duration
}

func NewSerializing(inner Describer, imageTimeout, videoTimeout time.Duration) *Serializing {
	return &Serializing{inner: inner, imageTimeout: imageTimeout, videoTimeout: videoTimeout}
}

func (s *Serializing) DescribeImage(ctx context.Context, data []byte) (*ImageDescription, error) {
	waitStart := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.DescriberLockWaitSeconds.Observe(time.Since(waitStart).Seconds())

	callCtx, cancel := context.WithTimeout(ctx, s.imageTimeout)
	defer cancel()

	result, err := s.inner.DescribeImage(callCtx, data)
	return result, classifyTimeout(callCtx, err)
}

func (s *Serializing) DescribeVideo(ctx context.Context, path string) (*VideoDescription, error) {
	waitStart := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.DescriberLockWaitSeconds.Observe(time.Since(waitStart).Seconds())

	callCtx, cancel := context.WithTimeout(ctx, s.videoTimeout)
	defer cancel()

	result, err := s.inner.DescribeVideo(callCtx, path)
	return result, classifyTimeout(callCtx, err)
}

// classifyTimeout promotes a deadline-exceeded error to TransientError so
// the processor's retry-once policy applies to it.
func classifyTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return &TransientError{Err: fmt.Errorf("describer call timed out: %w", err)}
	}
	return err
}
