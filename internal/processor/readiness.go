package processor

import (
	"context"
	"os"
	"time"
)

// waitForReadiness polls path until its size is stable across two
// successive checks, signaling that whatever is writing it has finished.
// It gives up after readinessMaxWait and lets the caller decide whether to
// retry once.
func waitForReadiness(ctx context.Context, path string) (bool, error) {
	deadline := time.Now().Add(readinessMaxWait)

	lastSize, err := sizeOf(path)
	if err != nil {
		return false, err
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(readinessPollInterval):
		}

		size, err := sizeOf(path)
		if err != nil {
			return false, err
		}
		if size == lastSize && size > 0 {
			return true, nil
		}
		lastSize = size
	}

	return false, nil
}

func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
