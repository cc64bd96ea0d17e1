package describer

import (
	"context"
	"errors"
)

// Stub is a deterministic, swap-in Describer used by tests. ImageFunc/
// VideoFunc let a test script a specific aspect map or failure sequence
// per call.
type Stub struct {
	ImageFunc func(callNum int) (*ImageDescription, error)
	VideoFunc func(callNum int) (*VideoDescription, error)

	imageCalls int
	videoCalls int
}

var errStubNotConfigured = errors.New("describer: stub has no ImageFunc/VideoFunc configured")

func (s *Stub) DescribeImage(ctx context.Context, data []byte) (*ImageDescription, error) {
	s.imageCalls++
	if s.ImageFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.ImageFunc(s.imageCalls)
}

func (s *Stub) DescribeVideo(ctx context.Context, path string) (*VideoDescription, error) {
	s.videoCalls++
	if s.VideoFunc == nil {
		return nil, errStubNotConfigured
	}
	return s.VideoFunc(s.videoCalls)
}

// FixedImage returns a Stub that always answers the same description.
func FixedImage(d *ImageDescription) *Stub {
	return &Stub{ImageFunc: func(int) (*ImageDescription, error) { return d, nil }}
}

// FixedVideo returns a Stub that always answers the same description.
func FixedVideo(d *VideoDescription) *Stub {
	return &Stub{VideoFunc: func(int) (*VideoDescription, error) { return d, nil }}
}
