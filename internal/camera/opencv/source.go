//go:build opencv

package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/vzahanych/emotion-stream/internal/camera"
)

// Source reads frames from a VideoCapture device
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	once    sync.Once
}

// Open acquires the camera at cfg.DeviceIndex
func Open(ctx context.Context, cfg Config) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	capture, err := gocv.VideoCaptureDevice(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("open video device %d: %w", cfg.DeviceIndex, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video device %d is not available", cfg.DeviceIndex)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	return &Source{capture: capture, mat: gocv.NewMat()}, nil
}

// Opener returns a camera.Opener for cfg
func Opener(cfg Config) camera.Opener {
	return func(ctx context.Context) (camera.Source, error) {
		return Open(ctx, cfg)
	}
}

// NextFrame grabs and converts one frame
func (s *Source) NextFrame() (image.Image, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, camera.ErrEndOfStream
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Close releases the device
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		err = s.capture.Close()
		s.mat.Close()
	})
	return err
}
