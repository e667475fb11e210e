//go:build !linux

package v4l2

import (
	"context"
	"errors"

	"github.com/vzahanych/emotion-stream/internal/camera"
)

// Config selects the device node and capture format
type Config struct {
	DevicePath string
	Width      int
	Height     int
	Buffers    int
}

// Opener reports that V4L2 capture needs Linux
func Opener(cfg Config) camera.Opener {
	return func(ctx context.Context) (camera.Source, error) {
		return nil, errors.New("v4l2 capture is only available on linux")
	}
}
