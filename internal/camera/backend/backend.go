// Package backend maps the camera configuration to a capture backend.
package backend

import (
	"net/http"

	"github.com/vzahanych/emotion-stream/internal/camera"
	"github.com/vzahanych/emotion-stream/internal/camera/opencv"
	"github.com/vzahanych/emotion-stream/internal/camera/v4l2"
	"github.com/vzahanych/emotion-stream/internal/config"
)

// Opener picks the backend named by cfg.Source
func Opener(cfg config.CameraConfig) camera.Opener {
	switch cfg.Source {
	case config.SourceV4L2:
		return v4l2.Opener(v4l2.Config{
			DevicePath: cfg.DevicePath,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Buffers:    cfg.Buffers,
		})
	case config.SourceMJPEG:
		return camera.MJPEGOpener(&http.Client{}, cfg.URL)
	default:
		return opencv.Opener(opencv.Config{
			DeviceIndex: cfg.DeviceIndex,
			Width:       cfg.Width,
			Height:      cfg.Height,
		})
	}
}
