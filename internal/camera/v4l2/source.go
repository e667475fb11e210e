//go:build linux

// Package v4l2 reads MJPEG frames straight from a Video4Linux2 device.
package v4l2

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/blackjack/webcam"

	"github.com/vzahanych/emotion-stream/internal/camera"
)

// pixFmtMJPEG is the V4L2 fourcc 'MJPG'
const pixFmtMJPEG webcam.PixelFormat = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24

const (
	frameWaitSeconds = 5
	maxTimeouts      = 3
)

// Config selects the device node and capture format
type Config struct {
	DevicePath string
	Width      int
	Height     int
	Buffers    int
}

// Source streams MJPEG buffers from the device
type Source struct {
	cam    *webcam.Webcam
	width  uint32
	height uint32
	once   sync.Once
}

// Open configures the device for MJPEG and starts streaming
func Open(ctx context.Context, cfg Config) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cam, err := webcam.Open(cfg.DevicePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DevicePath, err)
	}

	if _, ok := cam.GetSupportedFormats()[pixFmtMJPEG]; !ok {
		cam.Close()
		return nil, fmt.Errorf("%s: MJPEG format not supported", cfg.DevicePath)
	}

	_, w, h, err := cam.SetImageFormat(pixFmtMJPEG, uint32(cfg.Width), uint32(cfg.Height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("%s: set format: %w", cfg.DevicePath, err)
	}
	if cfg.Buffers > 0 {
		if err := cam.SetBufferCount(uint32(cfg.Buffers)); err != nil {
			cam.Close()
			return nil, fmt.Errorf("%s: set buffers: %w", cfg.DevicePath, err)
		}
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("%s: start streaming: %w", cfg.DevicePath, err)
	}

	return &Source{cam: cam, width: w, height: h}, nil
}

// Opener returns a camera.Opener for cfg
func Opener(cfg Config) camera.Opener {
	return func(ctx context.Context) (camera.Source, error) {
		return Open(ctx, cfg)
	}
}

// Size returns the resolution the driver settled on
func (s *Source) Size() (int, int) {
	return int(s.width), int(s.height)
}

// NextFrame waits for a buffer, copies it out and decodes it
func (s *Source) NextFrame() (image.Image, error) {
	for timeouts := 0; ; {
		err := s.cam.WaitForFrame(frameWaitSeconds)
		if _, ok := err.(*webcam.Timeout); ok {
			timeouts++
			if timeouts >= maxTimeouts {
				return nil, fmt.Errorf("%w: no frame after %d waits", camera.ErrEndOfStream, timeouts)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("wait for frame: %w", err)
		}
		break
	}

	buf, index, err := s.cam.GetFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	data := make([]byte, len(buf))
	copy(data, buf)
	if err := s.cam.ReleaseFrame(index); err != nil {
		return nil, fmt.Errorf("release buffer: %w", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Close stops streaming and releases the device
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		s.cam.StopStreaming()
		err = s.cam.Close()
	})
	return err
}
