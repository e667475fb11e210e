package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
)

// ErrEndOfStream is returned by NextFrame when the source cannot deliver
// another frame: the device was closed, a read failed or a remote stream ended.
var ErrEndOfStream = errors.New("camera: end of stream")

// Source produces frames from one capture device
type Source interface {
	NextFrame() (image.Image, error)
	Close() error
}

// Opener acquires a Source
type Opener func(ctx context.Context) (Source, error)

// endOfStream wraps a read failure so that callers can match ErrEndOfStream
func endOfStream(err error) error {
	if err == nil || errors.Is(err, ErrEndOfStream) {
		return ErrEndOfStream
	}
	return fmt.Errorf("%w: %v", ErrEndOfStream, err)
}

// Shared is the process-wide handle to the one camera device. Every stream
// request reads through it; NextFrame calls are serialized.
type Shared struct {
	open Opener

	mu  sync.Mutex
	src Source
}

// NewShared creates a handle that acquires its device with open
func NewShared(open Opener) *Shared {
	return &Shared{open: open}
}

// Open acquires the device. Opening an already open handle is a no-op.
func (s *Shared) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src != nil {
		return nil
	}
	src, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	s.src = src
	return nil
}

// NextFrame returns the next frame. A handle that is not open reports
// ErrEndOfStream. A failed read leaves the device open; only Close releases it.
func (s *Shared) NextFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return nil, ErrEndOfStream
	}
	img, err := s.src.NextFrame()
	if err != nil {
		return nil, endOfStream(err)
	}
	if img == nil {
		return nil, ErrEndOfStream
	}
	return img, nil
}

// IsOpen reports whether the device is currently held
func (s *Shared) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src != nil
}

// Close releases the device. It is safe to call any number of times.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return nil
	}
	err := s.src.Close()
	s.src = nil
	if err != nil {
		return fmt.Errorf("release camera: %w", err)
	}
	return nil
}
