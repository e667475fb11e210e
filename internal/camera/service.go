package camera

import (
	"context"
	"errors"

	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

// Service owns the camera for the lifetime of the process. Start acquires
// the device and Stop releases it.
type Service struct {
	*service.ServiceBase
	shared *Shared
	kind   string
}

// NewService creates the camera service. kind is only used for logging.
func NewService(kind string, open Opener, log *logger.Logger) *Service {
	return &Service{
		ServiceBase: service.NewServiceBase("camera", log),
		shared:      NewShared(open),
		kind:        kind,
	}
}

// Source returns the shared handle read by stream requests
func (s *Service) Source() *Shared {
	return s.shared
}

// Start opens the device
func (s *Service) Start(ctx context.Context) error {
	s.GetStatus().SetStatus(service.StatusStarting)
	s.LogInfo("Opening camera", "source", s.kind)

	if err := s.shared.Open(ctx); err != nil {
		s.GetStatus().SetError(err)
		s.LogError("Failed to open camera", err, "source", s.kind)
		return err
	}

	s.PublishEvent(service.EventTypeCameraOpened, map[string]interface{}{
		"source": s.kind,
	})
	s.GetStatus().SetStatus(service.StatusRunning)
	return nil
}

// Stop releases the device
func (s *Service) Stop(ctx context.Context) error {
	s.GetStatus().SetStatus(service.StatusStopping)
	s.LogInfo("Releasing camera")

	wasOpen := s.shared.IsOpen()
	if err := s.shared.Close(); err != nil {
		s.GetStatus().SetError(err)
		s.LogError("Failed to release camera", err)
		return err
	}
	if wasOpen {
		s.PublishEvent(service.EventTypeCameraClosed, map[string]interface{}{
			"source": s.kind,
		})
	}
	s.GetStatus().SetStatus(service.StatusStopped)
	return nil
}

// Close releases the device without going through the service manager.
// It backs the deferred release in main and is safe after Stop.
func (s *Service) Close() error {
	return s.shared.Close()
}

// HealthCheck reports whether the device is held
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.shared.IsOpen() {
		return errors.New("camera is not open")
	}
	return nil
}
