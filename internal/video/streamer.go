package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/vzahanych/emotion-stream/internal/camera"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

// FrameSource supplies frames to the streamer
type FrameSource interface {
	NextFrame() (image.Image, error)
}

// EndReason says why a stream stopped
type EndReason string

const (
	EndOfStream     EndReason = "end_of_stream"
	EndDisconnected EndReason = "client_disconnected"
	EndCaptureError EndReason = "capture_error"
)

// StreamerConfig holds the overlay and encoding settings
type StreamerConfig struct {
	JPEGQuality int
	Annotator   AnnotatorConfig
}

// Streamer runs the capture, classify, annotate and emit loop. It is the only
// writer of the emotion history.
type Streamer struct {
	source     FrameSource
	classifier emotion.Classifier
	history    *history.History
	annotator  *Annotator
	quality    int
	bus        *service.EventBus
	logger     *logger.Logger
}

// NewStreamer creates a streamer
func NewStreamer(cfg StreamerConfig, source FrameSource, classifier emotion.Classifier, hist *history.History, log *logger.Logger) *Streamer {
	return &Streamer{
		source:     source,
		classifier: classifier,
		history:    hist,
		annotator:  NewAnnotator(cfg.Annotator),
		quality:    cfg.JPEGQuality,
		logger:     log,
	}
}

// SetEventBus makes the streamer publish every analyzed frame
func (s *Streamer) SetEventBus(bus *service.EventBus) {
	s.bus = bus
}

// Process classifies the frame, records the label and returns the encoded,
// annotated frame.
func (s *Streamer) Process(ctx context.Context, frame *Frame) ([]byte, error) {
	frame.Result = s.classifier.Classify(ctx, frame.Image)
	s.history.Append(frame.Result.Label)
	s.publish(frame)

	annotated := s.annotator.Annotate(frame.Image, frame.Result.Label)
	data, err := EncodeJPEG(annotated, s.quality)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Stream writes annotated frames to mw until the source runs dry, the client
// goes away or ctx is done. Running out of frames is a normal end: the
// closing delimiter is written and nil is returned. A failed write is
// returned as an error.
func (s *Streamer) Stream(ctx context.Context, mw *MultipartWriter) (EndReason, error) {
	sessionID := uuid.NewString()
	s.logger.Info("Stream started", "session_id", sessionID)
	s.publishLifecycle(service.EventTypeStreamStarted, sessionID, nil)

	reason, err := s.loop(ctx, sessionID, mw)

	s.logger.Info("Stream ended",
		"session_id", sessionID,
		"reason", string(reason),
		"frames", mw.Parts(),
	)
	s.publishLifecycle(service.EventTypeStreamEnded, sessionID, map[string]interface{}{
		"reason": string(reason),
		"frames": mw.Parts(),
	})
	return reason, err
}

func (s *Streamer) loop(ctx context.Context, sessionID string, mw *MultipartWriter) (EndReason, error) {
	for seq := 1; ; seq++ {
		if ctx.Err() != nil {
			return EndDisconnected, nil
		}

		img, err := s.source.NextFrame()
		if err != nil {
			if errors.Is(err, camera.ErrEndOfStream) {
				s.logger.Debug("No more frames", "session_id", sessionID, "error", err)
				return EndOfStream, mw.Close()
			}
			s.logger.Warn("Frame capture failed", "session_id", sessionID, "error", err)
			return EndCaptureError, mw.Close()
		}

		frame := &Frame{
			SessionID:  sessionID,
			Seq:        seq,
			CapturedAt: time.Now(),
			Image:      img,
		}
		data, err := s.Process(ctx, frame)
		if err != nil {
			return EndCaptureError, fmt.Errorf("frame %d: %w", seq, err)
		}

		if err := mw.WritePart(data); err != nil {
			s.logger.Debug("Client stopped reading", "session_id", sessionID, "error", err)
			return EndDisconnected, err
		}
	}
}

func (s *Streamer) publish(frame *Frame) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(service.Event{
		Type:      service.EventTypeEmotionDetected,
		Source:    "streamer",
		Timestamp: frame.CapturedAt,
		Data: map[string]interface{}{
			"session_id": frame.SessionID,
			"seq":        frame.Seq,
			"label":      frame.Result.Label.String(),
			"detected":   frame.Result.Detected,
		},
	})
}

func (s *Streamer) publishLifecycle(eventType service.EventType, sessionID string, extra map[string]interface{}) {
	if s.bus == nil {
		return
	}
	data := map[string]interface{}{"session_id": sessionID}
	for k, v := range extra {
		data[k] = v
	}
	s.bus.Publish(service.Event{Type: eventType, Source: "streamer", Data: data})
}
