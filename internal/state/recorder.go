package state

import (
	"context"
	"fmt"

	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

// Recorder persists stream sessions and samples published on the event bus
type Recorder struct {
	*service.ServiceBase
	stateMgr *Manager
	cancel   context.CancelFunc
}

// NewRecorder creates a recorder service
func NewRecorder(stateMgr *Manager, log *logger.Logger) *Recorder {
	return &Recorder{
		ServiceBase: service.NewServiceBase("recorder", log),
		stateMgr:    stateMgr,
	}
}

// Start subscribes to stream and emotion events
func (r *Recorder) Start(ctx context.Context) error {
	bus := r.GetEventBus()
	if bus == nil {
		return fmt.Errorf("recorder needs an event bus")
	}
	r.GetStatus().SetStatus(service.StatusStarting)

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	onError := func(err error) {
		r.LogError("Failed to persist event", err)
	}
	bus.SubscribeWithHandler(ctx, service.EventTypeStreamStarted, r.handleStreamStarted, onError)
	bus.SubscribeWithHandler(ctx, service.EventTypeStreamEnded, r.handleStreamEnded, onError)
	bus.SubscribeWithHandler(ctx, service.EventTypeEmotionDetected, r.handleEmotion, onError)

	r.LogInfo("Recording emotion samples")
	r.GetStatus().SetStatus(service.StatusRunning)
	return nil
}

// Stop unsubscribes. Samples still buffered on the bus are dropped.
func (r *Recorder) Stop(ctx context.Context) error {
	r.GetStatus().SetStatus(service.StatusStopping)
	if r.cancel != nil {
		r.cancel()
	}
	r.GetStatus().SetStatus(service.StatusStopped)
	return nil
}

func (r *Recorder) handleStreamStarted(ctx context.Context, ev service.Event) error {
	id, _ := ev.Data["session_id"].(string)
	if id == "" {
		return nil
	}
	return r.stateMgr.StartSession(ctx, id, ev.Timestamp)
}

func (r *Recorder) handleStreamEnded(ctx context.Context, ev service.Event) error {
	id, _ := ev.Data["session_id"].(string)
	if id == "" {
		return nil
	}
	frames, _ := ev.Data["frames"].(int)
	reason, _ := ev.Data["reason"].(string)
	return r.stateMgr.EndSession(ctx, id, ev.Timestamp, frames, reason)
}

func (r *Recorder) handleEmotion(ctx context.Context, ev service.Event) error {
	raw, _ := ev.Data["label"].(string)
	label, ok := emotion.Parse(raw)
	if !ok {
		return fmt.Errorf("event carries unknown label %q", raw)
	}
	sessionID, _ := ev.Data["session_id"].(string)
	seq, _ := ev.Data["seq"].(int)
	detected, _ := ev.Data["detected"].(bool)

	return r.stateMgr.SaveSample(ctx, &Sample{
		SessionID:  sessionID,
		FrameSeq:   seq,
		Label:      label,
		Detected:   detected,
		CapturedAt: ev.Timestamp,
	})
}
