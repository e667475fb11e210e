package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Enabled = true
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "db", "emotions.db")

	mgr, err := NewManager(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManager_SaveAndLoad(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()

	for i, l := range []emotion.Label{emotion.Sad, emotion.Happy, emotion.Sad} {
		s := &Sample{SessionID: "s1", FrameSeq: i + 1, Label: l, Detected: true}
		require.NoError(t, mgr.SaveSample(ctx, s))
		assert.NotEmpty(t, s.ID)
	}

	labels, err := mgr.LoadLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []emotion.Label{emotion.Sad, emotion.Happy, emotion.Sad}, labels)

	tally, err := mgr.Tally(ctx)
	require.NoError(t, err)
	assert.Equal(t, history.Tally{{Label: emotion.Sad, Count: 2}, {Label: emotion.Happy, Count: 1}}, tally)

	require.NoError(t, mgr.Ping(ctx))
}

func TestManager_RejectsUnknownLabel(t *testing.T) {
	mgr := setupTestManager(t)
	err := mgr.SaveSample(context.Background(), &Sample{Label: "bored"})
	assert.Error(t, err)
}

func TestManager_EmptyDatabase(t *testing.T) {
	mgr := setupTestManager(t)
	labels, err := mgr.LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, labels)

	tally, err := mgr.Tally(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tally)
}

func TestManager_Sessions(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	require.NoError(t, mgr.StartSession(ctx, "a", start))
	require.NoError(t, mgr.EndSession(ctx, "a", start.Add(30*time.Second), 12, "end_of_stream"))
	require.NoError(t, mgr.StartSession(ctx, "b", start.Add(40*time.Second)))

	sessions, err := mgr.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Nil(t, sessions[0].EndedAt)
	assert.Equal(t, "a", sessions[1].ID)
	require.NotNil(t, sessions[1].EndedAt)
	assert.Equal(t, 12, sessions[1].Frames)
	assert.Equal(t, "end_of_stream", sessions[1].EndReason)
}

func TestManager_RecoverHistory(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()
	for _, l := range []emotion.Label{emotion.Fear, emotion.Fear, emotion.Disgust} {
		require.NoError(t, mgr.SaveSample(ctx, &Sample{Label: l}))
	}

	hist := history.New(history.Config{}, logger.NewNopLogger())
	n, err := mgr.RecoverHistory(ctx, hist)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, history.Tally{{Label: emotion.Fear, Count: 2}, {Label: emotion.Disgust, Count: 1}}, hist.Tally())
}

func TestManager_Reopen(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "emotions.db")

	mgr, err := NewManager(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, mgr.SaveSample(context.Background(), &Sample{Label: emotion.Angry}))
	require.NoError(t, mgr.Close())

	mgr, err = NewManager(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	defer mgr.Close()
	labels, err := mgr.LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []emotion.Label{emotion.Angry}, labels)
}

func TestRecorder_PersistsPublishedSamples(t *testing.T) {
	mgr := setupTestManager(t)
	bus := service.NewEventBus(32)
	rec := NewRecorder(mgr, logger.NewNopLogger())
	rec.SetEventBus(bus)
	require.NoError(t, rec.Start(context.Background()))
	defer rec.Stop(context.Background())

	bus.Publish(service.Event{Type: service.EventTypeStreamStarted, Data: map[string]interface{}{"session_id": "s1"}})
	bus.Publish(service.Event{Type: service.EventTypeEmotionDetected, Data: map[string]interface{}{
		"session_id": "s1", "seq": 1, "label": "happy", "detected": true,
	}})
	bus.Publish(service.Event{Type: service.EventTypeEmotionDetected, Data: map[string]interface{}{
		"session_id": "s1", "seq": 2, "label": "neutral", "detected": false,
	}})
	bus.Publish(service.Event{Type: service.EventTypeStreamEnded, Data: map[string]interface{}{
		"session_id": "s1", "frames": 2, "reason": "end_of_stream",
	}})

	require.Eventually(t, func() bool {
		labels, err := mgr.LoadLabels(context.Background())
		return err == nil && len(labels) == 2
	}, 2*time.Second, 10*time.Millisecond)

	labels, err := mgr.LoadLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []emotion.Label{emotion.Happy, emotion.Neutral}, labels)

	require.Eventually(t, func() bool {
		sessions, err := mgr.ListSessions(context.Background(), 1)
		return err == nil && len(sessions) == 1 && sessions[0].Frames == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecorder_NeedsEventBus(t *testing.T) {
	rec := NewRecorder(setupTestManager(t), logger.NewNopLogger())
	assert.Error(t, rec.Start(context.Background()))
}
