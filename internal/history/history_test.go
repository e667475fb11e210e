package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/logger"
)

func newTestHistory() *History {
	return New(Config{WarnEvery: 3}, logger.NewNopLogger())
}

func TestHistory_AppendAndSnapshot(t *testing.T) {
	h := newTestHistory()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Snapshot())

	assert.Equal(t, 1, h.Append(emotion.Happy))
	assert.Equal(t, 2, h.Append(emotion.Sad))
	assert.Equal(t, 3, h.Append(emotion.Happy))

	snap := h.Snapshot()
	assert.Equal(t, []emotion.Label{emotion.Happy, emotion.Sad, emotion.Happy}, snap)

	snap[0] = emotion.Angry
	assert.Equal(t, emotion.Happy, h.Snapshot()[0], "snapshot is a copy")
}

func TestHistory_GrowthWarning(t *testing.T) {
	tests := []struct {
		name      string
		warnEvery int
		want      int
	}{
		{"every third append", 3, 2},
		{"disabled", -1, 0},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			h := New(Config{WarnEvery: tt.warnEvery}, &logger.Logger{Logger: zap.New(core)})
			for i := 0; i < 7; i++ {
				h.Append(emotion.Neutral)
			}
			assert.Equal(t, tt.want, logs.Len())
		})
	}
}

func TestHistory_Restore(t *testing.T) {
	h := newTestHistory()
	n := h.Restore([]emotion.Label{emotion.Fear, "bogus", emotion.Neutral})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, h.Len())
}

func TestTally_FirstSeenOrder(t *testing.T) {
	tally := NewTally([]emotion.Label{emotion.Sad, emotion.Happy, emotion.Happy, emotion.Sad, emotion.Happy})
	require.Len(t, tally, 2)
	assert.Equal(t, Count{emotion.Sad, 2}, tally[0])
	assert.Equal(t, Count{emotion.Happy, 3}, tally[1])
	assert.Equal(t, 5, tally.Total())
	assert.Equal(t, 3, tally.Max())
	assert.Equal(t, 3, tally.Get(emotion.Happy))
	assert.Equal(t, 0, tally.Get(emotion.Fear))
}

func TestTally_Empty(t *testing.T) {
	tally := newTestHistory().Tally()
	assert.Empty(t, tally)
	assert.Equal(t, 0, tally.Total())
	assert.Equal(t, 0, tally.Max())
}

func TestTally_StableWithoutNewFrames(t *testing.T) {
	h := newTestHistory()
	for _, l := range []emotion.Label{emotion.Happy, emotion.Happy, emotion.Happy, emotion.Sad} {
		h.Append(l)
	}
	assert.Equal(t, h.Tally(), h.Tally())
	assert.Equal(t, Tally{{emotion.Happy, 3}, {emotion.Sad, 1}}, h.Tally())
}

func TestHistory_ConcurrentReadersNeverExceedWriters(t *testing.T) {
	h := newTestHistory()
	const frames = 2000

	var written sync.WaitGroup
	written.Add(1)
	go func() {
		defer written.Done()
		for i := 0; i < frames; i++ {
			h.Append(emotion.Labels()[i%7])
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 200; i++ {
				total := h.Tally().Total()
				assert.LessOrEqual(t, total, frames)
				for _, c := range h.Tally() {
					assert.True(t, c.Label.Valid())
				}
			}
		}()
	}

	written.Wait()
	readers.Wait()
	assert.Equal(t, frames, h.Len())
	assert.Equal(t, frames, h.Tally().Total())
}
