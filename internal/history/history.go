// Package history keeps the process-wide record of analysed emotions.
//
// The history only grows. It is never trimmed, so memory use is proportional
// to the number of analysed frames over the life of the process; crossing
// every WarnEvery entries is logged so long-running sessions surface it.
package history

import (
	"sync"

	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/logger"
)

// History is an append-only sequence of emotion labels
type History struct {
	mu        sync.RWMutex
	labels    []emotion.Label
	warnEvery int
	logger    *logger.Logger
}

// Config contains history settings
type Config struct {
	WarnEvery int // log a growth warning every N appends, <= 0 = never
}

// New creates an empty history
func New(cfg Config, log *logger.Logger) *History {
	return &History{
		warnEvery: cfg.WarnEvery,
		logger:    log,
	}
}

// Append records one label and returns the new length
func (h *History) Append(label emotion.Label) int {
	h.mu.Lock()
	h.labels = append(h.labels, label)
	n := len(h.labels)
	h.mu.Unlock()

	if h.warnEvery > 0 && n%h.warnEvery == 0 {
		h.logger.Warn("Emotion history keeps growing; it is never trimmed", "entries", n)
	}
	return n
}

// Restore appends previously persisted labels, skipping any outside the set
func (h *History) Restore(labels []emotion.Label) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	restored := 0
	for _, l := range labels {
		if !l.Valid() {
			continue
		}
		h.labels = append(h.labels, l)
		restored++
	}
	return restored
}

// Len returns the number of recorded labels
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.labels)
}

// Snapshot returns a copy of the recorded labels
func (h *History) Snapshot() []emotion.Label {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]emotion.Label, len(h.labels))
	copy(out, h.labels)
	return out
}

// Tally counts the current history
func (h *History) Tally() Tally {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return NewTally(h.labels)
}
