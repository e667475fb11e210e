// Package state persists analyzed emotion samples in SQLite so the tally can
// outlive the process when restore is enabled.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/logger"
)

// Sample is one persisted classification
type Sample struct {
	ID         string
	SessionID  string
	FrameSeq   int
	Label      emotion.Label
	Detected   bool
	CapturedAt time.Time
}

// Session is one persisted stream request
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Frames    int        `json:"frames"`
	EndReason string     `json:"end_reason,omitempty"`
}

// Manager manages sample persistence and recovery
type Manager struct {
	db     *Database
	logger *logger.Logger
	mu     sync.RWMutex
}

// NewManager opens the database at cfg.Storage.DBPath
func NewManager(cfg *config.Config, log *logger.Logger) (*Manager, error) {
	db, err := NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return &Manager{
		db:     db,
		logger: log,
	}, nil
}

// Close closes the state manager and database
func (m *Manager) Close() error {
	return m.db.Close()
}

// Ping checks the database connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.GetDB().PingContext(ctx)
}

// StartSession records the start of a stream request
func (m *Manager) StartSession(ctx context.Context, id string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := `INSERT OR IGNORE INTO stream_sessions (id, started_at) VALUES (?, ?)`
	if _, err := m.db.GetDB().ExecContext(ctx, query, id, startedAt); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// EndSession records how a stream request ended
func (m *Manager) EndSession(ctx context.Context, id string, endedAt time.Time, frames int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := `
		INSERT INTO stream_sessions (id, started_at, ended_at, frames, end_reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			frames = excluded.frames,
			end_reason = excluded.end_reason
	`
	if _, err := m.db.GetDB().ExecContext(ctx, query, id, endedAt, endedAt, frames, reason); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// SaveSample stores one classification. An empty ID gets a fresh UUID.
func (m *Manager) SaveSample(ctx context.Context, s *Sample) error {
	if !s.Label.Valid() {
		return fmt.Errorf("invalid emotion label %q", s.Label)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CapturedAt.IsZero() {
		s.CapturedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sessionID interface{}
	if s.SessionID != "" {
		sessionID = s.SessionID
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO stream_sessions (id, started_at) VALUES (?, ?)`,
			s.SessionID, s.CapturedAt,
		); err != nil {
			return fmt.Errorf("failed to register session: %w", err)
		}
	}

	query := `
		INSERT INTO emotion_samples (id, session_id, frame_seq, label, detected, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		s.ID, sessionID, s.FrameSeq, string(s.Label), s.Detected, s.CapturedAt,
	); err != nil {
		return fmt.Errorf("failed to save sample: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sample: %w", err)
	}
	return nil
}

// LoadLabels returns every stored label in arrival order
func (m *Manager) LoadLabels(ctx context.Context) ([]emotion.Label, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.db.GetDB().QueryContext(ctx, `SELECT label FROM emotion_samples ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	defer rows.Close()

	labels := make([]emotion.Label, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, emotion.Label(label))
	}

	return labels, rows.Err()
}

// Tally counts stored labels in first-seen order
func (m *Manager) Tally(ctx context.Context) (history.Tally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := `
		SELECT label, COUNT(*)
		FROM emotion_samples
		GROUP BY label
		ORDER BY MIN(seq) ASC
	`
	rows, err := m.db.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to tally samples: %w", err)
	}
	defer rows.Close()

	tally := history.Tally{}
	for rows.Next() {
		var c history.Count
		var label string
		if err := rows.Scan(&label, &c.Count); err != nil {
			return nil, err
		}
		c.Label = emotion.Label(label)
		tally = append(tally, c)
	}

	return tally, rows.Err()
}

// ListSessions returns the most recent sessions, newest first
func (m *Manager) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, started_at, ended_at, frames, end_reason
		FROM stream_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := m.db.GetDB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var endedAt sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(&s.ID, &s.StartedAt, &endedAt, &s.Frames, &reason); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		s.EndReason = reason.String
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// RecoverHistory replays stored labels into hist
func (m *Manager) RecoverHistory(ctx context.Context, hist *history.History) (int, error) {
	m.logger.Info("Recovering emotion history")

	labels, err := m.LoadLabels(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to recover history: %w", err)
	}
	n := hist.Restore(labels)

	m.logger.Info("Emotion history recovered", "samples", n)
	return n, nil
}
