package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// Session states.
const (
	SessionRunning = "running"
	SessionStopped = "stopped"
	SessionFailed  = "failed"
)

const (
	sqlInsertSession = `INSERT INTO sessions (id, pid, state, started_at)
		VALUES (?, ?, 'running', ?)`

	sqlRecordTick = `UPDATE sessions SET
		 last_tick_at = ?,
		 tick_count = tick_count + 1,
		 last_probed = ?,
		 last_enabled = CASE WHEN ? THEN ? ELSE last_enabled END,
		 last_error = ?
		WHERE id = ?`

	sqlEndSession = `UPDATE sessions SET state = ?, ended_at = ?, failure = ?
		WHERE id = ? AND state = 'running'`

	sqlLatestSession = `SELECT id, pid, state, started_at, last_tick_at, tick_count,
		last_probed, last_enabled, last_error, ended_at, failure
		FROM sessions ORDER BY started_at DESC LIMIT 1`
)

// Session is one daemon run as recorded by the health hooks.
type Session struct {
	ID          string
	PID         int
	State       string
	StartedAt   time.Time
	LastTickAt  time.Time // zero before the first tick
	TickCount   int64
	LastProbed  bool
	LastEnabled bool
	LastError   string
	EndedAt     time.Time
	Failure     string
}

// SessionStarted records a new running session.
func (s *Store) SessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, sqlInsertSession, sessionID, s.pid, at.UnixNano()); err != nil {
		return fmt.Errorf("store: recording session start: %w", err)
	}

	return nil
}

// TickCompleted records the outcome of one tick. last_enabled only moves
// when the tick actually probed the toggle.
func (s *Store) TickCompleted(ctx context.Context, sessionID string, report *monitor.TickReport) error {
	var lastErr sql.NullString
	if report.Err != nil {
		lastErr = sql.NullString{String: report.Err.Error(), Valid: true}
	}

	at := report.At
	if at.IsZero() {
		at = s.nowFunc()
	}

	_, err := s.db.ExecContext(ctx, sqlRecordTick,
		at.UnixNano(),
		boolToInt(report.Probed),
		boolToInt(report.Probed), boolToInt(report.Enabled),
		lastErr,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("store: recording tick: %w", err)
	}

	return nil
}

// SessionFailed marks a running session as ended by an unrecoverable error.
func (s *Store) SessionFailed(ctx context.Context, sessionID string, at time.Time, cause error) error {
	msg := "unknown failure"
	if cause != nil {
		msg = cause.Error()
	}

	return s.endSession(ctx, sessionID, SessionFailed, at, sql.NullString{String: msg, Valid: true})
}

// SessionStopped marks a running session as cleanly shut down.
func (s *Store) SessionStopped(ctx context.Context, sessionID string, at time.Time) error {
	return s.endSession(ctx, sessionID, SessionStopped, at, sql.NullString{})
}

func (s *Store) endSession(ctx context.Context, sessionID, state string, at time.Time, failure sql.NullString) error {
	if _, err := s.db.ExecContext(ctx, sqlEndSession, state, at.UnixNano(), failure, sessionID); err != nil {
		return fmt.Errorf("store: ending session: %w", err)
	}

	s.logger.Debug("session ended", slog.String("session_id", sessionID), slog.String("state", state))

	return nil
}

// LatestSession returns the most recently started session, or ErrNoSession.
func (s *Store) LatestSession(ctx context.Context) (*Session, error) {
	var (
		sess        Session
		startedAt   int64
		lastTickAt  sql.NullInt64
		lastProbed  int
		lastEnabled int
		lastError   sql.NullString
		endedAt     sql.NullInt64
		failure     sql.NullString
	)

	err := s.db.QueryRowContext(ctx, sqlLatestSession).Scan(
		&sess.ID, &sess.PID, &sess.State, &startedAt, &lastTickAt, &sess.TickCount,
		&lastProbed, &lastEnabled, &lastError, &endedAt, &failure,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}

	if err != nil {
		return nil, fmt.Errorf("store: reading latest session: %w", err)
	}

	sess.StartedAt = time.Unix(0, startedAt)
	sess.LastTickAt = nullTime(lastTickAt)
	sess.LastProbed = lastProbed != 0
	sess.LastEnabled = lastEnabled != 0
	sess.LastError = lastError.String
	sess.EndedAt = nullTime(endedAt)
	sess.Failure = failure.String

	return &sess, nil
}
