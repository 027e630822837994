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

const (
	sqlUpsertNotification = `INSERT INTO notifications
		(id, title, body, action, ongoing, category, visibility, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 title = excluded.title,
		 body = excluded.body,
		 action = excluded.action,
		 ongoing = excluded.ongoing,
		 category = excluded.category,
		 visibility = excluded.visibility,
		 posted_at = excluded.posted_at`

	sqlDeleteNotification = `DELETE FROM notifications WHERE id = ?`

	sqlGetNotification = `SELECT title, body, action, ongoing, category, visibility, posted_at
		FROM notifications WHERE id = ?`
)

// PostedNotification is a notification as currently shown on the board.
type PostedNotification struct {
	monitor.Notification
	PostedAt time.Time
}

// Post shows n under id, replacing whatever was shown there.
func (s *Store) Post(ctx context.Context, id int, n monitor.Notification) error {
	_, err := s.db.ExecContext(ctx, sqlUpsertNotification,
		id, n.Title, n.Body, n.Action, boolToInt(n.Ongoing), n.Category, n.Visibility,
		s.nowFunc().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store: posting notification %d: %w", id, err)
	}

	s.logger.Debug("notification posted", slog.Int("id", id), slog.String("body", n.Body))

	return nil
}

// Cancel removes the notification under id. Removing an absent
// notification succeeds.
func (s *Store) Cancel(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, sqlDeleteNotification, id)
	if err != nil {
		return fmt.Errorf("store: cancelling notification %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("notification cancelled", slog.Int("id", id))
	}

	return nil
}

// Notification returns what is shown under id. found is false when the
// board is empty for that id.
func (s *Store) Notification(ctx context.Context, id int) (PostedNotification, bool, error) {
	var (
		p        PostedNotification
		ongoing  int
		postedAt int64
	)

	err := s.db.QueryRowContext(ctx, sqlGetNotification, id).Scan(
		&p.Title, &p.Body, &p.Action, &ongoing, &p.Category, &p.Visibility, &postedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return PostedNotification{}, false, nil
	}

	if err != nil {
		return PostedNotification{}, false, fmt.Errorf("store: reading notification %d: %w", id, err)
	}

	p.Ongoing = ongoing != 0
	p.PostedAt = time.Unix(0, postedAt)

	return p, true, nil
}
