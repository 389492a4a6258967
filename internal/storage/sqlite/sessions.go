package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
)

type SessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSessionStore(db *sql.DB, logger *slog.Logger) *SessionStore {
	return &SessionStore{db: db, logger: logger}
}

// Save replaces the stored copy of the session in one transaction.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (id, start_time) VALUES (?, ?)",
		sess.ID, sess.StartTime,
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sess.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	for _, msg := range sess.Messages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (session_id, role, text, timestamp) VALUES (?, ?, ?, ?)",
			sess.ID, msg.Role, msg.Text, msg.Timestamp,
		); err != nil {
			s.logger.Warn("failed to save message", "session_id", sess.ID, "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("session saved", "session_id", sess.ID, "message_count", len(sess.Messages))
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	sess := &session.Session{ID: id}

	err := s.db.QueryRowContext(ctx, "SELECT start_time FROM sessions WHERE id = ?", id).Scan(&sess.StartTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, text, timestamp FROM messages WHERE session_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	sess.Messages = []session.Message{}
	for rows.Next() {
		var msg session.Message
		if err := rows.Scan(&msg.Role, &msg.Text, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		sess.Messages = append(sess.Messages, msg)
	}
	return sess, rows.Err()
}
