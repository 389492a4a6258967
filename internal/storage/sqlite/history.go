package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"ReplyDesk/internal/model"
)

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, item model.HistoryItem) error {
	var received sql.NullTime
	if item.ReceivedAt != nil {
		received = sql.NullTime{Time: *item.ReceivedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, original_message, response, timestamp, status, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.OriginalMessage, item.Response, item.Timestamp, string(item.Status), received,
	)
	if err != nil {
		return fmt.Errorf("failed to append history item: %w", err)
	}
	return nil
}

func (s *HistoryStore) List(ctx context.Context) ([]model.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_message, response, timestamp, status, received_at
		 FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	out := []model.HistoryItem{}
	for rows.Next() {
		var (
			item     model.HistoryItem
			status   string
			received sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.OriginalMessage, &item.Response, &item.Timestamp, &status, &received); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		item.Status = model.HistoryStatus(status)
		if received.Valid {
			t := received.Time
			item.ReceivedAt = &t
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
