package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ReplyDesk/internal/model"
)

type QuickResponseStore struct {
	db *sql.DB
}

// NewQuickResponseStore wraps db. The seed is inserted only into an empty table.
func NewQuickResponseStore(ctx context.Context, db *sql.DB, seed []model.QuickResponse) (*QuickResponseStore, error) {
	s := &QuickResponseStore{db: db}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quick_responses").Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to count quick responses: %w", err)
	}
	if n > 0 || len(seed) == 0 {
		return s, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, qr := range seed {
		if _, err := tx.ExecContext(ctx, "INSERT INTO quick_responses (id, text) VALUES (?, ?)", qr.ID, qr.Text); err != nil {
			return nil, fmt.Errorf("failed to seed quick response: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s, nil
}

func (s *QuickResponseStore) List(ctx context.Context) ([]model.QuickResponse, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, text FROM quick_responses ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list quick responses: %w", err)
	}
	defer rows.Close()

	out := []model.QuickResponse{}
	for rows.Next() {
		var qr model.QuickResponse
		if err := rows.Scan(&qr.ID, &qr.Text); err != nil {
			return nil, fmt.Errorf("failed to scan quick response: %w", err)
		}
		out = append(out, qr)
	}
	return out, rows.Err()
}

func (s *QuickResponseStore) Add(ctx context.Context, text string) (model.QuickResponse, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return model.QuickResponse{}, err
	}

	qr := model.QuickResponse{ID: uuid.NewString(), Text: text}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO quick_responses (id, text) VALUES (?, ?)", qr.ID, qr.Text); err != nil {
		return model.QuickResponse{}, fmt.Errorf("failed to insert quick response: %w", err)
	}
	return qr, nil
}

func (s *QuickResponseStore) Update(ctx context.Context, id, text string) (model.QuickResponse, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return model.QuickResponse{}, err
	}

	res, err := s.db.ExecContext(ctx, "UPDATE quick_responses SET text = ? WHERE id = ?", text, id)
	if err != nil {
		return model.QuickResponse{}, fmt.Errorf("failed to update quick response: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return model.QuickResponse{}, err
	}
	return model.QuickResponse{ID: id, Text: text}, nil
}

func (s *QuickResponseStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM quick_responses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete quick response: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

