package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ReplyDesk/internal/model"
)

type QuickResponseStore struct {
	mu    sync.RWMutex
	items []model.QuickResponse
}

// NewQuickResponseStore returns a store seeded with the given responses.
func NewQuickResponseStore(seed []model.QuickResponse) *QuickResponseStore {
	items := make([]model.QuickResponse, len(seed))
	copy(items, seed)
	return &QuickResponseStore{items: items}
}

func (s *QuickResponseStore) List(_ context.Context) ([]model.QuickResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.QuickResponse, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *QuickResponseStore) Add(_ context.Context, text string) (model.QuickResponse, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return model.QuickResponse{}, err
	}

	qr := model.QuickResponse{ID: uuid.NewString(), Text: text}

	s.mu.Lock()
	s.items = append(s.items, qr)
	s.mu.Unlock()

	return qr, nil
}

func (s *QuickResponseStore) Update(_ context.Context, id, text string) (model.QuickResponse, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return model.QuickResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Text = text
			return s.items[i], nil
		}
	}
	return model.QuickResponse{}, model.ErrNotFound
}

func (s *QuickResponseStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}
