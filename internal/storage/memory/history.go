package memory

import (
	"context"
	"slices"
	"sync"

	"ReplyDesk/internal/model"
)

// HistoryStore keeps items in append order and hands them out newest first.
type HistoryStore struct {
	mu    sync.RWMutex
	items []model.HistoryItem
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(_ context.Context, item model.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
	return nil
}

func (s *HistoryStore) List(_ context.Context) ([]model.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.items)
	slices.Reverse(out)
	return out, nil
}
