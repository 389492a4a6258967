package memory

import (
	"context"
	"slices"
	"sync"

	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
)

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]session.Session)}
}

func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	cp := *sess
	cp.Messages = slices.Clone(sess.Messages)

	s.mu.Lock()
	s.sessions[sess.ID] = cp
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	sess.Messages = slices.Clone(sess.Messages)
	return &sess, nil
}
