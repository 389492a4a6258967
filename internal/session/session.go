package session

import (
	"context"
	"fmt"
	"time"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Greeting opens every text chat session.
const Greeting = "Olá! Sou seu assistente de IA. Como posso ajudar você a gerenciar seu negócio hoje?"

// Message represents a single chat message
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session represents a text chat session. Messages are append-only.
type Session struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	Messages  []Message `json:"messages"`
}

// New starts a session seeded with the model greeting.
func New(now time.Time) *Session {
	return &Session{
		ID:        fmt.Sprintf("session_%d", now.UnixNano()),
		StartTime: now,
		Messages:  []Message{{Role: RoleModel, Text: Greeting, Timestamp: now}},
	}
}

// Store persists chat sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
}
