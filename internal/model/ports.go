package model

import "context"

// QuickResponseStore persists canned replies in insertion order.
type QuickResponseStore interface {
	List(ctx context.Context) ([]QuickResponse, error)
	Add(ctx context.Context, text string) (QuickResponse, error)
	Update(ctx context.Context, id, text string) (QuickResponse, error)
	Delete(ctx context.Context, id string) error
}

// HistoryStore is an append-only log of sent replies. List returns newest first.
type HistoryStore interface {
	Append(ctx context.Context, item HistoryItem) error
	List(ctx context.Context) ([]HistoryItem, error)
}
