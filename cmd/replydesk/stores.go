package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"ReplyDesk/internal/config"
	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
	"ReplyDesk/internal/storage/memory"
	"ReplyDesk/internal/storage/sqlite"
)

type stores struct {
	quick    model.QuickResponseStore
	history  model.HistoryStore
	sessions session.Store
	db       *sql.DB
}

// openStores selects the storage backend. Both are seeded with the default
// quick responses.
func openStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		quick, err := sqlite.NewQuickResponseStore(ctx, db, model.DefaultQuickResponses())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize quick responses: %w", err)
		}
		logger.Info("using sqlite storage")
		return &stores{
			quick:    quick,
			history:  sqlite.NewHistoryStore(db),
			sessions: sqlite.NewSessionStore(db, logger),
			db:       db,
		}, nil

	default:
		return &stores{
			quick:    memory.NewQuickResponseStore(model.DefaultQuickResponses()),
			history:  memory.NewHistoryStore(),
			sessions: memory.NewSessionStore(),
		}, nil
	}
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
