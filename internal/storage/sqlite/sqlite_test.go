package sqlite_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
	"ReplyDesk/internal/storage/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQuickResponseStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)

	store, err := sqlite.NewQuickResponseStore(ctx, db, model.DefaultQuickResponses())
	require.NoError(t, err)

	// Seeding twice must not duplicate rows.
	store, err = sqlite.NewQuickResponseStore(ctx, db, model.DefaultQuickResponses())
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "1", list[0].ID)

	added, err := store.Add(ctx, " Até logo! ")
	require.NoError(t, err)
	assert.Equal(t, "Até logo!", added.Text)

	_, err = store.Update(ctx, "3", "Olá!")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "1"))

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2", list[0].ID)
	assert.Equal(t, "Olá!", list[1].Text)
	assert.Equal(t, added.ID, list[2].ID)

	_, err = store.Update(ctx, "missing", "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), model.ErrNotFound)
	_, err = store.Add(ctx, "")
	assert.ErrorIs(t, err, model.ErrEmptyText)
}

func TestHistoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sqlite.NewHistoryStore(openTestDB(t))

	received := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, model.HistoryItem{
		ID: "h1", OriginalMessage: "Oi", Response: "Olá", Timestamp: received.Add(time.Minute),
		Status: model.StatusResponded, ReceivedAt: &received,
	}))
	require.NoError(t, store.Append(ctx, model.HistoryItem{
		ID: "h2", OriginalMessage: "Pedido de agendamento", Response: "às 10:00", Timestamp: received.Add(2 * time.Minute),
		Status: model.StatusResponded,
	}))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "h2", items[0].ID)
	assert.Nil(t, items[0].ReceivedAt)
	assert.Equal(t, "h1", items[1].ID)
	require.NotNil(t, items[1].ReceivedAt)
	assert.True(t, received.Equal(*items[1].ReceivedAt))
	assert.Equal(t, model.StatusResponded, items[1].Status)
}

func TestSessionStore_SaveTwiceDoesNotDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sqlite.NewSessionStore(openTestDB(t), slog.Default())

	sess := session.New(time.Now())
	require.NoError(t, store.Save(ctx, sess))
	sess.Messages = append(sess.Messages, session.Message{Role: session.RoleUser, Text: "Oi", Timestamp: time.Now()})
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, session.Greeting, loaded.Messages[0].Text)
	assert.Equal(t, "Oi", loaded.Messages[1].Text)

	_, err = store.Load(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
