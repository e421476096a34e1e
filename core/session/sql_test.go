package session

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/dialog"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sessions (
		chat_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		state TEXT NOT NULL,
		step INTEGER NOT NULL DEFAULT 1,
		scratch TEXT NOT NULL DEFAULT '{}',
		last_activity TIMESTAMP NOT NULL,
		PRIMARY KEY (chat_id, user_id)
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE person (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		age INTEGER
	)`)
	require.NoError(t, err)
	return db
}

func TestSQLStoreLoadMissing(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	_, err := store.Load(context.Background(), dialog.ConversationID{ChatID: 1, UserID: 2})
	assert.ErrorIs(t, err, dialog.ErrSessionNotFound)
}

func TestSQLStoreSaveAndLoad(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	id := dialog.ConversationID{ChatID: 1, UserID: 2}

	sess := dialog.NewSession(id)
	sess.State = "PERSON"
	sess.Step = 2
	sess.Scratch.Set("field.name.value", "Ada")
	sess.LastActivity = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, id, sess))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PERSON", loaded.State)
	assert.Equal(t, 2, loaded.Step)
	assert.Equal(t, "Ada", loaded.Scratch.GetString("field.name.value", ""))
}

func TestSQLStoreSaveUpserts(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	id := dialog.ConversationID{ChatID: 1, UserID: 2}

	sess := dialog.NewSession(id)
	require.NoError(t, store.Save(ctx, id, sess))

	sess.State = "UPDATED"
	sess.Step = 4
	require.NoError(t, store.Save(ctx, id, sess))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "UPDATED", loaded.State)
	assert.Equal(t, 4, loaded.Step)
}

func TestSQLStoreEntityCRUD(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, "person", map[string]any{"name": "Ada", "age": 36})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	record, err := store.Get(ctx, "person", id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", record["name"])

	_, err = store.Create(ctx, "person", map[string]any{"name": "Grace", "age": 45})
	require.NoError(t, err)

	all, err := store.List(ctx, "person", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := store.List(ctx, "person", map[string]any{"name": "Grace"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	require.NoError(t, store.Delete(ctx, "person", id))
	remaining, err := store.List(ctx, "person", nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSQLStoreRejectsBadIdentifiers(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	_, err := store.List(ctx, "person; DROP TABLE sessions", nil)
	assert.Error(t, err)
	_, err = store.Create(ctx, "person", map[string]any{"name--": "x"})
	assert.Error(t, err)
	_, err = store.List(ctx, "person", map[string]any{"1col": "x"})
	assert.Error(t, err)
}
