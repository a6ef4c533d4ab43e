package sqlite3_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plume-app/plume/db/sqlite3"
	"github.com/plume-app/plume/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *sqlite3.SessionStorage {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	t.Cleanup(func() {
		assert.NoError(t, sqlite3.MigrateDown(ctx, db))
	})

	return sqlite3.NewSessionStorage(db)
}

func TestMigrationCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))
	require.NoError(t, sqlite3.MigrateDown(ctx, db))

	storage := sqlite3.NewSessionStorage(db)

	_, err = storage.List(ctx)
	assert.Error(t, err, "sessions table is gone after the down migration")

	require.NoError(t, sqlite3.MigrateUp(ctx, db))

	sessions, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save and list round-trip", func(t *testing.T) {
		t.Parallel()

		storage := newTestStorage(t)

		sess := &session.Session{
			ID:        uuid.NewString(),
			Token:     "bearer-token",
			UserID:    "u1",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}

		require.NoError(t, storage.Save(ctx, sess))

		sessions, err := storage.List(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, sess.ID, sessions[0].ID)
		assert.Equal(t, sess.Token, sessions[0].Token)
		assert.Equal(t, sess.UserID, sessions[0].UserID)
	})

	t.Run("save twice updates in place", func(t *testing.T) {
		t.Parallel()

		storage := newTestStorage(t)
		id := uuid.NewString()

		require.NoError(t, storage.Save(ctx, &session.Session{
			ID: id, Token: "old", UserID: "u1", CreatedAt: time.Now(),
		}))
		require.NoError(t, storage.Save(ctx, &session.Session{
			ID: id, Token: "new", UserID: "u1", CreatedAt: time.Now(),
		}))

		sessions, err := storage.List(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "new", sessions[0].Token)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		t.Parallel()

		storage := newTestStorage(t)
		id := uuid.NewString()

		require.NoError(t, storage.Save(ctx, &session.Session{
			ID: id, Token: "tok", UserID: "u1", CreatedAt: time.Now(),
		}))
		require.NoError(t, storage.Delete(ctx, id))

		sessions, err := storage.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("delete missing reports not found", func(t *testing.T) {
		t.Parallel()

		storage := newTestStorage(t)

		err := storage.Delete(ctx, "missing")

		notFoundErr := &session.NotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
	})
}
