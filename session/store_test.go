package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/plume-app/plume/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("persisted value always equals in-memory value", func(t *testing.T) {
		t.Parallel()

		storage := session.NewMemoryStorage()
		store := session.NewStore(storage)

		steps := []struct {
			token  string
			userID string
		}{
			{token: "t1", userID: "u1"},
			{token: "t2", userID: "u1"},
			{token: "", userID: ""},
			{token: "t3", userID: "u2"},
		}

		for _, step := range steps {
			require.NoError(t, store.Put(ctx, "sid", step.token, step.userID))

			persisted, err := storage.List(ctx)
			require.NoError(t, err)

			if step.token == "" {
				assert.Empty(t, persisted)
				assert.False(t, store.IsAuthenticated("sid"))

				continue
			}

			require.Len(t, persisted, 1)
			assert.Equal(t, step.token, persisted[0].Token)
			assert.Equal(t, step.token, store.Token("sid"))
			assert.True(t, store.IsAuthenticated("sid"))
		}
	})

	t.Run("failed mirror write leaves memory untouched", func(t *testing.T) {
		t.Parallel()

		storage := &failingStorage{Storage: session.NewMemoryStorage()}
		store := session.NewStore(storage)

		require.NoError(t, store.Put(ctx, "sid", "t1", "u1"))

		storage.fail = true

		err := store.Put(ctx, "sid", "t2", "u1")
		require.Error(t, err)

		assert.Equal(t, "t1", store.Token("sid"))
	})
}

func TestStoreRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := session.NewMemoryStorage()

	first := session.NewStore(storage)
	require.NoError(t, first.Put(ctx, "sid", "tok", "u1"))

	// A fresh store over the same storage simulates a frontend restart.
	second := session.NewStore(storage)
	require.NoError(t, second.Restore(ctx))

	assert.True(t, second.IsAuthenticated("sid"))

	got, ok := second.Get("sid")
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
}

func TestStoreRestoreEmpty(t *testing.T) {
	t.Parallel()

	store := session.NewStore(session.NewMemoryStorage())

	require.NoError(t, store.Restore(context.Background()))
	assert.Zero(t, store.Len())
	assert.False(t, store.IsAuthenticated("anything"))
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := session.NewMemoryStorage()
	store := session.NewStore(storage)

	require.NoError(t, store.Put(ctx, "sid", "tok", "u1"))
	require.NoError(t, store.Delete(ctx, "sid"))

	assert.False(t, store.IsAuthenticated("sid"))

	persisted, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)

	// Idempotent: deleting again is fine.
	require.NoError(t, store.Delete(ctx, "sid"))
}

func TestStoreSubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(session.NewMemoryStorage())

	var events []session.Event

	store.Subscribe(func(event session.Event) {
		events = append(events, event)
	})

	require.NoError(t, store.Put(ctx, "sid", "tok", "u1"))
	require.NoError(t, store.Delete(ctx, "sid"))
	require.NoError(t, store.Delete(ctx, "sid")) // already gone, no event

	require.Len(t, events, 2)
	assert.True(t, events[0].Authenticated)
	assert.Equal(t, "u1", events[0].UserID)
	assert.False(t, events[1].Authenticated)
}

type failingStorage struct {
	session.Storage

	fail bool
}

var errStorageDown = errors.New("storage down")

func (fs *failingStorage) Save(ctx context.Context, s *session.Session) error {
	if fs.fail {
		return errStorageDown
	}

	return fs.Storage.Save(ctx, s)
}
