package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
	"github.com/slok/plancoach/internal/storage/sqlite"
)

func newStore(t *testing.T, path string) *sqlite.DocumentStore {
	t.Helper()
	store, err := sqlite.NewDocumentStore(context.Background(), sqlite.DocumentStoreConfig{
		DBPath: path,
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocumentStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, filepath.Join(t.TempDir(), "test.db"))

	_, err := store.GetDocument(ctx, "coachConversations/u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	require.NoError(t, store.SetDocument(ctx, "coachConversations/u1", map[string]any{
		"messages":  []any{map[string]any{"role": "user", "content": "hi", "createdAt": 1}},
		"updatedAt": "2025-01-01T00:00:00Z",
		"meta":      map[string]any{"a": "b"},
	}))
	require.NoError(t, store.SetDocument(ctx, "coachConversations/u1", map[string]any{
		"messages": []any{},
		"meta":     map[string]any{"c": "d"},
	}))

	got, err := store.GetDocument(ctx, "coachConversations/u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"messages":  []any{},
		"updatedAt": "2025-01-01T00:00:00Z",
		"meta":      map[string]any{"a": "b", "c": "d"},
	}, got)

	require.NoError(t, store.DeleteDocument(ctx, "coachConversations/u1"))
	require.NoError(t, store.DeleteDocument(ctx, "coachConversations/u1"))
	_, err = store.GetDocument(ctx, "coachConversations/u1")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDocumentStoreInvalidPath(t *testing.T) {
	store := newStore(t, filepath.Join(t.TempDir(), "test.db"))

	err := store.SetDocument(context.Background(), "no-collection", map[string]any{"a": 1})
	assert.True(t, errors.Is(err, model.ErrNotValid))
}

func TestDocumentStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "plancoach.db")

	store := newStore(t, path)
	repo, err := storage.NewDocumentRepository(storage.DocumentRepositoryConfig{
		Store: store,
		Now:   func() time.Time { return time.Unix(0, 0) },
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveProgress(ctx, "default", model.UserProgress{
		TaskProgress: model.ProgressMap{"w1t1": {Status: model.TaskStatusSkipped, Notes: "later"}},
	}))
	require.NoError(t, store.Close())

	reopened := newStore(t, path)
	repo, err = storage.NewDocumentRepository(storage.DocumentRepositoryConfig{Store: reopened})
	require.NoError(t, err)

	got, err := repo.GetProgress(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressMap{"w1t1": {Status: model.TaskStatusSkipped, Notes: "later"}}, got.TaskProgress)
}
