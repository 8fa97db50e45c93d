package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := New("demo", map[string]string{"/App.jsx": "export default null;"})
	require.NoError(t, store.Create(ctx, p))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.Files, got.Files)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryStore_SaveFiles(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := New("demo", map[string]string{"/App.jsx": "v1"})
	require.NoError(t, store.Create(ctx, p))

	err := store.SaveFiles(ctx, p.ID, map[string]string{"/App.jsx": "v2"})
	require.NoError(t, err)

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "v2", got.Files["/App.jsx"])
	require.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestMemoryStore_SaveFilesNotFound(t *testing.T) {
	store := NewMemoryStore()

	err := store.SaveFiles(context.Background(), "missing", map[string]string{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryStore_ListOrderedByUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older := New("older", nil)
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	newer := New("newer", nil)
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))

	projects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "newer", projects[0].Name)

	// Listings omit file contents
	require.Nil(t, projects[0].Files)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := New("demo", nil)
	require.NoError(t, store.Create(ctx, p))
	require.NoError(t, store.Delete(ctx, p.ID))

	_, err := store.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	files := map[string]string{"/App.jsx": "v1"}
	p := New("demo", files)
	require.NoError(t, store.Create(ctx, p))

	// Mutating the caller's map must not leak into the store
	files["/App.jsx"] = "mutated"
	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "v1", got.Files["/App.jsx"])
}
