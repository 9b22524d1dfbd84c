package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mnemo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetMemoryAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Pain"))
	require.NoError(t, store.SetMemory(ctx, "u1", "city", "Pune"))
	require.NoError(t, store.SetMemory(ctx, "u1", "color", "blue"))

	entries, err := store.Memories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []Entry{
		{Key: "name", Value: "Pain"},
		{Key: "city", Value: "Pune"},
		{Key: "color", Value: "blue"},
	}, entries)
}

func TestSetMemoryOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Pain"))
	require.NoError(t, store.SetMemory(ctx, "u1", "city", "Pune"))
	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Madara"))

	entries, err := store.Memories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2, "overwrite must not add a row")

	// Overwriting keeps the original position.
	assert.Equal(t, Entry{Key: "name", Value: "Madara"}, entries[0])
	assert.Equal(t, Entry{Key: "city", Value: "Pune"}, entries[1])
}

func TestDeleteMemory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Pain"))

	found, err := store.DeleteMemory(ctx, "u1", "name")
	require.NoError(t, err)
	assert.True(t, found)

	entries, err := store.Memories(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	found, err = store.DeleteMemory(ctx, "u1", "name")
	require.NoError(t, err)
	assert.False(t, found, "second delete must report the key as absent")
}

func TestMemoriesEmpty(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.Memories(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestMemoriesUserIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Pain"))
	require.NoError(t, store.SetMemory(ctx, "u2", "name", "Konan"))

	entries, err := store.Memories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Pain", entries[0].Value)

	found, err := store.DeleteMemory(ctx, "u1", "name")
	require.NoError(t, err)
	assert.True(t, found)

	entries, err = store.Memories(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, entries, 1, "deleting u1's key must not touch u2")
}

func TestGroupModeDefault(t *testing.T) {
	store := newTestStore(t)

	mode, err := store.GroupMode(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultGroupMode, mode)
}

func TestSetGroupMode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetGroupMode(ctx, "chat-1", "always"))

	mode, err := store.GroupMode(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "always", mode)

	require.NoError(t, store.SetGroupMode(ctx, "chat-1", "mention"))

	mode, err = store.GroupMode(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "mention", mode)

	// Other chats keep their default.
	mode, err = store.GroupMode(ctx, "chat-2")
	require.NoError(t, err)
	assert.Equal(t, DefaultGroupMode, mode)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMemory(ctx, "u1", "name", "Pain"))
	require.NoError(t, store.SetMemory(ctx, "u1", "city", "Pune"))
	require.NoError(t, store.SetMemory(ctx, "u2", "name", "Konan"))
	require.NoError(t, store.SetGroupMode(ctx, "chat-1", "always"))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Memories)
	assert.Equal(t, 1, st.GroupModes)
}

func TestPingAndMaintain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Maintain(ctx))
}
