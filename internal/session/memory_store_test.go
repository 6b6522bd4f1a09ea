package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/secrets/internal/session"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	// Arrange
	store, err := session.NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	now := time.Now().UTC()
	rec := session.Record{
		Principal: session.Principal{ID: uuid.New(), Username: "alice", Picture: "https://example.test/a.png"},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	// Act
	require.NoError(t, store.Save(ctx, "abc", rec))
	got, err := store.Get(ctx, "abc")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, rec.Principal, got.Principal)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStore_DeleteUnknownIsNoop(t *testing.T) {
	store, err := session.NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.NoError(t, store.Delete(context.Background(), "missing"))
}

func TestMemoryStore_UnknownID(t *testing.T) {
	store, err := session.NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
