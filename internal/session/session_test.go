package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xwhep/authgate/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	backend := store.NewMemoryStore()
	t.Cleanup(func() { backend.Close() })
	return NewStore(backend, 10*time.Minute)
}

func TestHandshakeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hs := &Handshake{
		ID:         "hs-1",
		ProviderID: "acme",
		Secret:     []byte{0x01, 0x02, 0x03},
		Alias:      "acme",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, s.Save(ctx, hs))

	loaded, err := s.Load(ctx, "hs-1")
	require.NoError(t, err)
	assert.Equal(t, hs.ProviderID, loaded.ProviderID)
	assert.Equal(t, hs.Secret, loaded.Secret)
	assert.Equal(t, hs.Alias, loaded.Alias)
	assert.True(t, hs.CreatedAt.Equal(loaded.CreatedAt))
}

func TestLoadMissingHandshake(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteHandshake(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &Handshake{ID: "hs-1", ProviderID: "acme"}))
	require.NoError(t, s.Delete(ctx, "hs-1"))

	_, err := s.Load(ctx, "hs-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
