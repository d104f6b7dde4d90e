package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xwhep/authgate/internal/store"
)

var ErrNotFound = errors.New("handshake not found")

const keyPrefix = "handshake:"

// Handshake is the per-login state established when redirecting to an
// identity provider and consumed when its response comes back: the shared
// secret and the alias identifying the provider endpoint.
type Handshake struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Secret     []byte    `json:"secret"`
	Alias      string    `json:"alias"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps pending handshakes in the shared expiring store.
type Store struct {
	backend store.Store
	ttl     time.Duration
}

func NewStore(backend store.Store, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
	}
}

func (s *Store) Save(ctx context.Context, hs *Handshake) error {
	data, err := json.Marshal(hs)
	if err != nil {
		return fmt.Errorf("failed to marshal handshake: %w", err)
	}

	return s.backend.Set(ctx, keyPrefix+hs.ID, data, s.ttl)
}

func (s *Store) Load(ctx context.Context, id string) (*Handshake, error) {
	data, err := s.backend.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var hs Handshake
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handshake: %w", err)
	}

	return &hs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, keyPrefix+id)
}
