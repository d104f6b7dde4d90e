package nonce

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/xwhep/authgate/internal/store"
)

const keyPrefix = "nonce:"

// Store records provider nonces that have already been consumed. Entries
// live until the expiry computed from the nonce's own timestamp plus the
// login timeout, after which the backend evicts them.
type Store struct {
	backend store.Store
	clock   clockwork.Clock
}

func NewStore(backend store.Store, clock clockwork.Clock) *Store {
	return &Store{
		backend: backend,
		clock:   clock,
	}
}

func (s *Store) Exists(ctx context.Context, nonce string) (bool, error) {
	return s.backend.Exists(ctx, keyPrefix+nonce)
}

// Put records a nonce unconditionally, overwriting any previous expiry. The
// admission protocol never reaches the overwrite case; it is kept for direct
// store maintenance only.
func (s *Store) Put(ctx context.Context, nonce string, expiresAt time.Time) error {
	return s.backend.Set(ctx, keyPrefix+nonce, s.value(expiresAt), s.ttl(expiresAt))
}

// PutIfAbsent records a nonce only if it has not been seen before. Of any
// number of concurrent calls for the same unseen nonce, exactly one returns
// true; this is what keeps check-then-admit race free.
func (s *Store) PutIfAbsent(ctx context.Context, nonce string, expiresAt time.Time) (bool, error) {
	return s.backend.SetIfAbsent(ctx, keyPrefix+nonce, s.value(expiresAt), s.ttl(expiresAt))
}

func (s *Store) value(expiresAt time.Time) []byte {
	return []byte(expiresAt.UTC().Format(time.RFC3339))
}

func (s *Store) ttl(expiresAt time.Time) time.Duration {
	return expiresAt.Sub(s.clock.Now())
}
