package store

import (
	"context"
	"errors"
	"time"

	"github.com/xwhep/authgate/internal/config"
)

var ErrNotFound = errors.New("key not found")

// Store is a process-wide expiring key/value store. It backs both the nonce
// database and the provider-handshake sessions; production deployments point
// it at Redis, tests and single-node setups use the in-memory backend.
//
// SetIfAbsent must be atomic: of any number of concurrent calls for the same
// absent key, exactly one returns true.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis config is required for redis store type")
		}
		return NewRedisStore(*cfg.Redis)
	default:
		return nil, errors.New("unsupported store type: " + cfg.Type)
	}
}
