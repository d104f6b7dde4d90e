package store

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	entries map[string]*entry
	mu      sync.RWMutex
	stopCh  chan struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}

	go ms.sweepExpired()

	return ms
}

func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}

	valueCopy := make([]byte, len(e.value))
	copy(valueCopy, e.value)
	return valueCopy, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.put(key, value, ttl)
	return nil
}

func (ms *MemoryStore) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if e, ok := ms.entries[key]; ok && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	ms.put(key, value, ttl)
	return true, nil
}

// put assumes ms.mu is held for writing.
func (ms *MemoryStore) put(key string, value []byte, ttl time.Duration) {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	ms.entries[key] = &entry{
		value:     valueCopy,
		expiresAt: time.Now().Add(ttl),
	}
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return false, nil
	}

	return true, nil
}

func (ms *MemoryStore) Close() error {
	close(ms.stopCh)
	return nil
}

func (ms *MemoryStore) sweepExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.sweep()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStore) sweep() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, e := range ms.entries {
		if now.After(e.expiresAt) {
			delete(ms.entries, key)
		}
	}
}
