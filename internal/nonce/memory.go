package nonce

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local store. It suits a single server process;
// tokens issued by a separate CLI process are invisible to it.
type MemoryStore struct {
	mu     sync.Mutex
	expiry map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expiry: make(map[string]time.Time)}
}

func (m *MemoryStore) Put(_ context.Context, nonce string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[nonce] = expiresAt
	return nil
}

func (m *MemoryStore) Consume(_ context.Context, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.expiry[nonce]
	if !ok {
		return ErrUnknown
	}
	delete(m.expiry, nonce)
	if !time.Now().Before(expiresAt) {
		return ErrExpired
	}
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, nonce string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.expiry[nonce]
	return ok && time.Now().Before(expiresAt), nil
}

func (m *MemoryStore) Expire(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for nonce, expiresAt := range m.expiry {
		if !now.Before(expiresAt) {
			delete(m.expiry, nonce)
		}
	}
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.expiry)
}

func (m *MemoryStore) Close() error { return nil }
