package nonce

import (
	"context"
	"time"

	"playout-engine/internal/storage"
)

// SQLStore keeps nonces in the nonces table of the main database. The
// provider stays owned by the caller.
type SQLStore struct {
	provider storage.Provider
}

func NewSQLStore(provider storage.Provider) *SQLStore {
	return &SQLStore{provider: provider}
}

func (s *SQLStore) Put(ctx context.Context, nonce string, expiresAt time.Time) error {
	return s.provider.CreateNonce(ctx, nonce, expiresAt)
}

// Consume cannot tell an expired row from a missing one; both report ErrUnknown.
func (s *SQLStore) Consume(ctx context.Context, nonce string) error {
	deleted, err := s.provider.ConsumeNonce(ctx, nonce)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUnknown
	}
	return nil
}

func (s *SQLStore) Exists(ctx context.Context, nonce string) (bool, error) {
	return s.provider.ExistsNonce(ctx, nonce)
}

func (s *SQLStore) Expire(ctx context.Context, now time.Time) error {
	return s.provider.ExpireNonces(ctx, now)
}

func (s *SQLStore) Close() error { return nil }
