// Package nonce keeps the single-use identifiers carried by pairing tokens.
// A nonce is valid until it expires or is consumed, whichever happens first.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"playout-engine/internal/config"
	"playout-engine/internal/storage"
)

var (
	ErrUnknown = errors.New("nonce unknown or already consumed")
	ErrExpired = errors.New("nonce expired")
)

// Store is a nonce backend. The server and the operator CLI must share one
// for pairing tokens issued by the CLI to be accepted.
type Store interface {
	Put(ctx context.Context, nonce string, expiresAt time.Time) error
	// Consume removes the nonce. It fails with ErrUnknown or ErrExpired when
	// the nonce cannot be used.
	Consume(ctx context.Context, nonce string) error
	Exists(ctx context.Context, nonce string) (bool, error)
	Close() error
}

// expirer is implemented by backends that do not drop expired nonces on their own.
type expirer interface {
	Expire(ctx context.Context, now time.Time) error
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQL    Backend = "sql"
	BackendRedis  Backend = "redis"
)

// Default is the process-wide store set by Init.
var Default Store

// 128 bits of randomness.
const tokenBytes = 16

const sweepInterval = time.Minute

// New creates a nonce valid for ttl and stores it in Default.
func New(ctx context.Context, ttl time.Duration) (string, error) {
	if Default == nil {
		return "", errors.New("nonce store not initialized")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("invalid nonce ttl %s", ttl)
	}

	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(b)

	if err := Default.Put(ctx, value, time.Now().Add(ttl)); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}
	return value, nil
}

// Open builds the backend named by cfg.NonceStore.
func Open(cfg *config.Config, provider storage.Provider) (Store, error) {
	switch Backend(cfg.NonceStore) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQL:
		if provider == nil {
			return nil, errors.New("sql nonce store requires a storage provider")
		}
		return NewSQLStore(provider), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown nonce store %q", cfg.NonceStore)
	}
}

// Init opens the configured backend, starts a sweeper for backends that need
// one and installs the result as Default.
func Init(cfg *config.Config, provider storage.Provider) error {
	store, err := Open(cfg, provider)
	if err != nil {
		return fmt.Errorf("failed to initialize nonce store: %w", err)
	}
	if e, ok := store.(expirer); ok {
		store = withSweeper(store, e, sweepInterval)
	}
	Default = store

	slog.Info("Initialized nonce store", "backend", cfg.NonceStore)
	return nil
}

// swept runs periodic expiry for the wrapped store until Close.
type swept struct {
	Store
	cancel context.CancelFunc
	done   chan struct{}
}

func withSweeper(store Store, e expirer, interval time.Duration) *swept {
	ctx, cancel := context.WithCancel(context.Background())
	s := &swept{Store: store, cancel: cancel, done: make(chan struct{})}
	logger := slog.With("component", "nonce-sweeper")

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if err := e.Expire(ctx, now); err != nil && ctx.Err() == nil {
					logger.Error("Failed to expire nonces", "error", err)
				}
			}
		}
	}()
	return s
}

func (s *swept) Close() error {
	s.cancel()
	<-s.done
	return s.Store.Close()
}
