package storage

import (
	"context"
	"fmt"
	"time"

	"playout-engine/internal/config"

	_ "github.com/lib/pq"
)

const PostgresDriver = "postgres"

func NewPostgresProvider(cfg *config.Storage) (*SQLProvider, error) {
	provider, err := openSQLProvider(PostgresDriver, cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.MaxConns > 0 {
		provider.db.SetMaxOpenConns(cfg.Postgres.MaxConns)
	}
	if cfg.Postgres.MaxIdle > 0 {
		provider.db.SetMaxIdleConns(cfg.Postgres.MaxIdle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := provider.db.PingContext(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return provider, nil
}
