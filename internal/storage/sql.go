package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

type SQLProvider struct {
	db     *sqlx.DB
	driver string

	logger *slog.Logger
}

// NewSQLProvider wraps an already opened database handle. driverName selects
// the placeholder style and the migration set.
func NewSQLProvider(db *sql.DB, driverName string) *SQLProvider {
	return &SQLProvider{
		db:     sqlx.NewDb(db, driverName),
		driver: driverName,
		logger: slog.With("component", "storage", "driver", driverName),
	}
}

func openSQLProvider(driverName string, dataSource string) (*SQLProvider, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLProvider{
		db:     db,
		driver: driverName,
		logger: slog.With("component", "storage", "driver", driverName),
	}, nil
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) Driver() string {
	return p.driver
}

func (p *SQLProvider) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *SQLProvider) CreateNonce(ctx context.Context, nonce string, expiresAt time.Time) error {
	query := p.db.Rebind(`INSERT INTO nonces (nonce, expires_at) VALUES (?, ?)`)
	if _, err := p.db.ExecContext(ctx, query, nonce, expiresAt.UTC()); err != nil {
		return fmt.Errorf("create nonce: %w", err)
	}
	return nil
}

func (p *SQLProvider) ExistsNonce(ctx context.Context, nonce string) (bool, error) {
	var count int
	query := p.db.Rebind(`SELECT COUNT(*) FROM nonces WHERE nonce = ? AND expires_at > ?`)
	if err := p.db.GetContext(ctx, &count, query, nonce, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("check nonce: %w", err)
	}
	return count > 0, nil
}

// ConsumeNonce deletes an unexpired nonce. It reports whether a nonce was deleted.
func (p *SQLProvider) ConsumeNonce(ctx context.Context, nonce string) (bool, error) {
	query := p.db.Rebind(`DELETE FROM nonces WHERE nonce = ? AND expires_at > ?`)
	res, err := p.db.ExecContext(ctx, query, nonce, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return n == 1, nil
}

func (p *SQLProvider) ExpireNonces(ctx context.Context, now time.Time) error {
	query := p.db.Rebind(`DELETE FROM nonces WHERE expires_at <= ?`)
	if _, err := p.db.ExecContext(ctx, query, now.UTC()); err != nil {
		return fmt.Errorf("expire nonces: %w", err)
	}
	return nil
}

// sqlTx implements Tx on top of a sqlx transaction.
type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) get(ctx context.Context, dest any, query string, args ...any) error {
	err := t.tx.GetContext(ctx, dest, t.tx.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (t *sqlTx) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return t.tx.SelectContext(ctx, dest, t.tx.Rebind(query), args...)
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
}

// execOne runs a statement that must touch exactly one row.
func (t *sqlTx) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
