// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/groupexpenses/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// Options tunes the connection pool.
type Options struct {
	// MaxOpenConns bounds the pool. Checkouts block once it is exhausted.
	MaxOpenConns int
	// CheckoutTimeout bounds how long an operation waits for a connection.
	CheckoutTimeout time.Duration
}

// DefaultOptions are used for zero-valued fields of Options.
var DefaultOptions = Options{
	MaxOpenConns:    10,
	CheckoutTimeout: 5 * time.Second,
}

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements storage.Store using SQLite.
// A store returned by Atomic is bound to one transaction; the root store
// checks a connection out of the pool for every operation.
type SQLiteStore struct {
	db              *sql.DB
	tx              *sql.Tx
	checkoutTimeout time.Duration
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(ctx context.Context, dbPath string, opts Options) (*SQLiteStore, error) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = DefaultOptions.MaxOpenConns
	}
	if opts.CheckoutTimeout <= 0 {
		opts.CheckoutTimeout = DefaultOptions.CheckoutTimeout
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := filepath.Clean(dbPath) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, checkoutTimeout: opts.CheckoutTimeout}, nil
}

// Close closes the database connection pool.
func (s *SQLiteStore) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// Atomic runs fn inside a transaction on a single checked-out connection.
func (s *SQLiteStore) Atomic(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, tx: tx, checkoutTimeout: s.checkoutTimeout}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}
	return nil
}

// run executes fn on the open transaction, or on a connection checked out
// for the duration of the call.
func (s *SQLiteStore) run(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(conn)
}

// acquire checks a connection out of the pool, waiting at most the checkout
// timeout. The caller must Close it to release it back to the pool.
func (s *SQLiteStore) acquire(ctx context.Context) (*sql.Conn, error) {
	checkoutCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	conn, err := s.db.Conn(checkoutCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: connection checkout timed out after %v", storage.ErrUnavailable, s.checkoutTimeout)
		}
		return nil, fmt.Errorf("failed to check out connection: %w", err)
	}
	return conn, nil
}

// wrapErr annotates err, translating uniqueness violations to
// storage.ErrAlreadyExists.
func wrapErr(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// expectAffected turns an update or delete that touched no row into
// storage.ErrNotFound.
func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
