package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the user_version that schema.sql stamps.
const schemaVersion = 1

// DefaultBusyTimeout is how long a unit of work waits for another
// process to release the write lock.
const DefaultBusyTimeout = 5 * time.Second

// Store is the SQLite storage runtime.
//
// Every unit of work opens with BEGIN IMMEDIATE, so the write lock is
// taken before the first read. Two processes creating the same profile
// queue on that lock; the second then sees the occupied slot.
type Store struct {
	db *sql.DB
}

type options struct {
	busyTimeout time.Duration
}

// Option configures Open.
type Option func(*options)

// WithBusyTimeout sets how long a unit of work waits for the write lock
// before failing with "database is locked".
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", dsn(path, o))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Units of work in this process queue on the single connection.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// dsn carries the connection settings so go-sqlite3 applies them to every
// connection it opens.
func dsn(path string, o options) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", strconv.FormatInt(o.busyTimeout.Milliseconds(), 10))
	return path + "?" + q.Encode()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema v%d is newer than supported v%d", version, schemaVersion)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
