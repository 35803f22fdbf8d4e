package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation
	ErrDuplicate = errors.New("duplicate record")
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Queries runs every repository query against either the pool or a transaction
type Queries struct {
	db dbtx
}

// Store is the Postgres implementation of Repository
type Store struct {
	*Queries
	db *sqlx.DB
}

// Options tunes the connection pool
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// NewStore creates a new database store
func NewStore(databaseURL string, opts Options) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection
func New(db *sqlx.DB) *Store {
	return &Store{Queries: &Queries{db: db}, db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunInTx runs fn inside one transaction; any error from fn rolls everything back
func (s *Store) RunInTx(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// get runs a single-row query, translating sql.ErrNoRows
func (q *Queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := q.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// exec runs a write that must touch at least one row when mustAffect is set
func (q *Queries) exec(ctx context.Context, mustAffect bool, query string, args ...interface{}) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if !mustAffect {
		return nil
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

const uniqueViolation = "23505"

// translate maps driver errors onto store errors
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
