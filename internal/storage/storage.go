// Package storage owns the database connection pool shared by every request
// handler, the schema bootstrap, and the transaction helper used for writes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 5 * time.Second

// Config holds connection pool settings
type Config struct {
	Driver          string
	DSN             string
	RequireTLS      bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the process-wide storage handle. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	driver  string
	secrets []string
	log     *logrus.Logger
}

// Open opens the pool and verifies connectivity with a ping.
func Open(cfg Config, log *logrus.Logger) (*Store, error) {
	dsn, secrets, err := prepareDSN(cfg.Driver, cfg.DSN, cfg.RequireTLS)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Store{db: db, driver: cfg.Driver, secrets: secrets, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %s", s.redact(err.Error()))
	}
	return s, nil
}

// DB returns the underlying pool
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the database/sql driver name the pool was opened with
func (s *Store) Driver() string { return s.driver }

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases every pooled connection
func (s *Store) Close() error {
	return s.db.Close()
}

// QueryContext runs a read outside any transaction. The caller must close the rows.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.logQuery(query, args, time.Since(start), err)
	return rows, err
}

// ExecContext runs a statement outside any transaction
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, query, args...)
	s.logQuery(query, args, time.Since(start), err)
	return res, err
}

// Tx is a write transaction opened by WithTx
type Tx struct {
	tx    *sql.Tx
	store *Store
}

// ExecContext runs a statement inside the transaction
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.store.logQuery(query, args, time.Since(start), err)
	return res, err
}

// ScanRow runs a single-row query inside the transaction and scans it into
// dest. sql.ErrNoRows is returned as is.
func (t *Tx) ScanRow(ctx context.Context, query string, args []any, dest ...any) error {
	start := time.Now()
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(dest...)
	logErr := err
	if errors.Is(err, sql.ErrNoRows) {
		logErr = nil
	}
	t.store.logQuery(query, args, time.Since(start), logErr)
	return err
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics. Errors from
// fn are returned unchanged; begin and commit failures come back as
// *StorageError.
func (s *Store) WithTx(ctx context.Context, op string, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.Wrap(op, err)
	}
	tx := &Tx{tx: sqlTx, store: s}

	defer func() {
		if p := recover(); p != nil {
			s.rollback(op, sqlTx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		s.rollback(op, sqlTx)
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return s.Wrap(op, err)
	}
	return nil
}

func (s *Store) rollback(op string, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Errorf("Failed to roll back %s: %s", op, s.redact(err.Error()))
	}
}

func (s *Store) logQuery(query string, args []any, d time.Duration, err error) {
	if !s.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	entry := s.log.WithFields(logrus.Fields{
		"query":    strings.Join(strings.Fields(query), " "),
		"args":     args,
		"duration": d.String(),
	})
	if err != nil {
		entry.WithField("error", s.redact(err.Error())).Debug("sql statement failed")
		return
	}
	entry.Debug("sql statement")
}
