package storage

import (
	"context"
	"fmt"
)

var schema = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS users (
			id    SERIAL PRIMARY KEY,
			name  TEXT NOT NULL,
			email TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_users_id ON users (id)`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS users (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT NOT NULL,
			email TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_users_id ON users (id)`,
	},
}

// EnsureSchema creates the users table when it does not exist yet.
// Running it against an already bootstrapped database is a no-op.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts, ok := schema[s.driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", s.driver)
	}
	for _, stmt := range stmts {
		if _, err := s.ExecContext(ctx, stmt); err != nil {
			return s.Wrap("ensure schema", err)
		}
	}
	s.log.Debugf("Schema ready for driver %s", s.driver)
	return nil
}
