// Package storagetest opens throwaway in-memory stores for tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Dan9191/user-service/internal/storage"
)

// New returns a bootstrapped in-memory SQLite store that is closed when the
// test ends, along with the hook capturing its log output.
func New(t testing.TB) (*storage.Store, *test.Hook) {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	// One connection: every pooled connection to :memory: is its own database.
	s, err := storage.Open(storage.Config{
		Driver:       "sqlite3",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, log)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("bootstrap test store: %v", err)
	}
	return s, hook
}
