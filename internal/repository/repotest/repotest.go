// Package repotest provides an in-memory SQLite database for tests.
package repotest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/internal/repository"
)

// DSN returns a unique shared-cache in-memory SQLite DSN with foreign keys on.
func DSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
}

// NewDB opens and migrates a fresh database that is closed when the test ends.
func NewDB(t testing.TB) *repository.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenSQLite(context.Background(), DSN(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))
	return db
}

// Logger discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
