package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/app/repository/sqlite"
	"vm-transcriber/internal/config"
)

// SetupTestSQLite opens a durable store backed by a temporary sqlite file.
// The store is closed when the test ends.
func SetupTestSQLite(t *testing.T) *repository.SQLStore {
	t.Helper()

	settings := config.DatabaseSettings{
		Enabled:        true,
		Driver:         sqlite.DriverName,
		Path:           filepath.Join(t.TempDir(), "transcriptions.db"),
		MaxConnections: 4,
	}
	store, err := sqlite.Open(context.Background(), settings, repository.SingleAttempt(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})
	return store
}
