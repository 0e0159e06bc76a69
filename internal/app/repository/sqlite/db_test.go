package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/config"
)

func openTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	s := config.DatabaseSettings{Path: filepath.Join(t.TempDir(), "transcriptions.db"), MaxConnections: 2}
	store, err := Open(context.Background(), s, repository.SingleAttempt(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}))
	assert.True(t, IsDuplicate(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, IsDuplicate(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}))
	assert.False(t, IsDuplicate(errors.New("boom")))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, found, err := store.Get(ctx, "1100")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "1100", "https://discord.com/channels/1/2/3"))

	link, found, err := store.Get(ctx, "1100")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://discord.com/channels/1/2/3", link)
}

func TestSQLiteStore_UniqueMessageID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Put(ctx, "1100", "first"))
	err := store.Put(ctx, "1100", "second")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRecord)

	link, _, err := store.Get(ctx, "1100")
	require.NoError(t, err)
	assert.Equal(t, "first", link)
}

func TestSQLiteStore_Clean(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Put(ctx, "1", "a"))
	require.NoError(t, store.Put(ctx, "2", "b"))

	n, err := store.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, found, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStore_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	s := config.DatabaseSettings{Path: filepath.Join(t.TempDir(), "transcriptions.db"), MaxConnections: 1}

	store, err := Open(ctx, s, repository.SingleAttempt(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "1100", "link"))
	require.NoError(t, store.Close())

	store, err = Open(ctx, s, repository.SingleAttempt(), nil)
	require.NoError(t, err)
	defer store.Close()

	link, found, err := store.Get(ctx, "1100")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "link", link)
}
