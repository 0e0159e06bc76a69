package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/repository"
)

func TestStore_Interface(t *testing.T) {
	var _ repository.ResultStore = (*Store)(nil)
	var _ repository.Cleaner = (*Store)(nil)
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	link, ok, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, link)

	require.NoError(t, s.Put(ctx, "1", "https://discord.com/channels/1/2/3"))
	link, ok, err = s.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://discord.com/channels/1/2/3", link)

	// last write wins
	require.NoError(t, s.Put(ctx, "1", "https://discord.com/channels/1/2/4"))
	link, _, _ = s.Get(ctx, "1")
	assert.Equal(t, "https://discord.com/channels/1/2/4", link)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clean(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, fmt.Sprint(i), "link"))
	}

	n, err := s.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(ctx, "1", "link"), apperrors.ErrStoreClosed)
	_, _, err := s.Get(ctx, "1")
	assert.ErrorIs(t, err, apperrors.ErrStoreClosed)
}

func TestStore_ConcurrentDistinctKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprint(i)
			assert.NoError(t, s.Put(ctx, id, "link-"+id))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	link, ok, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "link-42", link)
}
