package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDraftGuard_Reserve(t *testing.T) {
	guard := NewInMemoryDraftGuard(time.Minute)
	ctx := context.Background()
	flatID := uuid.New()

	t.Run("first reservation wins", func(t *testing.T) {
		ok, err := guard.Reserve(ctx, flatID, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second reservation for same slot loses", func(t *testing.T) {
		ok, err := guard.Reserve(ctx, flatID, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different milestone is independent", func(t *testing.T) {
		ok, err := guard.Reserve(ctx, flatID, 2)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("different flat is independent", func(t *testing.T) {
		ok, err := guard.Reserve(ctx, uuid.New(), 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryDraftGuard_Release(t *testing.T) {
	guard := NewInMemoryDraftGuard(time.Minute)
	ctx := context.Background()
	flatID := uuid.New()

	ok, err := guard.Reserve(ctx, flatID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, flatID, 1))

	ok, err = guard.Reserve(ctx, flatID, 1)
	require.NoError(t, err)
	assert.True(t, ok, "released slot should be reservable again")
}

func TestInMemoryDraftGuard_Expiry(t *testing.T) {
	guard := NewInMemoryDraftGuard(10 * time.Millisecond)
	ctx := context.Background()
	flatID := uuid.New()

	ok, err := guard.Reserve(ctx, flatID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = guard.Reserve(ctx, flatID, 1)
	require.NoError(t, err)
	assert.True(t, ok, "expired reservation should not block")
}

func TestInMemoryDraftGuard_Concurrent(t *testing.T) {
	guard := NewInMemoryDraftGuard(time.Minute)
	ctx := context.Background()
	flatID := uuid.New()

	const workers = 16
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			ok, _ := guard.Reserve(ctx, flatID, 5)
			wins <- ok
		}()
	}

	won := 0
	for i := 0; i < workers; i++ {
		if <-wins {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent caller should win the slot")
}
