package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodie/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCartStoreGetEmpty(t *testing.T) {
	store := NewMemoryCartStore(time.Hour)
	cart, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", cart.SessionID)
	assert.True(t, cart.IsEmpty())
}

func TestMemoryCartStoreSerialisesUpdates(t *testing.T) {
	store := NewMemoryCartStore(time.Hour)
	ctx := context.Background()
	pizza := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "s1", func(c *model.Cart) error {
				return c.Add(pizza, "Pizza", decimal.NewFromInt(10), 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items(), 1)
	assert.Equal(t, 50, cart.ItemCount())
}

func TestMemoryCartStoreFailedUpdateLeavesCartIntact(t *testing.T) {
	store := NewMemoryCartStore(time.Hour)
	ctx := context.Background()
	_, err := store.Update(ctx, "s1", func(c *model.Cart) error {
		return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 2)
	})
	require.NoError(t, err)

	_, err = store.Update(ctx, "s1", func(c *model.Cart) error {
		c.Clear()
		return model.ErrInvalidQuantity
	})
	require.ErrorIs(t, err, model.ErrInvalidQuantity)

	cart, _ := store.Get(ctx, "s1")
	assert.Equal(t, 2, cart.ItemCount())
}

func TestMemoryCartStoreExpiry(t *testing.T) {
	s := NewMemoryCartStore(time.Minute).(*memoryCartStore)
	clock := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := s.Update(ctx, "s1", func(c *model.Cart) error {
		return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
	})
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	cart, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestMemoryCartStoreDelete(t *testing.T) {
	store := NewMemoryCartStore(time.Hour)
	ctx := context.Background()
	_, err := store.Update(ctx, "s1", func(c *model.Cart) error {
		return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "s1"))
	cart, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestMemoryCartStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryCartStore(time.Hour)
	ctx := context.Background()
	_, err := store.Update(ctx, "s1", func(c *model.Cart) error {
		return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
	})
	require.NoError(t, err)

	cart, _ := store.Get(ctx, "s1")
	cart.Clear()

	again, _ := store.Get(ctx, "s1")
	assert.Equal(t, 1, again.ItemCount())
}

func TestMemoryCartStoreSweepDropsExpiredSessions(t *testing.T) {
	s := NewMemoryCartStore(time.Minute).(*memoryCartStore)
	clock := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := s.Update(ctx, fmt.Sprintf("s%d", i), func(c *model.Cart) error {
			return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
		})
		require.NoError(t, err)
	}
	s.sweep()
	assert.Len(t, s.sessions, 100)

	clock = clock.Add(2 * time.Minute)
	s.sweep()
	assert.Empty(t, s.sessions)
}

func TestMemoryCartStoreSweepDropsDeletedSessions(t *testing.T) {
	s := NewMemoryCartStore(time.Hour).(*memoryCartStore)
	ctx := context.Background()
	for _, id := range []string{"keep", "gone"} {
		_, err := s.Update(ctx, id, func(c *model.Cart) error {
			return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
		})
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete(ctx, "gone"))

	s.sweep()
	assert.Len(t, s.sessions, 1)
	assert.Contains(t, s.sessions, "keep")
}

func TestMemoryCartStoreAnonymousReadsDoNotAccumulate(t *testing.T) {
	s := NewMemoryCartStore(time.Millisecond).(*memoryCartStore)
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		_, err := s.Get(ctx, uuid.NewString())
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, len(s.sessions), memorySweepEvery)

	_, err := s.Update(ctx, "live", func(c *model.Cart) error {
		return c.Add(uuid.New(), "Agua", decimal.NewFromInt(1), 1)
	})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	s.sweep()
	assert.Empty(t, s.sessions)
}

func TestMemoryCartStoreSweepSkipsPinnedEntries(t *testing.T) {
	s := NewMemoryCartStore(time.Hour).(*memoryCartStore)
	ctx := context.Background()

	e := s.acquire("busy")
	s.sweep()
	assert.Contains(t, s.sessions, "busy")

	e.mu.Lock()
	e.cart = model.NewCart("busy")
	e.expires = time.Now().Add(time.Hour)
	e.mu.Unlock()
	s.release(e)

	cart, err := s.Get(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, "busy", cart.SessionID)
	s.sweep()
	assert.Contains(t, s.sessions, "busy")
}
