package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := New("s1", now)
	sess.Append(SpeakerUser, "hello", now)
	sess.Pending = &PendingRequest{
		Intent:  "add_bill",
		Known:   map[string]string{"name": "Electric"},
		Missing: []string{"amount"},
	}
	require.NoError(t, store.Put(ctx, sess))

	loaded, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.ID)
	require.Len(t, loaded.Turns, 1)
	assert.Equal(t, "hello", loaded.Turns[0].Text)
	require.NotNil(t, loaded.Pending)
	assert.Equal(t, []string{"amount"}, loaded.Pending.Missing)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, New("s1", now)))

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	first.Append(SpeakerUser, "mutated", now)

	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, second.Turns, "mutating a loaded session must not affect the store")
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, New("s1", time.Now())))
	require.NoError(t, store.Clear(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an unknown session is not an error
	assert.NoError(t, store.Clear(ctx, "s1"))
}

func TestSessionRecent(t *testing.T) {
	now := time.Now()
	sess := New("s1", now)
	for i := 0; i < 12; i++ {
		sess.Append(SpeakerUser, "msg", now)
	}

	assert.Len(t, sess.Recent(10), 10)
	assert.Len(t, sess.Recent(0), 12)
	assert.Len(t, sess.Recent(20), 12)
}

func TestLockerSerializesPerSession(t *testing.T) {
	locker := NewLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.Lock("s1")
			defer locker.Unlock("s1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
