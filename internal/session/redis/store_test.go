package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/session"
	"github.com/dmehra2102/storefront/pkg/logging"
)

const lease = 300 * time.Millisecond

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLocker(logging.Discard(), rdb, 50*time.Millisecond, WithLease(lease)), mr
}

func TestLockLeaseIsRenewedWhileHeld(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	held, unlock, err := l.Lock(ctx, "s1")
	require.NoError(t, err)

	// Each step is shorter than the lease, and renewal runs every lease/3,
	// so in total the holder outlives the lease several times over.
	for range 8 {
		mr.FastForward(lease / 4)
		time.Sleep(lease / 2)
	}
	require.True(t, mr.Exists(lockKey("s1")))
	require.NoError(t, held.Err())

	_, _, err = l.Lock(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrBusy, "a second checkout must not get in while the first holds the lock")

	unlock()
	assert.ErrorIs(t, held.Err(), context.Canceled)
	assert.False(t, mr.Exists(lockKey("s1")))

	_, unlock2, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	unlock2()
}

func TestLostLeaseCancelsHeldContext(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()

	held, unlock, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	defer unlock()

	mr.FastForward(lease + time.Second)
	require.False(t, mr.Exists(lockKey("s1")))

	select {
	case <-held.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("held context survived an expired lease")
	}

	// The new holder's lock is not released by the stale holder.
	_, unlock2, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	defer unlock2()
	unlock()
	assert.True(t, mr.Exists(lockKey("s1")))
}

func TestStoreSetRefreshesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewStore(logging.Discard(), rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "s1", "cart", []byte(`{"1":{"quantity":1}}`)))
	mr.FastForward(50 * time.Minute)
	require.NoError(t, s.Touch(ctx, "s1"))
	assert.Equal(t, time.Hour, mr.TTL(hashKey("s1")))

	v, ok, err := s.Get(ctx, "s1", "cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"1":{"quantity":1}}`, string(v))

	require.NoError(t, s.Clear(ctx, "s1", "cart"))
	_, ok, err = s.Get(ctx, "s1", "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}
