package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLockStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb), mr
}

func TestAcquireAndRelease(t *testing.T) {
	s, mr := setupLockStore(t)
	release, err := s.Acquire(context.Background(), "antiquity:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("antiquity:1"))
	require.NoError(t, release())
	assert.False(t, mr.Exists("antiquity:1"))
}

func TestAcquireBlocksUntilReleased(t *testing.T) {
	s, _ := setupLockStore(t)
	release, err := s.Acquire(context.Background(), "antiquity:2")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(ctx, "antiquity:2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release())
	release2, err := s.Acquire(context.Background(), "antiquity:2")
	require.NoError(t, err)
	require.NoError(t, release2())
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	s, _ := setupLockStore(t)
	r1, err := s.Acquire(context.Background(), "antiquity:3")
	require.NoError(t, err)
	r2, err := s.Acquire(context.Background(), "antiquity:4")
	require.NoError(t, err)
	require.NoError(t, r1())
	require.NoError(t, r2())
}

func TestReleaseAfterExpiry(t *testing.T) {
	s, mr := setupLockStore(t)
	s.TTL = 50 * time.Millisecond
	release, err := s.Acquire(context.Background(), "antiquity:5")
	require.NoError(t, err)
	mr.FastForward(time.Second)
	assert.ErrorIs(t, release(), ErrNotHeld)
}
