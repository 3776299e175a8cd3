// Package locks serializes listing transitions per listing id. A single
// listing record is the unit of consistency: two concurrent Accept calls, or
// a redistribution racing a sale, must not interleave on the same id.
package locks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned on release when the lock expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// releaseScript deletes the key only if the caller still owns it.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Store is a Redis-backed per-key mutex (SET NX PX + owner-checked release).
type Store struct {
	Rdb       *redis.Client
	TTL       time.Duration // lock expiry; guards against crashed holders
	RetryWait time.Duration
}

func New(rdb *redis.Client) *Store {
	return &Store{Rdb: rdb, TTL: 10 * time.Second, RetryWait: 25 * time.Millisecond}
}

// Acquire blocks until the key is locked or ctx is done. The returned release
// func is safe to call once; releasing an expired lock returns ErrNotHeld.
func (s *Store) Acquire(ctx context.Context, key string) (func() error, error) {
	owner := uuid.New().String()
	for {
		ok, err := s.Rdb.SetNX(ctx, key, owner, s.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.RetryWait):
		}
	}
	release := func() error {
		n, err := s.Rdb.Eval(context.Background(), releaseScript, []string{key}, owner).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, nil
}
