// Package lockx provides a Redis lease used to elect one worker among replicas.
package lockx

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotHeld = errors.New("lock not held")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

type Lock struct {
	Key   string
	Token string
	TTL   time.Duration
}

// Acquire tries once to take key for ttl. ok is false when another holder owns it.
func Acquire(ctx context.Context, client redis.Cmdable, key string, ttl time.Duration) (*Lock, bool, error) {
	if client == nil {
		return nil, false, errors.New("redis client not initialized")
	}
	if ttl <= 0 {
		return nil, false, errors.New("ttl must be > 0")
	}
	token := uuid.NewString()
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{Key: key, Token: token, TTL: ttl}, true, nil
}

// Refresh extends the lease if it is still ours.
func Refresh(ctx context.Context, client redis.Scripter, lock *Lock) error {
	if lock == nil {
		return ErrNotHeld
	}
	n, err := refreshScript.Run(ctx, client, []string{lock.Key}, lock.Token, lock.TTL.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func Release(ctx context.Context, client redis.Scripter, lock *Lock) error {
	if client == nil {
		return errors.New("redis client not initialized")
	}
	if lock == nil {
		return errors.New("lock is nil")
	}
	return releaseScript.Run(ctx, client, []string{lock.Key}, lock.Token).Err()
}
