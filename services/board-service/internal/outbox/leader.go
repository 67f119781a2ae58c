package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/md-rashed-zaman/boardhub/libs/lockx"
	"github.com/redis/go-redis/v9"
)

// LeaseLeader keeps a Redis lease so only one replica relays at a time.
type LeaseLeader struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu   sync.Mutex
	held *lockx.Lock
}

func NewLeaseLeader(client *redis.Client, key string, ttl time.Duration) *LeaseLeader {
	return &LeaseLeader{client: client, key: key, ttl: ttl}
}

func (l *LeaseLeader) Lead(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held != nil {
		err := lockx.Refresh(ctx, l.client, l.held)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, lockx.ErrNotHeld) {
			return false, err
		}
		l.held = nil
	}

	lock, ok, err := lockx.Acquire(ctx, l.client, l.key, l.ttl)
	if err != nil || !ok {
		return false, err
	}
	l.held = lock
	return true, nil
}

// Release gives the lease up so another replica can take over immediately.
func (l *LeaseLeader) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		return nil
	}
	err := lockx.Release(ctx, l.client, l.held)
	l.held = nil
	return err
}
