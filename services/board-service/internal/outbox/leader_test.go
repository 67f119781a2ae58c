package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseLeaderSingleHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	a := NewLeaseLeader(rdb, "outbox-relay", 5*time.Second)
	b := NewLeaseLeader(rdb, "outbox-relay", 5*time.Second)

	lead, err := a.Lead(ctx)
	require.NoError(t, err)
	assert.True(t, lead)

	lead, err = b.Lead(ctx)
	require.NoError(t, err)
	assert.False(t, lead)

	lead, err = a.Lead(ctx)
	require.NoError(t, err)
	assert.True(t, lead, "holder keeps the lease on refresh")

	require.NoError(t, a.Release(ctx))
	lead, err = b.Lead(ctx)
	require.NoError(t, err)
	assert.True(t, lead)
}
