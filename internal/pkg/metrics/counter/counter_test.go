package counter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

const isolatedCounterTestRedisDB = 12

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedCounterTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

// TestWebhookCounters tests increments and the snapshot read back.
func TestWebhookCounters(t *testing.T) {
	counters := NewWebhookCounters(newTestRedisClient(t))
	ctx := context.Background()

	require.NoError(t, counters.AddWebhookOutcome(ctx, "applied", "PAYMENT_RECEIVED"))
	require.NoError(t, counters.AddWebhookOutcome(ctx, "applied", "PAYMENT_CONFIRMED"))
	require.NoError(t, counters.AddWebhookOutcome(ctx, "duplicate", "PAYMENT_RECEIVED"))
	require.NoError(t, counters.AddWebhookOutcome(ctx, "rejected", ""))

	stats, err := counters.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"applied": 2, "duplicate": 1, "rejected": 1}, stats.Outcomes)
	assert.Equal(t, map[string]int64{"PAYMENT_RECEIVED": 2, "PAYMENT_CONFIRMED": 1}, stats.EventTypes)
}
