package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/pkg/circuitbreaker"
)

// testCache is nil when Docker is unavailable or -short is set.
var testCache *Cache

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("docker unavailable, skipping redis integration tests: %s\n", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		fmt.Printf("Could not start resource: %s\n", err)
		os.Exit(1)
	}

	pool.MaxWait = 60 * time.Second

	if err := pool.Retry(func() error {
		client := goredis.NewClient(&goredis.Options{Addr: "localhost:" + resource.GetPort("6379/tcp")})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return err
		}
		testCache = NewCacheFromClient(client)
		return nil
	}); err != nil {
		fmt.Printf("Could not connect to redis: %s\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = testCache.Close()
	if err := pool.Purge(resource); err != nil {
		fmt.Printf("Could not purge resource: %s\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func requireRedis(t *testing.T) {
	t.Helper()
	if testCache == nil {
		t.Skip("redis integration tests need Docker")
	}
}

type cachedList struct {
	Items []string `json:"items"`
}

func TestSuggestionCache_RoundTrip(t *testing.T) {
	requireRedis(t)
	ctx := context.Background()
	c := NewSuggestionCache(testCache, time.Minute)

	var got cachedList
	gen, hit, err := c.Load(ctx, "m-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Store(ctx, gen, "m-1", cachedList{Items: []string{"a", "b"}}))

	_, hit, err = c.Load(ctx, "m-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.Items)
}

func TestSuggestionCache_EventInvalidates(t *testing.T) {
	requireRedis(t)
	ctx := context.Background()
	c := NewSuggestionCache(testCache, time.Minute)

	var got cachedList
	gen, _, err := c.Load(ctx, "m-2", &got)
	require.NoError(t, err)
	require.NoError(t, c.Store(ctx, gen, "m-2", cachedList{Items: []string{"x"}}))

	ev := shared.NewCollaborationEvent(shared.EventCollaborationAccepted, "r", "card", 1, "m-2", "m-3")
	require.NoError(t, c.OnCollaborationEvent(ctx, ev))

	next, hit, err := c.Load(ctx, "m-2", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Greater(t, next, gen)
}

func TestSuggestionCache_StaleGenerationNotServed(t *testing.T) {
	requireRedis(t)
	ctx := context.Background()
	c := NewSuggestionCache(testCache, time.Minute)

	var got cachedList
	gen, _, err := c.Load(ctx, "m-4", &got)
	require.NoError(t, err)

	// An invalidation lands while the list is being computed.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Store(ctx, gen, "m-4", cachedList{Items: []string{"stale"}}))

	_, hit, err := c.Load(ctx, "m-4", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSuggestionCache_BreakerSkipsUnreachableRedis(t *testing.T) {
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cb := circuitbreaker.New("suggestion-cache",
		circuitbreaker.WithFailureThreshold(2),
		circuitbreaker.WithCooldown(time.Hour),
	)
	c := NewSuggestionCache(NewCacheFromClient(client), time.Minute).WithBreaker(cb)

	var got cachedList
	for i := 0; i < 2; i++ {
		_, hit, err := c.Load(ctx, "m-5", &got)
		require.Error(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, _, err := c.Load(ctx, "m-5", &got)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.ErrorIs(t, c.Store(ctx, 0, "m-5", got), circuitbreaker.ErrOpen)
}
