// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/personapi/internal/platform/sec"
	"github.com/taibuivan/personapi/internal/users/auth"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*auth.RedisIdentityCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return auth.NewRedisIdentityCache(client, ttl), server
}

/*
TestService_LoadIdentity verifies authorities come from the principal's roles and unknown users resolve to nil.
*/
func TestService_LoadIdentity(t *testing.T) {
	h := newHarness(t)
	h.signup(t, auth.SignupInput{Username: "raj", Email: "raj@x.com", Password: "pw123", Roles: []string{"USER", "EDITOR"}})

	identity, err := h.service.LoadIdentity(context.Background(), "raj")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "raj", identity.Username)
	assert.Equal(t, []string{"USER", "EDITOR"}, identity.Authorities)

	missing, err := h.service.LoadIdentity(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

/*
TestService_LoadIdentity_Cached verifies the second lookup is served from the cache.
*/
func TestService_LoadIdentity_Cached(t *testing.T) {
	caches := map[string]func(t *testing.T) auth.IdentityCache{
		"memory": func(*testing.T) auth.IdentityCache { return auth.NewMemoryIdentityCache(16, time.Minute) },
		"redis": func(t *testing.T) auth.IdentityCache {
			cache, _ := newMiniredisCache(t, time.Minute)
			return cache
		},
	}

	for name, build := range caches {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, auth.WithIdentityCache(build(t)))
			h.signup(t, auth.SignupInput{Username: "raj", Email: "raj@x.com", Password: "pw123"})

			first, err := h.service.LoadIdentity(context.Background(), "raj")
			require.NoError(t, err)
			lookups := h.store.Lookups

			second, err := h.service.LoadIdentity(context.Background(), "raj")
			require.NoError(t, err)

			assert.Equal(t, lookups, h.store.Lookups, "cache hit must not reach the store")
			assert.Equal(t, first, second)
			assert.NotSame(t, first, second, "identities must never be shared across requests")
		})
	}
}

/*
TestService_LoadIdentity_FillIsolated verifies the identity returned on a cache miss can be
mutated by the caller without altering the cached entry.
*/
func TestService_LoadIdentity_FillIsolated(t *testing.T) {
	cache := auth.NewMemoryIdentityCache(16, time.Minute)
	h := newHarness(t, auth.WithIdentityCache(cache))
	h.signup(t, auth.SignupInput{Username: "raj", Email: "raj@x.com", Password: "pw123", Roles: []string{"USER"}})

	filled, err := h.service.LoadIdentity(context.Background(), "raj")
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())
	filled.Authorities[0] = "ADMIN"

	cached, err := h.service.LoadIdentity(context.Background(), "raj")
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, cached.Authorities)
}

/*
TestService_LoadIdentity_CacheDown verifies a failing cache degrades to a store read.
*/
func TestService_LoadIdentity_CacheDown(t *testing.T) {
	cache, server := newMiniredisCache(t, time.Minute)
	h := newHarness(t, auth.WithIdentityCache(cache))
	h.signup(t, auth.SignupInput{Username: "raj", Email: "raj@x.com", Password: "pw123"})

	server.Close()

	identity, err := h.service.LoadIdentity(context.Background(), "raj")
	require.NoError(t, err)
	assert.Equal(t, "raj", identity.Username)
}

/*
TestRedisIdentityCache verifies key layout, JSON values and TTL expiry.
*/
func TestRedisIdentityCache(t *testing.T) {
	cache, server := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "raj")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, &sec.Identity{Username: "raj", Authorities: []string{"USER"}}))
	assert.True(t, server.Exists("auth:identity:raj"))
	assert.Equal(t, time.Minute, server.TTL("auth:identity:raj"))

	identity, found, err := cache.Get(ctx, "raj")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"USER"}, identity.Authorities)

	server.FastForward(time.Minute)
	_, found, err = cache.Get(ctx, "raj")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, server.Set("auth:identity:broken", "{not json"))
	_, _, err = cache.Get(ctx, "broken")
	assert.Error(t, err)
}

/*
TestMemoryIdentityCache verifies copies are returned and the size bound evicts the oldest entry.
*/
func TestMemoryIdentityCache(t *testing.T) {
	cache := auth.NewMemoryIdentityCache(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &sec.Identity{Username: "a", Authorities: []string{"USER"}}))
	require.NoError(t, cache.Set(ctx, &sec.Identity{Username: "b", Authorities: []string{"USER"}}))

	identity, found, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	identity.Authorities[0] = "ADMIN"

	again, _, _ := cache.Get(ctx, "a")
	assert.Equal(t, []string{"USER"}, again.Authorities)

	require.NoError(t, cache.Set(ctx, &sec.Identity{Username: "c", Authorities: nil}))
	assert.Equal(t, 2, cache.Len())

	_, found, _ = cache.Get(ctx, "b")
	assert.False(t, found, "least recently used entry is evicted")
}
