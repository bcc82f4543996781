// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/sec"
)

// RedisIdentityCache implements [IdentityCache] using Redis, shared by every API replica.
type RedisIdentityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisIdentityCache creates a Redis-backed IdentityCache.
func NewRedisIdentityCache(client redis.UniversalClient, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, ttl: ttl}
}

// cachedIdentity is the JSON value stored under each key.
type cachedIdentity struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

func identityKey(username string) string {
	return constants.RedisPrefixIdentity + username
}

/*
Get retrieves the identity cached for username.

Returns:
  - *sec.Identity: A fresh copy, never shared between requests
  - bool: false on a miss or an expired entry
  - error: Connectivity or decoding errors
*/
func (cache *RedisIdentityCache) Get(context context.Context, username string) (*sec.Identity, bool, error) {
	payload, err := cache.client.Get(context, identityKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis_identity_cache_get_failed: %w", err)
	}

	var cached cachedIdentity
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("redis_identity_cache_decode_failed: %w", err)
	}

	return &sec.Identity{Username: cached.Username, Authorities: cached.Authorities}, true, nil
}

// Set stores the identity with the configured TTL.
func (cache *RedisIdentityCache) Set(context context.Context, identity *sec.Identity) error {
	payload, err := json.Marshal(cachedIdentity{Username: identity.Username, Authorities: identity.Authorities})
	if err != nil {
		return fmt.Errorf("redis_identity_cache_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, identityKey(identity.Username), payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_identity_cache_set_failed: %w", err)
	}
	return nil
}
