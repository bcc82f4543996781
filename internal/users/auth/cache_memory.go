// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/taibuivan/personapi/internal/platform/sec"
)

// MemoryIdentityCache implements [IdentityCache] with a size-bounded, expiring LRU.
// It is used when no Redis instance is configured.
type MemoryIdentityCache struct {
	entries *expirable.LRU[string, []string]
}

// NewMemoryIdentityCache creates an in-process cache holding at most size entries for ttl each.
func NewMemoryIdentityCache(size int, ttl time.Duration) *MemoryIdentityCache {
	return &MemoryIdentityCache{entries: expirable.NewLRU[string, []string](size, nil, ttl)}
}

// Get returns a copy of the cached authorities for username.
func (cache *MemoryIdentityCache) Get(_ context.Context, username string) (*sec.Identity, bool, error) {
	authorities, found := cache.entries.Get(username)
	if !found {
		return nil, false, nil
	}
	return &sec.Identity{Username: username, Authorities: slices.Clone(authorities)}, true, nil
}

// Set stores a copy of the identity's authorities.
func (cache *MemoryIdentityCache) Set(_ context.Context, identity *sec.Identity) error {
	cache.entries.Add(identity.Username, slices.Clone(identity.Authorities))
	return nil
}

// Len returns the number of live entries.
func (cache *MemoryIdentityCache) Len() int {
	return cache.entries.Len()
}
