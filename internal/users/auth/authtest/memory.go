// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package authtest provides an in-memory [auth.CredentialStore] for tests.
package authtest

import (
	"context"
	"slices"
	"sync"

	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/users/auth"
	"github.com/taibuivan/personapi/pkg/slice"
	"github.com/taibuivan/personapi/pkg/uuid"
)

// Store is a concurrency-safe, in-memory credential store with the same
// uniqueness and atomicity rules as the Postgres implementation.
type Store struct {
	mu         sync.Mutex
	principals map[string]*auth.Principal // by username
	roles      map[string]auth.Role       // by name

	// Lookups counts FindByUsername and FindByEmail calls.
	Lookups int

	// FailNextCreate, when set, makes the next Create fail after role resolution.
	FailNextCreate error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		principals: make(map[string]*auth.Principal),
		roles:      make(map[string]auth.Role),
	}
}

// FindByUsername implements [auth.CredentialStore].
func (store *Store) FindByUsername(_ context.Context, username string) (*auth.Principal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Lookups++
	principal, found := store.principals[username]
	if !found {
		return nil, apperr.NotFound("Principal")
	}
	return clone(principal), nil
}

// FindByEmail implements [auth.CredentialStore].
func (store *Store) FindByEmail(_ context.Context, email string) (*auth.Principal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Lookups++
	for _, principal := range store.principals {
		if principal.Email == email {
			return clone(principal), nil
		}
	}
	return nil, apperr.NotFound("Principal")
}

// ExistsByUsernameOrEmail implements [auth.CredentialStore].
func (store *Store) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.existsLocked(username, email), nil
}

// Create implements [auth.CredentialStore]. Roles created during a failed call are discarded.
func (store *Store) Create(_ context.Context, principal *auth.Principal) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.existsLocked(principal.Username, principal.Email) {
		return auth.ErrDuplicateIdentity
	}

	missing := slice.Filter(principal.Roles, func(name string) bool {
		_, found := store.roles[name]
		return !found
	})
	created := slice.Map(missing, func(name string) auth.Role {
		return auth.Role{ID: uuid.New(), Name: name}
	})

	if err := store.FailNextCreate; err != nil {
		store.FailNextCreate = nil
		return err
	}

	for _, role := range created {
		store.roles[role.Name] = role
	}
	store.principals[principal.Username] = clone(principal)
	return nil
}

// Roles returns the stored role names, sorted.
func (store *Store) Roles() []string {
	store.mu.Lock()
	defer store.mu.Unlock()

	names := make([]string, 0, len(store.roles))
	for name := range store.roles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of stored principals.
func (store *Store) Count() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	return len(store.principals)
}

func (store *Store) existsLocked(username, email string) bool {
	if _, found := store.principals[username]; found {
		return true
	}
	for _, principal := range store.principals {
		if principal.Email == email {
			return true
		}
	}
	return false
}

func clone(principal *auth.Principal) *auth.Principal {
	copied := *principal
	copied.Roles = slices.Clone(principal.Roles)
	return &copied
}
