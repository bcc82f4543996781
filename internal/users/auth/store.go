// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/personapi/internal/platform/sec"
)

// # Credential Data Access

// CredentialStore defines the persistence contract for principals and roles.
type CredentialStore interface {

	/*
		FindByUsername returns the principal with the given username and its role names.

		Returns:
		  - *Principal: Hydrated entity
		  - error: apperr.NotFound when absent, or database failures
	*/
	FindByUsername(context context.Context, username string) (*Principal, error)

	/*
		FindByEmail returns the principal with the given email and its role names.

		Returns:
		  - *Principal: Hydrated entity
		  - error: apperr.NotFound when absent, or database failures
	*/
	FindByEmail(context context.Context, email string) (*Principal, error)

	/*
		ExistsByUsernameOrEmail reports whether either identifier is already taken.
	*/
	ExistsByUsernameOrEmail(context context.Context, username, email string) (bool, error)

	/*
		Create persists the principal and links it to principal.Roles, creating
		missing roles on first use. The whole operation is atomic.

		Returns:
		  - error: ErrDuplicateIdentity on a username/email collision, or database failures
	*/
	Create(context context.Context, principal *Principal) error
}

// # Identity Cache

// IdentityCache holds resolved identities for a short time.
//
// Only the username and authorities are cached, never credentials.
type IdentityCache interface {
	// Get returns the cached identity; found is false on a miss.
	Get(context context.Context, username string) (identity *sec.Identity, found bool, err error)

	// Set stores the identity until the cache TTL elapses.
	Set(context context.Context, identity *sec.Identity) error
}
