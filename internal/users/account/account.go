// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the protected person resource of the authenticated caller.

# Architecture

  - Entities: Profile (DTO).
  - Domain: Reads principals through the auth package's credential store.
  - Security: Mounted under /api/person, which the route policy marks AUTHENTICATED.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/personapi/internal/users/auth"
)

// # Domain Entities

// Profile is the client-safe view of the caller's principal and granted authorities.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
	Authorities []string  `json:"authorities"`
	CreatedAt   time.Time `json:"createdAt"`
}

// # Contracts

// PrincipalReader resolves a stored principal by username. Implemented by [auth.Service].
type PrincipalReader interface {
	Principal(context context.Context, username string) (*auth.Principal, error)
}
