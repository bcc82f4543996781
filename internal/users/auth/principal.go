// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credential onboarding and stateless token authentication.

It defines the Principal entity, the Credential Store contract, and the signup,
login and identity-loading use cases used by the request authenticator.

# Architecture

  - Service: Orchestrates Signup, Login and LoadIdentity.
  - CredentialStore: Persists principals and their roles (Postgres).
  - IdentityCache: Short-lived username to authorities cache (Redis or in-process).

No session state is kept: every request is authenticated from its bearer token alone.
*/
package auth

import (
	"time"

	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/platform/sec"
)

// # Domain Entities

// Principal is an onboarded identity with credentials and roles.
//
// Username and email are unique; the identity fields never change after creation.
type Principal struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialized.
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity derives the request-scoped security principal.
func (principal *Principal) Identity() *sec.Identity {
	return &sec.Identity{
		Username:    principal.Username,
		Authorities: append([]string(nil), principal.Roles...),
	}
}

// Role is a named capability grouping referenced by principals.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AccessToken is the successful result of a login.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// # Domain Errors

var (
	// ErrDuplicateIdentity is returned by signup when the username or email is already taken.
	ErrDuplicateIdentity = apperr.Conflict("User already exists").WithCode("USER_EXISTS")

	// ErrBadCredentials is returned by login for an unknown identifier or a wrong password.
	ErrBadCredentials = apperr.Unauthorized("Invalid username/email or password").WithCode("BAD_CREDENTIALS")
)

// # Field Identifiers

// Field names used in request payloads and validation errors.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldRoles           = "roles"
	FieldUsernameOrEmail = "usernameOrEmail"
)

// # Constraints

const (
	// UsernameMaxLength bounds the normalized username.
	UsernameMaxLength = 64

	// EmailMaxLength bounds the normalized email.
	EmailMaxLength = 254

	// PasswordMaxBytes is the bcrypt input limit.
	PasswordMaxBytes = 72

	// RoleMaxLength bounds a single role name.
	RoleMaxLength = 32

	// MaxRolesPerSignup bounds the roles a signup may request.
	MaxRolesPerSignup = 16
)
