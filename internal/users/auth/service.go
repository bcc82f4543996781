// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/dberr"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/pkg/uuid"
)

// # Contracts & Types

// PasswordHasher hashes and verifies secrets. Implemented by [sec.PasswordHasher].
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer mints access tokens. Implemented by [sec.TokenService].
type TokenIssuer interface {
	Issue(username string) (string, error)
	TTL() time.Duration
}

// dummyPassword is hashed once and compared against when the login identifier is unknown.
const dummyPassword = "personapi-timing-equalizer"

// Service implements the signup, login and identity loading use cases.
//
// It is safe for concurrent use: every dependency is either immutable or
// synchronized on its own.
type Service struct {
	store    CredentialStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	cache    IdentityCache
	recorder *metrics.Auth
	now      func() time.Time

	dummyHash func() (string, error)
}

// ServiceOption customizes a [Service].
type ServiceOption func(*Service)

// WithIdentityCache enables identity caching for [Service.LoadIdentity].
func WithIdentityCache(cache IdentityCache) ServiceOption {
	return func(service *Service) { service.cache = cache }
}

// WithMetrics records signup and login outcomes.
func WithMetrics(recorder *metrics.Auth) ServiceOption {
	return func(service *Service) { service.recorder = recorder }
}

// NewService constructs a new [Service] with its dependencies.
func NewService(store CredentialStore, hasher PasswordHasher, tokens TokenIssuer, options ...ServiceOption) *Service {
	service := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
	service.dummyHash = sync.OnceValues(func() (string, error) {
		return hasher.Hash(dummyPassword)
	})

	for _, option := range options {
		option(service)
	}
	return service
}

// # Registration Flow

// SignupInput holds the data required to onboard a principal.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

/*
Signup validates, hashes and persists a brand new principal.

Description: Identifiers are normalized before the uniqueness check. Roles are
upper-cased and deduplicated; an empty role set becomes the default role. New
roles are created by the store inside the same transaction as the principal.

Returns:
  - *Principal: Created entity
  - error: ErrDuplicateIdentity, a validation error, or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*Principal, error) {
	principal, err := service.signup(context, input)

	switch {
	case err == nil:
		service.recorder.Signup(metrics.OutcomeSuccess)
	case errors.Is(err, ErrDuplicateIdentity), apperr.HasCode(err, apperr.CodeValidation):
		service.recorder.Signup(metrics.OutcomeRejected)
	default:
		service.recorder.Signup(metrics.OutcomeError)
	}
	return principal, err
}

func (service *Service) signup(context context.Context, input SignupInput) (*Principal, error) {
	username := NormalizeUsername(input.Username)
	email := NormalizeEmail(input.Email)

	roles, err := NormalizeRoles(input.Roles)
	if err != nil {
		return nil, err
	}

	// 1. Reject taken identifiers before spending a bcrypt round
	exists, err := service.store.ExistsByUsernameOrEmail(context, username, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_exists_check_failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	// 2. Never store the plain-text secret
	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	principal := &Principal{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    service.now(),
	}

	// 3. Persist atomically; a concurrent signup can still win the unique constraint
	if err := service.store.Create(context, principal); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			ctxutil.GetLogger(context).InfoContext(context, "signup_conflict", slog.String("reason", err.Error()))
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("auth_service_create_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "signup_succeeded",
		slog.String("username", principal.Username),
		slog.Any("roles", principal.Roles),
	)

	return principal, nil
}

// # Authentication Flow

// LoginInput holds the credentials of a login attempt.
type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

/*
Login verifies credentials and issues an access token.

Description: The identifier is tried as a username first, then as an email.
Unknown identifiers still cost one bcrypt comparison so response timing does
not reveal which usernames exist.

Returns:
  - *AccessToken: Bearer token and its lifetime in seconds
  - error: ErrBadCredentials, or storage/signing errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*AccessToken, error) {
	token, err := service.login(context, input)

	logger := ctxutil.GetLogger(context)

	switch {
	case err == nil:
		service.recorder.Login(metrics.OutcomeSuccess)
		logger.InfoContext(context, "login_succeeded")
	case errors.Is(err, ErrBadCredentials):
		service.recorder.Login(metrics.OutcomeRejected)
		logger.InfoContext(context, "login_failed")
	default:
		service.recorder.Login(metrics.OutcomeError)
	}
	return token, err
}

func (service *Service) login(context context.Context, input LoginInput) (*AccessToken, error) {
	principal, err := service.findByUsernameOrEmail(context, input.UsernameOrEmail)
	if err != nil {
		if !dberr.IsNotFound(err) {
			return nil, fmt.Errorf("auth_service_lookup_failed: %w", err)
		}

		// Equalize timing with the known-user path
		if dummyHash, hashErr := service.dummyHash(); hashErr == nil {
			service.hasher.Verify(input.Password, dummyHash)
		}
		return nil, ErrBadCredentials
	}

	if !service.hasher.Verify(input.Password, principal.PasswordHash) {
		return nil, ErrBadCredentials
	}

	accessToken, err := service.tokens.Issue(principal.Username)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return &AccessToken{
		AccessToken: accessToken,
		TokenType:   constants.TokenType,
		ExpiresIn:   int(service.tokens.TTL().Seconds()),
	}, nil
}

// findByUsernameOrEmail resolves a login identifier.
func (service *Service) findByUsernameOrEmail(context context.Context, identifier string) (*Principal, error) {
	principal, err := service.store.FindByUsername(context, NormalizeUsername(identifier))
	if err == nil || !dberr.IsNotFound(err) {
		return principal, err
	}
	return service.store.FindByEmail(context, NormalizeEmail(identifier))
}

// # Profile

// Principal returns the stored principal for username.
func (service *Service) Principal(context context.Context, username string) (*Principal, error) {
	principal, err := service.store.FindByUsername(context, username)
	if err != nil {
		return nil, fmt.Errorf("auth_service_principal_failed: %w", err)
	}
	return principal, nil
}
