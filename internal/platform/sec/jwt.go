// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces declared by the consumers.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/pkg/uuid"
)

// # Token Errors

var (
	// ErrTokenMalformed means the token could not be parsed or carries unusable claims.
	ErrTokenMalformed = errors.New("sec: token is malformed")

	// ErrTokenExpired means the token verified but its expiry has passed.
	ErrTokenExpired = errors.New("sec: token is expired")

	// ErrTokenUnsupported means the token was signed with an algorithm other than HS256.
	ErrTokenUnsupported = errors.New("sec: token algorithm is unsupported")

	// ErrTokenSignature means the signature does not verify against the signing secret.
	ErrTokenSignature = errors.New("sec: token signature is invalid")
)

// # Validation Outcomes

// TokenStatus is the terminal state of a single validation call.
//
//	Presented -> Parsed -> Valid | Expired
//	Presented -> Malformed | BadSignature | Unsupported
type TokenStatus int

const (
	StatusValid TokenStatus = iota
	StatusMalformed
	StatusExpired
	StatusBadSignature
	StatusUnsupported
)

// String returns the lower-case label used in logs and metrics.
func (status TokenStatus) String() string {
	switch status {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusBadSignature:
		return "bad_signature"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "malformed"
	}
}

// Err maps the status to its sentinel error, or nil for [StatusValid].
func (status TokenStatus) Err() error {
	switch status {
	case StatusValid:
		return nil
	case StatusExpired:
		return ErrTokenExpired
	case StatusBadSignature:
		return ErrTokenSignature
	case StatusUnsupported:
		return ErrTokenUnsupported
	default:
		return ErrTokenMalformed
	}
}

// # Token Service

// Claims is the payload embedded inside an access token: sub, iat, exp, iss, jti.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenOption customizes a [TokenService].
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		if now != nil {
			service.now = now
		}
	}
}

// TokenService issues and validates HS256 access tokens.
//
// The signing secret is copied at construction and only read afterwards, so a
// single instance is shared by every request goroutine.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
//
// A short secret or a non-positive TTL is a configuration error that must stop
// the process at startup.
func NewTokenService(secret []byte, issuer string, ttl time.Duration, options ...TokenOption) (*TokenService, error) {
	if len(secret) < constants.MinSecretLength {
		return nil, fmt.Errorf("sec: signing secret must be at least %d bytes, got %d", constants.MinSecretLength, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("sec: token ttl must be positive, got %s", ttl)
	}

	service := &TokenService{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service, nil
}

// TTL returns the lifetime of issued tokens.
func (service *TokenService) TTL() time.Duration {
	return service.ttl
}

// Issue mints a signed token whose subject is the given username.
func (service *TokenService) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("sec: cannot issue a token without subject")
	}

	currentTime := service.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   username,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ExtractSubject verifies the token's structure and signature and returns its subject.
//
// Expiry is not considered here; callers combine it with [TokenService.Validate].
func (service *TokenService) ExtractSubject(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseWithClaims(tokenString, claims, service.keyFunc)
	if err != nil {
		return "", fmt.Errorf("sec: extract subject: %w", classify(err).Err())
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("sec: extract subject: %w", ErrTokenMalformed)
	}
	return claims.Subject, nil
}

// IsExpired reports whether the token's embedded expiry is at or before the current time.
// A token whose expiry cannot be established is treated as expired.
func (service *TokenService) IsExpired(tokenString string) bool {
	claims := &Claims{}
	_, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseWithClaims(tokenString, claims, service.keyFunc)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !service.now().Before(claims.ExpiresAt.Time)
}

// Validate reports whether the signature verifies and the token has not expired.
// Every parsing failure collapses to false.
func (service *TokenService) Validate(tokenString string) bool {
	_, status := service.Inspect(tokenString)
	return status == StatusValid
}

// Inspect runs the full validation and returns the typed outcome.
//
// Claims are returned for [StatusValid] and [StatusExpired] only.
func (service *TokenService) Inspect(tokenString string) (*Claims, TokenStatus) {
	parser := jwt.NewParser(
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(service.issuer),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, service.keyFunc)
	status := classify(err)

	switch status {
	case StatusValid:
		if claims.Subject == "" {
			return nil, StatusMalformed
		}
		return claims, StatusValid
	case StatusExpired:
		return claims, StatusExpired
	default:
		return nil, status
	}
}

// keyFunc pins verification to HS256 with the process-wide secret.
func (service *TokenService) keyFunc(token *jwt.Token) (any, error) {
	if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("%w: %v", ErrTokenUnsupported, token.Header["alg"])
	}
	return service.secret, nil
}

// classify maps a jwt parser error to a [TokenStatus].
func classify(err error) TokenStatus {
	switch {
	case err == nil:
		return StatusValid
	case errors.Is(err, ErrTokenUnsupported), errors.Is(err, jwt.ErrTokenUnverifiable):
		return StatusUnsupported
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return StatusBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return StatusExpired
	default:
		return StatusMalformed
	}
}
