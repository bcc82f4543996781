// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/personapi/internal/platform/constants"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/internal/platform/sec"
)

// TokenVerifier is the slice of [sec.TokenService] the authenticator needs.
//
// Declared here so the middleware can be tested without real tokens.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	Inspect(token string) (*sec.Claims, sec.TokenStatus)
}

// IdentityLoader resolves a username to its granted authorities.
//
// A nil identity with a nil error means the principal does not exist.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, username string) (*sec.Identity, error)
}

// Authenticate installs the security principal for requests carrying a valid bearer token.
//
// # Flow
//  1. Missing header or a scheme other than Bearer: continue anonymous.
//  2. Extract the subject from the token (signature checked, expiry not yet).
//  3. Load the principal's authorities through the [IdentityLoader].
//  4. Inspect the token: only a valid, unexpired token installs the principal.
//  5. Always pass the request on. Rejection is left to [Authorize].
//
// A failure or panic in any step leaves the request anonymous; it is never a 500.
func Authenticate(verifier TokenVerifier, loader IdentityLoader, recorder *metrics.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Anonymous unless the header carries a bearer token
			token, ok := bearerToken(request.Header.Get(constants.HeaderAuthorization))
			if !ok {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Resolve the principal, recovering anything that goes wrong locally
			identity, err := resolve(request.Context(), verifier, loader, recorder, token)
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "token_rejected",
					slog.String("reason", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			// 3. Install the principal for the rest of this request only
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			notePrincipal(ctx, identity.Username)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// resolve runs steps 2 to 4 of the authenticator.
func resolve(ctx context.Context, verifier TokenVerifier, loader IdentityLoader, recorder *metrics.Auth, token string) (identity *sec.Identity, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			identity, err = nil, fmt.Errorf("authenticator_panic: %v", recovered)
		}
	}()

	username, err := verifier.ExtractSubject(token)
	if err != nil {
		_, status := verifier.Inspect(token)
		recorder.TokenChecked(status.String())
		return nil, fmt.Errorf("extract_subject_failed: %w", err)
	}

	identity, err = loader.LoadIdentity(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load_identity_failed: %w", err)
	}

	claims, status := verifier.Inspect(token)
	recorder.TokenChecked(status.String())
	if status != sec.StatusValid {
		return nil, fmt.Errorf("inspect_token_failed: %w", status.Err())
	}

	if identity == nil {
		return nil, fmt.Errorf("principal_not_found: %s", username)
	}
	if claims.Subject != identity.Username {
		return nil, fmt.Errorf("subject_mismatch: %s", claims.Subject)
	}

	return identity, nil
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.TokenType) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
