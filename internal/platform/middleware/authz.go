// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/personapi/internal/platform/access"
	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/internal/platform/respond"
)

// Authorize enforces the route policy on the principal installed by [Authenticate].
//
// # Flow
//  1. PUBLIC routes proceed with or without a principal.
//  2. AUTHENTICATED routes without a principal get 401; respond adds the Bearer challenge.
//  3. AUTHENTICATED routes with required roles get 403 unless one role is held.
//
// Rejections happen before the handler runs.
func Authorize(policy *access.Policy, recorder *metrics.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			decision := policy.Decide(request.Method, request.URL.Path)

			// 1. Public access
			if decision.Access == access.LevelPublic {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Authentication check
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				recorder.AccessDenied(metrics.ReasonUnauthenticated)
				respond.Error(writer, request, apperr.Unauthenticated())
				return
			}

			// 3. Authority check
			if !identity.HasAnyAuthority(decision.Roles...) {
				recorder.AccessDenied(metrics.ReasonForbidden)
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "access_forbidden",
					slog.String("username", identity.Username),
					slog.String("pattern", decision.Pattern),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
