// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/personapi/internal/platform/access"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/internal/platform/middleware"
	"github.com/taibuivan/personapi/internal/platform/sec"
)

// # Test Doubles

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) LoadIdentity(ctx context.Context, username string) (*sec.Identity, error) {
	args := m.Called(ctx, username)
	identity, _ := args.Get(0).(*sec.Identity)
	return identity, args.Error(1)
}

type panickingLoader struct{}

func (panickingLoader) LoadIdentity(context.Context, string) (*sec.Identity, error) {
	panic("store exploded")
}

// # Fixtures

type fixture struct {
	tokens   *sec.TokenService
	now      time.Time
	loader   *mockLoader
	recorder *metrics.Auth
	handler  http.Handler
	reached  *bool
	seen     **sec.Identity
}

func newFixture(t *testing.T, loader middleware.IdentityLoader, rules []access.Rule) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := sec.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), "personapi", time.Hour,
		sec.WithClock(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.tokens = tokens

	if rules == nil {
		rules = access.DefaultRules()
	}
	policy, err := access.NewPolicy(rules, access.LevelPublic)
	require.NoError(t, err)

	f.recorder = metrics.NewAuth(prometheus.NewRegistry())

	reached := false
	var seen *sec.Identity
	f.reached, f.seen = &reached, &seen

	final := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		reached = true
		seen = ctxutil.GetIdentity(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	f.handler = middleware.Authenticate(tokens, loader, f.recorder)(middleware.Authorize(policy, f.recorder)(final))
	return f
}

func (f *fixture) serve(method, path, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)
	return recorder
}

func (f *fixture) issue(t *testing.T, username string) string {
	t.Helper()
	token, err := f.tokens.Issue(username)
	require.NoError(t, err)
	return token
}

var raj = &sec.Identity{Username: "raj", Authorities: []string{"USER"}}

// # Tests

/*
TestAuthenticate_PublicWithoutHeader verifies that an anonymous request to a PUBLIC route
never touches the identity loader and reaches the handler.
*/
func TestAuthenticate_PublicWithoutHeader(t *testing.T) {
	loader := &mockLoader{}
	f := newFixture(t, loader, nil)

	response := f.serve(http.MethodPost, "/api/auth/signup", "")

	assert.Equal(t, http.StatusOK, response.Code)
	assert.True(t, *f.reached)
	assert.Nil(t, *f.seen)
	loader.AssertNotCalled(t, "LoadIdentity", mock.Anything, mock.Anything)
}

/*
TestAuthenticate_ValidToken verifies the principal is installed for a valid token.
*/
func TestAuthenticate_ValidToken(t *testing.T) {
	loader := &mockLoader{}
	f := newFixture(t, loader, nil)
	loader.On("LoadIdentity", mock.Anything, "raj").Return(raj, nil).Once()

	response := f.serve(http.MethodGet, "/api/person/me", "Bearer "+f.issue(t, "raj"))

	assert.Equal(t, http.StatusOK, response.Code)
	require.NotNil(t, *f.seen)
	assert.Equal(t, "raj", (*f.seen).Username)
	assert.Equal(t, []string{"USER"}, (*f.seen).Authorities)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.recorder.TokenChecksTotal.WithLabelValues("valid")))
	loader.AssertExpectations(t)
}

/*
TestAuthenticate_LowercaseScheme verifies the scheme is matched case-insensitively.
*/
func TestAuthenticate_LowercaseScheme(t *testing.T) {
	loader := &mockLoader{}
	f := newFixture(t, loader, nil)
	loader.On("LoadIdentity", mock.Anything, "raj").Return(raj, nil)

	response := f.serve(http.MethodGet, "/api/person/me", "bearer "+f.issue(t, "raj"))

	assert.Equal(t, http.StatusOK, response.Code)
}

/*
TestAuthorize_RejectsBeforeHandler covers the protected-route rejections: the handler
never runs and the client receives a Bearer challenge.
*/
func TestAuthorize_RejectsBeforeHandler(t *testing.T) {
	tests := []struct {
		name   string
		header func(f *fixture, t *testing.T) string
	}{
		{"missing_header", func(*fixture, *testing.T) string { return "" }},
		{"basic_scheme", func(*fixture, *testing.T) string { return "Basic cmFqOnNlY3JldA==" }},
		{"empty_token", func(*fixture, *testing.T) string { return "Bearer " }},
		{"malformed_token", func(*fixture, *testing.T) string { return "Bearer not.a.token" }},
		{"expired_token", func(f *fixture, t *testing.T) string {
			token := f.issue(t, "raj")
			f.now = f.now.Add(time.Hour)
			return "Bearer " + token
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &mockLoader{}
			loader.On("LoadIdentity", mock.Anything, "raj").Return(raj, nil).Maybe()
			f := newFixture(t, loader, nil)

			response := f.serve(http.MethodGet, "/api/person/me", tt.header(f, t))

			assert.Equal(t, http.StatusUnauthorized, response.Code)
			assert.Contains(t, response.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, response.Body.String(), `"code":"UNAUTHENTICATED"`)
			assert.False(t, *f.reached)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.recorder.AccessDeniedTotal.WithLabelValues(metrics.ReasonUnauthenticated)))
		})
	}
}

/*
TestAuthenticate_ForeignSignature verifies a token from another key never installs a principal.
*/
func TestAuthenticate_ForeignSignature(t *testing.T) {
	loader := &mockLoader{}
	f := newFixture(t, loader, nil)

	forger, err := sec.NewTokenService([]byte("fedcba9876543210fedcba9876543210"), "personapi", time.Hour)
	require.NoError(t, err)
	token, err := forger.Issue("raj")
	require.NoError(t, err)

	response := f.serve(http.MethodGet, "/api/person/me", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.recorder.TokenChecksTotal.WithLabelValues("bad_signature")))
	loader.AssertNotCalled(t, "LoadIdentity", mock.Anything, mock.Anything)
}

/*
TestAuthenticate_LoaderFailures verifies that missing principals, store errors and panics
all resolve to an anonymous request.
*/
func TestAuthenticate_LoaderFailures(t *testing.T) {
	t.Run("unknown_principal", func(t *testing.T) {
		loader := &mockLoader{}
		loader.On("LoadIdentity", mock.Anything, "ghost").Return(nil, nil)
		f := newFixture(t, loader, nil)

		assert.Equal(t, http.StatusUnauthorized, f.serve(http.MethodGet, "/api/person/me", "Bearer "+f.issue(t, "ghost")).Code)
		assert.False(t, *f.reached)
	})

	t.Run("store_error", func(t *testing.T) {
		loader := &mockLoader{}
		loader.On("LoadIdentity", mock.Anything, "raj").Return(nil, errors.New("connection refused"))
		f := newFixture(t, loader, nil)

		assert.Equal(t, http.StatusUnauthorized, f.serve(http.MethodGet, "/api/person/me", "Bearer "+f.issue(t, "raj")).Code)
	})

	t.Run("loader_panic", func(t *testing.T) {
		f := newFixture(t, panickingLoader{}, nil)

		var response *httptest.ResponseRecorder
		require.NotPanics(t, func() {
			response = f.serve(http.MethodGet, "/health", "Bearer "+f.issue(t, "raj"))
		})
		assert.Equal(t, http.StatusOK, response.Code)
		assert.True(t, *f.reached)
		assert.Nil(t, *f.seen)
	})
}

/*
TestAuthenticate_PublicWithInvalidToken verifies a bad token on a PUBLIC route still reaches the handler anonymously.
*/
func TestAuthenticate_PublicWithInvalidToken(t *testing.T) {
	f := newFixture(t, &mockLoader{}, nil)

	response := f.serve(http.MethodGet, "/health", "Bearer garbage")

	assert.Equal(t, http.StatusOK, response.Code)
	assert.True(t, *f.reached)
	assert.Nil(t, *f.seen)
}

/*
TestAuthorize_Roles verifies that a role-restricted rule answers 403 to a principal lacking the role.
*/
func TestAuthorize_Roles(t *testing.T) {
	rules := []access.Rule{
		{Pattern: "/api/admin/**", Access: access.LevelAuthenticated, Roles: []string{"ADMIN"}},
		{Pattern: "/api/person/**", Access: access.LevelAuthenticated},
	}

	loader := &mockLoader{}
	loader.On("LoadIdentity", mock.Anything, "raj").Return(raj, nil)
	loader.On("LoadIdentity", mock.Anything, "root").Return(&sec.Identity{Username: "root", Authorities: []string{"ADMIN", "USER"}}, nil)
	f := newFixture(t, loader, rules)

	response := f.serve(http.MethodGet, "/api/admin/users", "Bearer "+f.issue(t, "raj"))
	assert.Equal(t, http.StatusForbidden, response.Code)
	assert.False(t, *f.reached)

	response = f.serve(http.MethodGet, "/api/admin/users", "Bearer "+f.issue(t, "root"))
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.recorder.AccessDeniedTotal.WithLabelValues(metrics.ReasonForbidden)))
}
