// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/personapi/internal/api"
	"github.com/taibuivan/personapi/internal/platform/access"
	"github.com/taibuivan/personapi/internal/platform/config"
	"github.com/taibuivan/personapi/internal/platform/metrics"
	"github.com/taibuivan/personapi/internal/platform/sec"
	"github.com/taibuivan/personapi/internal/users/account"
	"github.com/taibuivan/personapi/internal/users/auth"
	"github.com/taibuivan/personapi/internal/users/auth/authtest"
)

type testServer struct {
	*httptest.Server
	store *authtest.Store
}

func newTestServer(t *testing.T, deps api.HealthDependencies) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{ServerPort: "0", Environment: "test"}

	hasher, err := sec.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := sec.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), "personapi", time.Hour)
	require.NoError(t, err)
	policy, err := access.Load("")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewAuth(registry)

	store := authtest.NewStore()
	authService := auth.NewService(store, hasher, tokens,
		auth.WithMetrics(recorder),
		auth.WithIdentityCache(auth.NewMemoryIdentityCache(64, time.Minute)),
	)

	liveness, readiness := api.NewHealthHandlers(deps, logger)
	router := api.NewRouter(ctx, cfg, logger,
		api.Security{Verifier: tokens, Loader: authService, Policy: policy, Metrics: recorder},
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Metrics:   metrics.Handler(registry),
			Auth:      auth.NewHandler(authService),
			Account:   account.NewHandler(account.NewService(authService)),
		},
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, store: store}
}

func (server *testServer) call(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	var payload map[string]any
	if len(raw) > 0 && strings.HasPrefix(response.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return response, payload
}

/*
TestServer_AuthFlow exercises signup, signin and the protected person resource end to end.
*/
func TestServer_AuthFlow(t *testing.T) {
	server := newTestServer(t, api.HealthDependencies{})

	// 1. The protected resource rejects anonymous callers with a challenge
	response, payload := server.call(t, http.MethodGet, "/api/person/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Contains(t, response.Header.Get("WWW-Authenticate"), "Bearer")
	assert.Equal(t, "UNAUTHENTICATED", payload["code"])

	// 2. Signup is public
	response, _ = server.call(t, http.MethodPost, "/api/auth/signup", "", `{"username":"raj","email":"raj@x.com","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, response.StatusCode)

	// 3. Signin returns a bearer token
	response, payload = server.call(t, http.MethodPost, "/api/auth/signin", "", `{"usernameOrEmail":"raj","password":"pw123"}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	token := payload["data"].(map[string]any)["accessToken"].(string)

	// 4. The token unlocks the person resource
	response, payload = server.call(t, http.MethodGet, "/api/person/me", token, "")
	require.Equal(t, http.StatusOK, response.StatusCode)
	profile := payload["data"].(map[string]any)
	assert.Equal(t, "raj", profile["username"])
	assert.Equal(t, []any{"USER"}, profile["authorities"])

	// 5. A tampered token does not
	response, _ = server.call(t, http.MethodGet, "/api/person/me", token+"x", "")
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)

	// 6. Login failures leak no token
	response, payload = server.call(t, http.MethodPost, "/api/auth/signin", "", `{"usernameOrEmail":"raj","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	assert.Nil(t, payload["data"])
}

/*
TestServer_Operational verifies health, readiness and metrics endpoints stay public.
*/
func TestServer_Operational(t *testing.T) {
	server := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("redis down") },
	})

	response, _ := server.call(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, response.StatusCode)

	response, payload := server.call(t, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, response.StatusCode)
	assert.Equal(t, "degraded", payload["data"].(map[string]any)["status"])

	server.call(t, http.MethodGet, "/api/person/me", "", "")

	response, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), `personapi_auth_access_denied_total{reason="unauthenticated"} 1`)
}
