// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/personapi/internal/platform/apperr"
	"github.com/taibuivan/personapi/internal/platform/ctxutil"
	"github.com/taibuivan/personapi/internal/platform/sec"
	"github.com/taibuivan/personapi/internal/users/account"
	"github.com/taibuivan/personapi/internal/users/auth"
)

type stubReader map[string]*auth.Principal

func (reader stubReader) Principal(_ context.Context, username string) (*auth.Principal, error) {
	if principal, found := reader[username]; found {
		return principal, nil
	}
	return nil, apperr.NotFound("Principal")
}

func newRouter() http.Handler {
	reader := stubReader{
		"raj": {
			ID:           "0190d3e4-0000-7000-8000-000000000001",
			Username:     "raj",
			Email:        "raj@x.com",
			PasswordHash: "$2a$10$secret",
			Roles:        []string{"USER"},
			CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	return account.NewHandler(account.NewService(reader)).Routes()
}

func TestHandler_GetMe(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request = request.WithContext(ctxutil.WithIdentity(request.Context(), &sec.Identity{Username: "raj", Authorities: []string{"USER"}}))
	recorder := httptest.NewRecorder()

	newRouter().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"raj"`)
	assert.Contains(t, recorder.Body.String(), `"authorities":["USER"]`)
	assert.NotContains(t, recorder.Body.String(), "secret")
}

func TestHandler_GetMe_Anonymous(t *testing.T) {
	recorder := httptest.NewRecorder()

	newRouter().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
