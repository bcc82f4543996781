// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/personapi/internal/users/auth"
)

func serveJSON(t *testing.T, handler http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload), recorder.Body.String())
	return recorder, payload
}

/*
TestHandler_Signup covers the signup endpoint outcomes.
*/
func TestHandler_Signup(t *testing.T) {
	h := newHarness(t)
	router := auth.NewHandler(h.service).Routes()

	// 1. Created
	response, payload := serveJSON(t, router, "/signup", `{"username":"raj","email":"raj@x.com","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, response.Code)

	data := payload["data"].(map[string]any)
	assert.Equal(t, "User registered successfully", data["message"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "raj", user["username"])
	assert.Equal(t, []any{"USER"}, user["roles"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, response.Body.String(), "$2a$")

	// 2. Duplicate
	response, payload = serveJSON(t, router, "/signup", `{"username":"raj","email":"raj2@x.com","password":"pw123"}`)
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Equal(t, "USER_EXISTS", payload["code"])
	assert.Equal(t, "User already exists", payload["error"])

	// 3. Validation
	response, payload = serveJSON(t, router, "/signup", `{"username":"a@b","email":"nope","password":""}`)
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Equal(t, "VALIDATION_ERROR", payload["code"])
	assert.Len(t, payload["details"], 3)

	// 4. Broken JSON
	response, _ = serveJSON(t, router, "/signup", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

/*
TestHandler_Signin covers the signin endpoint: a token on success, none on failure.
*/
func TestHandler_Signin(t *testing.T) {
	h := newHarness(t)
	router := auth.NewHandler(h.service).Routes()

	serveJSON(t, router, "/signup", `{"username":"raj","email":"raj@x.com","password":"pw123"}`)

	response, payload := serveJSON(t, router, "/signin", `{"usernameOrEmail":"raj@x.com","password":"pw123"}`)
	require.Equal(t, http.StatusOK, response.Code)

	data := payload["data"].(map[string]any)
	assert.Equal(t, "Bearer", data["tokenType"])
	assert.Equal(t, 3600.0, data["expiresIn"])

	subject, err := h.tokens.ExtractSubject(data["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "raj", subject)

	response, payload = serveJSON(t, router, "/signin", `{"usernameOrEmail":"raj","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Equal(t, "BAD_CREDENTIALS", payload["code"])
	assert.Equal(t, "Invalid username/email or password", payload["error"])
	assert.NotContains(t, payload, "data")
}
