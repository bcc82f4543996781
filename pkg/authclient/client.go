// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authclient is a Go client for the personapi HTTP API.

Each [Client] owns its credential: [Client.Login] stores the issued access token
on that instance and every later call sends it as a Bearer header. Two clients
never share a token.

Usage:

	client := authclient.New("http://localhost:8080")
	if _, err := client.Login(ctx, "raj", "pw123"); err != nil {
	    return err
	}

	var me Profile
	err := client.Do(ctx, http.MethodGet, "/api/person/me", nil, &me)
*/
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// # Wire Types

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// User is the principal returned by a successful signup.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignupResponse confirms a registration.
type SignupResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// FieldError is a single validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a non-2xx response decoded from the server's error envelope.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	Details    []FieldError `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("authclient: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// # Client

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying [http.Client].
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// Client talks to one personapi deployment and holds one credential.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Token returns the currently held access token, or "" when anonymous.
func (client *Client) Token() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.token
}

// SetToken replaces the held access token. An empty token makes the client anonymous.
func (client *Client) SetToken(token string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.token = token
}

// Signup registers a new principal. It does not log in.
func (client *Client) Signup(ctx context.Context, request SignupRequest) (*SignupResponse, error) {
	var response SignupResponse
	if err := client.Do(ctx, http.MethodPost, "/api/auth/signup", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Login exchanges credentials for an access token and stores it on the client.
func (client *Client) Login(ctx context.Context, usernameOrEmail, password string) (*AccessToken, error) {
	body := map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}

	var token AccessToken
	if err := client.Do(ctx, http.MethodPost, "/api/auth/signin", body, &token); err != nil {
		return nil, err
	}

	client.SetToken(token.AccessToken)
	return &token, nil
}

// Logout drops the held token. Issued tokens stay valid until they expire.
func (client *Client) Logout() {
	client.SetToken("")
}

/*
Do sends a JSON request and decodes the "data" member of the response into out.

Parameters:
  - method, path: HTTP method and path relative to the base URL
  - body: JSON-encoded when non-nil
  - out: decoding target, may be nil

Returns:
  - error: *Error for non-2xx responses, transport or decoding errors otherwise
*/
func (client *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authclient: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("authclient: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := client.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("authclient: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response)
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("authclient: decode response: %w", err)
	}
	return nil
}

// decodeError reads the error envelope, falling back to the status text.
func decodeError(response *http.Response) error {
	apiErr := &Error{StatusCode: response.StatusCode}
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}
	return apiErr
}
