// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/personapi/internal/platform/request"
	"github.com/taibuivan/personapi/internal/platform/respond"
	"github.com/taibuivan/personapi/internal/platform/validate"
)

// usernamePattern keeps usernames distinguishable from emails at login.
var usernamePattern = regexp.MustCompile(`^[^@\s]+$`)

// # Definitions & Constructors

// Handler implements the credential onboarding endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /signup : Onboards a new principal.
//   - POST /signin : Verifies credentials and returns a bearer token.
//
// Both routes are PUBLIC in the route policy.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signup)
	router.Post("/signin", handler.signin)

	return router
}

// # Request Payloads

type signupRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type signinRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// signupResponse confirms a registration.
type signupResponse struct {
	Message string     `json:"message"`
	User    *Principal `json:"user"`
}

/*
Signup onboards a new principal.

POST /api/auth/signup

Request:
  - Body: signupRequest (Username, Email, Password, Roles?)

Response:
  - 201: signupResponse: Confirmation and the created principal
  - 400: VALIDATION_ERROR: Bad input
  - 409: USER_EXISTS: Username or email already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	username := NormalizeUsername(input.Username)
	email := NormalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).
		MaxLen(FieldUsername, username, UsernameMaxLength).
		Printable(FieldUsername, username).
		Pattern(FieldUsername, username, usernamePattern, "Must not contain '@' or whitespace").
		Required(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength).
		Email(FieldEmail, email).
		Required(FieldPassword, input.Password).
		MaxBytes(FieldPassword, input.Password, PasswordMaxBytes)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.authService.Signup(request.Context(), SignupInput{
		Username: username,
		Email:    email,
		Password: input.Password,
		Roles:    input.Roles,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, signupResponse{
		Message: "User registered successfully",
		User:    principal,
	})
}

/*
Signin verifies credentials and issues an access token.

POST /api/auth/signin

Request:
  - Body: signinRequest (UsernameOrEmail, Password)

Response:
  - 200: AccessToken: Bearer token and lifetime in seconds
  - 401: BAD_CREDENTIALS: Unknown identifier or wrong password, no token
*/
func (handler *Handler) signin(writer http.ResponseWriter, request *http.Request) {
	var input signinRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsernameOrEmail, input.UsernameOrEmail).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.authService.Login(request.Context(), LoginInput{
		UsernameOrEmail: input.UsernameOrEmail,
		Password:        input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, token)
}
