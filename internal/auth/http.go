// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// This file is the HTTP delivery layer for the member authentication
// lifecycle. It is strictly responsible for transport concerns (status
// codes, headers, JSON, cookies); all decisions live in [Service].

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ijaa/alumni/internal/platform/middleware"
	requestutil "github.com/ijaa/alumni/internal/platform/request"
	"github.com/ijaa/alumni/internal/platform/respond"
	"github.com/ijaa/alumni/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the member-facing authentication endpoints.
type Handler struct {
	authService *Service
	cookies     cookiePolicy
}

// NewHandler constructs a new [Handler] with its service dependency.
// production selects the strict cookie policy.
func NewHandler(service *Service, production bool) *Handler {
	return &Handler{authService: service, cookies: policyFor(production)}
}

// Routes returns a [chi.Router] configured with the member auth routes.
//
// # Endpoints
//   - POST /register        : Creates a new member account.
//   - POST /login           : Authenticates and opens a session.
//   - POST /refresh         : Rotates the refresh token, issues a new JWT.
//   - POST /logout          : Revokes the session. Always succeeds.
//   - POST /forgot-password : Issues a one-time password reset token.
//   - POST /reset-password  : Consumes a reset token.
//   - POST /password        : Changes the caller's password (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/password", handler.changePassword)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
Register handles the creation of a new member account.

POST /api/v1/auth/register

Description: Validates input, checks for username conflicts, and persists a
new member record.

Request:
  - Body: registerRequest (Username, Password)

Response:
  - 201: User: Created member profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 64).
		Username(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a member and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, generates a JWT access token, and injects
a secure refresh token cookie into the response.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: Session: Access token and expiry
  - 401: ErrUnauthorized: Invalid credentials or deactivated account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session)
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Description: Rotates the session by validating the refresh token cookie and
issuing a fresh access token plus an updated refresh cookie. The presented
refresh token is revoked in the same operation.

Response:
  - 200: Session: New access token and expiry
  - 401: ErrUnauthorized: Missing, expired, revoked, or unknown token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.authService.Refresh(request.Context(), refreshTokenFromRequest(request))
	if err != nil {
		clearRefreshCookie(writer, handler.cookies)
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session)
}

/*
Logout terminates the current member session.

POST /api/v1/auth/logout

Description: Revokes the refresh token (if present) and clears the security
cookie from the client. Never fails from the client's point of view.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), refreshTokenFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer, handler.cookies)
	respond.NoContent(writer)
}

/*
ForgotPassword issues a one-time password reset token.

POST /api/v1/auth/forgot-password

Description: Always returns 204 whether or not the username exists, to
prevent account enumeration. The token travels out-of-band.

Response:
  - 204: No Content: Request accepted
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if _, err := handler.authService.RequestPasswordReset(request.Context(), input.Username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ResetPassword consumes a reset token and sets a new password.

POST /api/v1/auth/reset-password

Response:
  - 204: No Content: Password replaced, all sessions revoked
  - 401: ErrUnauthorized: Unknown or expired reset token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ChangePassword replaces the caller's password.

POST /api/v1/auth/password

Description: Requires the current password as proof of possession. Every
outstanding refresh token of the account is revoked.

Response:
  - 204: No Content: Password replaced
  - 401: ErrUnauthorized: Wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("current_password", input.CurrentPassword).
		Required("new_password", input.NewPassword).
		MinLen("new_password", input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(
		request.Context(), claims.UserID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// writeSession sets the refresh cookie and writes the access-token payload.
func (handler *Handler) writeSession(writer http.ResponseWriter, session *Session) {
	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenTTL, handler.cookies)

	respond.OK(writer, map[string]any{
		"access_token": session.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(session.AccessTokenTTL.Seconds()),
	})
}
