// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ijaa/alumni/internal/identity"
	"github.com/ijaa/alumni/internal/platform/ctxutil"
	"github.com/ijaa/alumni/internal/platform/middleware"
	requestutil "github.com/ijaa/alumni/internal/platform/request"
	"github.com/ijaa/alumni/internal/platform/respond"
	"github.com/ijaa/alumni/internal/platform/validate"
	"github.com/ijaa/alumni/pkg/pagination"
)

// AdminHandler implements the administrator endpoints.
//
// # Authorization
//
// Role checks here are service-local (403 on failure). The single exception
// is admin creation, which stays publicly routable so the bootstrap rule in
// [AdminService.CreateAdmin] can admit the founding administrator.
type AdminHandler struct {
	adminService *AdminService
	cookies      cookiePolicy
}

// NewAdminHandler constructs a new [AdminHandler] with its service dependency.
func NewAdminHandler(service *AdminService, production bool) *AdminHandler {
	return &AdminHandler{adminService: service, cookies: policyFor(production)}
}

// Routes returns a [chi.Router] configured with the administrator routes.
//
// # Endpoints
//   - POST   /login                      : Admin login by email.
//   - POST   /admins                     : Create an admin (bootstrap-aware).
//   - GET    /admins                     : List admins (paginated).
//   - PUT    /admins/{adminID}/deactivate: Retire an admin account.
//   - PUT    /admins/{adminID}/activate  : Restore an admin account.
//   - POST   /password                   : Change the caller's password.
//   - GET    /users                      : List member accounts (paginated).
//   - DELETE /users/{username}           : Hard-delete a member account.
func (handler *AdminHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/admins", handler.createAdmin)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRoles(AdminRoles...))
		r.Get("/admins", handler.listAdmins)
		r.Put("/admins/{adminID}/deactivate", handler.deactivate)
		r.Put("/admins/{adminID}/activate", handler.activate)
		r.Post("/password", handler.changePassword)
		r.Get("/users", handler.listUsers)
		r.Delete("/users/{username}", handler.deleteUser)
	})

	return router
}

// # Request Payloads

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

/*
Login authenticates an administrator and establishes a session.

POST /api/v1/admin/login

Response:
  - 200: Session: Access token and expiry
  - 401: ErrUnauthorized: Invalid credentials or deactivated account
*/
func (handler *AdminHandler) login(writer http.ResponseWriter, request *http.Request) {
	var input adminLoginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.adminService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenTTL, handler.cookies)

	respond.OK(writer, map[string]any{
		"access_token": session.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(session.AccessTokenTTL.Seconds()),
	})
}

/*
CreateAdmin creates a new administrator account.

POST /api/v1/admin/admins

Description: Publicly routable so the very first call can create the
founding administrator on an empty table. Every later call requires an
authenticated administrator; the service enforces this.

Response:
  - 201: Admin: Created administrator profile
  - 403: ErrForbidden: Caller is not an administrator (table non-empty)
  - 409: ErrConflict: Email already registered
*/
func (handler *AdminHandler) createAdmin(writer http.ResponseWriter, request *http.Request) {
	var input createAdminRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 128).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	admin, err := handler.adminService.CreateAdmin(request.Context(),
		callerRole(request.Context()), CreateAdminInput{
			Email:    input.Email,
			Name:     input.Name,
			Password: input.Password,
			Role:     input.Role,
		})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, admin)
}

/*
ListAdmins returns a page of administrator accounts.

GET /api/v1/admin/admins?page=N&limit=M
*/
func (handler *AdminHandler) listAdmins(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	admins, total, err := handler.adminService.ListAdmins(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, admins, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Deactivate retires an administrator account.

PUT /api/v1/admin/admins/{adminID}/deactivate

Response:
  - 204: No Content: Account deactivated, sessions revoked
  - 403: ErrForbidden: Attempted self-deactivation
  - 404: ErrNotFound: Unknown admin ID
*/
func (handler *AdminHandler) deactivate(writer http.ResponseWriter, request *http.Request) {
	adminID := requestutil.Param(request, "adminID")

	validator := &validate.Validator{}
	if err := validator.UUID("adminID", adminID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.Deactivate(
		request.Context(), callerID(request.Context()), adminID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Activate restores a previously deactivated administrator account.

PUT /api/v1/admin/admins/{adminID}/activate
*/
func (handler *AdminHandler) activate(writer http.ResponseWriter, request *http.Request) {
	adminID := requestutil.Param(request, "adminID")

	validator := &validate.Validator{}
	if err := validator.UUID("adminID", adminID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.Activate(
		request.Context(), callerID(request.Context()), adminID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ChangePassword replaces the calling administrator's password.

POST /api/v1/admin/password
*/
func (handler *AdminHandler) changePassword(writer http.ResponseWriter, request *http.Request) {
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

	if err := handler.adminService.ChangePassword(request.Context(),
		callerID(request.Context()), input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListUsers returns a page of member accounts.

GET /api/v1/admin/users?page=N&limit=M
*/
func (handler *AdminHandler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.adminService.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
DeleteUser hard-deletes a member account by username.

DELETE /api/v1/admin/users/{username}

Response:
  - 204: No Content: Account removed, sessions revoked
  - 404: ErrNotFound: Unknown username
*/
func (handler *AdminHandler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, "username")

	validator := &validate.Validator{}
	if err := validator.Required(FieldUsername, username).
		Username(FieldUsername, username).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.adminService.DeleteUser(
		request.Context(), callerID(request.Context()), username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// callerID resolves the calling administrator's ID, preferring the
// gateway-minted assertion and falling back to locally verified token claims.
// [middleware.RequireRoles] admits both paths, so both must be covered here
// or the self-deactivation ban could be sidestepped by calling the service
// directly with a bearer token.
func callerID(ctx context.Context) string {
	if id := identity.CurrentUserID(ctx); id != "" {
		return id
	}
	if claims := ctxutil.GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

// callerRole mirrors [callerID] for the role string.
func callerRole(ctx context.Context) string {
	if role := identity.CurrentRole(ctx); role != "" {
		return role
	}
	if claims := ctxutil.GetClaims(ctx); claims != nil {
		return claims.Role
	}
	return ""
}
