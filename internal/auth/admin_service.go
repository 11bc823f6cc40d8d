// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/sec"
	"github.com/ijaa/alumni/pkg/uuidv7"
)

// CreateAdminInput carries the fields for a new administrator account.
type CreateAdminInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// AdminService orchestrates the administrator lifecycle: login, account
// creation under the bootstrap rule, activation toggling, and the
// administrative actions on member accounts.
type AdminService struct {
	admins        AdminRepository
	users         UserRepository
	refreshTokens RefreshTokenRepository
	auth          *Service
	logger        *slog.Logger
}

// NewAdminService creates the administrator service with its dependencies.
func NewAdminService(
	admins AdminRepository,
	users UserRepository,
	refreshTokens RefreshTokenRepository,
	auth *Service,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:        admins,
		users:         users,
		refreshTokens: refreshTokens,
		auth:          auth,
		logger:        logger,
	}
}

// Login authenticates an administrator by email and password.
//
// Same uniform-failure contract as member login: unknown email, wrong
// password, and deactivated account are indistinguishable to the caller.
func (service *AdminService) Login(ctx context.Context, email, password string) (*Session, error) {
	admin, err := service.admins.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.AuthFailure(apperr.ReasonBadCredentials)
		}
		return nil, fmt.Errorf("admin_service_login_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(password, admin.PasswordHash) {
		return nil, apperr.AuthFailure(apperr.ReasonBadCredentials)
	}

	if !admin.Active {
		return nil, apperr.AuthFailure(apperr.ReasonInactivePrincipal)
	}

	return service.auth.openSession(ctx, admin.AsPrincipal())
}

// CreateAdmin creates a new administrator account.
//
// # Bootstrap Rule
//
// When the admins table is empty the endpoint is open: the very first call
// creates the founding administrator without authentication, and the new
// account always gets the ADMIN role regardless of the requested one. Every
// later call requires an authenticated administrator caller.
func (service *AdminService) CreateAdmin(ctx context.Context, callerRole string, input CreateAdminInput) (*Admin, error) {
	total, err := service.admins.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin_service_create_count_failed: %w", err)
	}

	role := input.Role
	if total == 0 {
		role = RoleAdmin
	} else if !slices.Contains(AdminRoles, callerRole) {
		return nil, apperr.Forbidden("Administrator privileges required")
	}

	if !slices.Contains(AdminRoles, role) {
		return nil, apperr.ValidationError("Invalid admin role", apperr.FieldError{
			Field: "role", Message: "must be one of ADMIN, SUPER_ADMIN, MODERATOR",
		})
	}

	if _, err := service.admins.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if !apperr.IsAppError(err) {
		return nil, fmt.Errorf("admin_service_create_lookup_failed: %w", err)
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("admin_service_create_hash_failed: %w", err)
	}

	admin := &Admin{
		ID:           uuidv7.Must(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	if err := service.admins.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("admin_service_create_failed: %w", err)
	}

	if total == 0 {
		service.logger.Info("founding_admin_created", "admin_id", admin.ID)
	} else {
		service.logger.Info("admin_created", "admin_id", admin.ID, "role", admin.Role)
	}

	return admin, nil
}

// Deactivate retires an administrator account. The account and its history
// survive; only its ability to authenticate is removed, along with every
// outstanding refresh token.
//
// An administrator cannot deactivate itself: the platform must always keep
// at least one path back in.
func (service *AdminService) Deactivate(ctx context.Context, callerID, adminID string) error {
	// An unresolvable caller cannot prove it is someone else, so it is
	// refused the same way a self-deactivation is.
	if callerID == "" || callerID == adminID {
		return apperr.Forbidden("Administrators cannot deactivate their own account")
	}

	if _, err := service.admins.FindByID(ctx, adminID); err != nil {
		return err
	}

	if err := service.admins.SetActive(ctx, adminID, false); err != nil {
		return fmt.Errorf("admin_service_deactivate_failed: %w", err)
	}

	if err := service.refreshTokens.RevokeAll(ctx, KindAdmin, adminID); err != nil {
		return fmt.Errorf("admin_service_deactivate_revoke_failed: %w", err)
	}

	service.logger.Info("admin_deactivated", "admin_id", adminID, "by", callerID)
	return nil
}

// Activate restores a previously deactivated administrator account.
func (service *AdminService) Activate(ctx context.Context, callerID, adminID string) error {
	if _, err := service.admins.FindByID(ctx, adminID); err != nil {
		return err
	}

	if err := service.admins.SetActive(ctx, adminID, true); err != nil {
		return fmt.Errorf("admin_service_activate_failed: %w", err)
	}

	service.logger.Info("admin_activated", "admin_id", adminID, "by", callerID)
	return nil
}

// DeleteUser hard-deletes a member account by username and revokes all of
// its refresh tokens. Unlike admins, member accounts may be removed
// entirely.
func (service *AdminService) DeleteUser(ctx context.Context, callerID, username string) error {
	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := service.refreshTokens.RevokeAll(ctx, KindUser, user.ID); err != nil {
		return fmt.Errorf("admin_service_delete_user_revoke_failed: %w", err)
	}

	if err := service.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("admin_service_delete_user_failed: %w", err)
	}

	service.logger.Info("user_deleted", "username", username, "by", callerID)
	return nil
}

// ChangePassword verifies the admin's current password, replaces the hash,
// and revokes every outstanding refresh token.
func (service *AdminService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	admin, err := service.admins.FindByID(ctx, adminID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, admin.PasswordHash) {
		return apperr.AuthFailure(apperr.ReasonBadCredentials)
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("admin_service_change_password_hash_failed: %w", err)
	}

	if err := service.admins.UpdatePassword(ctx, adminID, newHash); err != nil {
		return fmt.Errorf("admin_service_change_password_update_failed: %w", err)
	}

	if err := service.refreshTokens.RevokeAll(ctx, KindAdmin, adminID); err != nil {
		return fmt.Errorf("admin_service_change_password_revoke_failed: %w", err)
	}

	service.logger.Info("admin_password_changed", "admin_id", adminID)
	return nil
}

// ListAdmins returns a page of administrator accounts.
func (service *AdminService) ListAdmins(ctx context.Context, limit, offset int) ([]*Admin, int, error) {
	return service.admins.List(ctx, limit, offset)
}

// ListUsers returns a page of member accounts.
func (service *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return service.users.List(ctx, limit, offset)
}
