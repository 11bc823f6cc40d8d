// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/sec"
	"github.com/ijaa/alumni/pkg/uuidv7"
)

// refreshTokenBytes is the entropy of the opaque refresh token before
// encoding. 64 bytes = 512 bits, comfortably above the 256-bit floor.
const refreshTokenBytes = 64

// resetTokenTTL bounds the lifetime of a password-reset token.
const resetTokenTTL = 30 * time.Minute

// TokenProvider abstracts access-token issuance so the service can be tested
// without a real signing key.
type TokenProvider interface {
	GenerateAccessToken(username, userID, userType, role string) (string, error)
	AccessTTL() time.Duration
}

// Session is the product of a successful login or refresh: a short-lived
// signed access token plus a fresh opaque refresh token. The raw refresh
// token exists only in this value and in the client's cookie; the store
// keeps its digest.
type Session struct {
	AccessToken     string
	AccessTokenTTL  time.Duration
	RefreshToken    string
	RefreshTokenTTL time.Duration
	Principal       Principal
}

// Service orchestrates the member-facing authentication lifecycle: account
// creation, login, silent refresh, logout, and password management.
//
// # Uniform Failures
//
// Every authentication failure leaves this layer as an [apperr.AuthFailure]
// carrying the same client-facing message. The precise cause (unknown user,
// wrong password, expired token, revoked token) travels only in the
// [apperr.Reason] field, which the responder logs and never serializes.
type Service struct {
	users         UserRepository
	admins        AdminRepository
	refreshTokens RefreshTokenRepository
	resetTokens   ResetTokenRepository
	tokens        TokenProvider
	refreshTTL    time.Duration
	logger        *slog.Logger
}

// NewService creates the authentication service with its dependencies.
func NewService(
	users UserRepository,
	admins AdminRepository,
	refreshTokens RefreshTokenRepository,
	resetTokens ResetTokenRepository,
	tokens TokenProvider,
	refreshTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:         users,
		admins:        admins,
		refreshTokens: refreshTokens,
		resetTokens:   resetTokens,
		tokens:        tokens,
		refreshTTL:    refreshTTL,
		logger:        logger,
	}
}

// Register creates a new member account with a bcrypt-hashed password.
//
// Returns [apperr.Conflict] when the username is already taken.
func (service *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if _, err := service.users.FindByUsername(ctx, username); err == nil {
		return nil, apperr.Conflict("Username already taken")
	} else if !apperr.IsAppError(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuidv7.Must(),
		Username:     username,
		PasswordHash: hash,
		Active:       true,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_create_failed: %w", err)
	}

	service.logger.Info("user_registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates a member by username and password and opens a session.
//
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (service *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.AuthFailure(apperr.ReasonBadCredentials)
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.AuthFailure(apperr.ReasonBadCredentials)
	}

	if !user.Active {
		return nil, apperr.AuthFailure(apperr.ReasonInactivePrincipal)
	}

	return service.openSession(ctx, user.AsPrincipal())
}

// Refresh exchanges a valid refresh token for a new session, rotating the
// presented token in the same transaction.
//
// # Rotation
//
// The presented token is single-use. It is revoked and replaced atomically,
// so a stolen refresh token stops working the moment either party (thief or
// owner) uses it, and the loser of the race surfaces as a failed refresh.
func (service *Service) Refresh(ctx context.Context, presented string) (*Session, error) {
	if presented == "" {
		return nil, apperr.AuthFailure(apperr.ReasonMissingCredential)
	}

	presentedHash := sec.HashToken(presented)

	stored, err := service.refreshTokens.FindByTokenHash(ctx, presentedHash)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, apperr.AuthFailure(apperr.ReasonMalformedCredential)
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	now := time.Now()
	if stored.IsExpired(now) {
		return nil, apperr.AuthFailure(apperr.ReasonExpiredCredential)
	}
	if stored.IsRevoked {
		return nil, apperr.AuthFailure(apperr.ReasonRevokedCredential)
	}

	principal, err := service.resolvePrincipal(ctx, stored.PrincipalKind, stored.PrincipalID)
	if err != nil {
		return nil, err
	}
	if !principal.Active {
		return nil, apperr.AuthFailure(apperr.ReasonInactivePrincipal)
	}

	rawReplacement, err := sec.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_generate_failed: %w", err)
	}

	replacement := &RefreshToken{
		ID:            uuidv7.Must(),
		PrincipalID:   principal.ID,
		PrincipalKind: principal.Kind,
		TokenHash:     sec.HashToken(rawReplacement),
		ExpiresAt:     now.Add(service.refreshTTL),
	}

	if err := service.refreshTokens.Rotate(ctx, presentedHash, replacement); err != nil {
		var appError *apperr.AppError
		if errors.As(err, &appError) {
			// Lost the compare-and-swap: token was consumed concurrently.
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_refresh_rotate_failed: %w", err)
	}

	accessToken, err := service.tokens.GenerateAccessToken(
		principal.LoginName, principal.ID, principal.Kind, principal.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_sign_failed: %w", err)
	}

	return &Session{
		AccessToken:     accessToken,
		AccessTokenTTL:  service.tokens.AccessTTL(),
		RefreshToken:    rawReplacement,
		RefreshTokenTTL: service.refreshTTL,
		Principal:       principal,
	}, nil
}

// Logout revokes the presented refresh token.
//
// Idempotent by design: logging out with a missing, unknown, expired, or
// already-revoked token all succeed, so a client can always clear its state.
func (service *Service) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	if err := service.refreshTokens.Revoke(ctx, sec.HashToken(presented)); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// ChangePassword verifies the member's current password, replaces the hash,
// and revokes every outstanding refresh token so stolen sessions die with
// the old password.
func (service *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.AuthFailure(apperr.ReasonBadCredentials)
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	if err := service.refreshTokens.RevokeAll(ctx, KindUser, userID); err != nil {
		return fmt.Errorf("auth_service_change_password_revoke_failed: %w", err)
	}

	service.logger.Info("password_changed", "user_id", userID)
	return nil
}

// RequestPasswordReset issues a short-lived one-time reset token for the
// account. The raw token is returned for out-of-band delivery; only its
// digest is stored.
//
// To avoid account enumeration, an unknown username returns an empty token
// and no error.
func (service *Service) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	user, err := service.users.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsAppError(err) {
			service.logger.Warn("password_reset_unknown_username", "username", username)
			return "", nil
		}
		return "", fmt.Errorf("auth_service_reset_request_lookup_failed: %w", err)
	}

	raw, err := sec.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("auth_service_reset_request_generate_failed: %w", err)
	}

	if err := service.resetTokens.Set(ctx, sec.HashToken(raw), user.ID, resetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_reset_request_store_failed: %w", err)
	}

	service.logger.Info("password_reset_requested", "user_id", user.ID)
	return raw, nil
}

// ResetPassword consumes a reset token and replaces the account password.
// All outstanding refresh tokens for the account are revoked.
func (service *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	tokenHash := sec.HashToken(resetToken)

	userID, err := service.resetTokens.Get(ctx, tokenHash)
	if err != nil {
		if apperr.IsAppError(err) {
			return apperr.AuthFailure(apperr.ReasonExpiredCredential)
		}
		return fmt.Errorf("auth_service_reset_lookup_failed: %w", err)
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("auth_service_reset_update_failed: %w", err)
	}

	// One-time use: delete before the client can replay it.
	if err := service.resetTokens.Delete(ctx, tokenHash); err != nil {
		service.logger.Warn("password_reset_token_delete_failed", "error", err)
	}

	if err := service.refreshTokens.RevokeAll(ctx, KindUser, userID); err != nil {
		return fmt.Errorf("auth_service_reset_revoke_failed: %w", err)
	}

	service.logger.Info("password_reset_completed", "user_id", userID)
	return nil
}

// PurgeExpired deletes refresh-token rows that expired before now. Revoked
// rows are kept until expiry so replay of a rotated token stays detectable.
func (service *Service) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := service.refreshTokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("auth_service_purge_failed: %w", err)
	}
	if deleted > 0 {
		service.logger.Info("refresh_tokens_purged", "count", deleted)
	}
	return deleted, nil
}

// openSession issues the access/refresh pair for an authenticated principal.
func (service *Service) openSession(ctx context.Context, principal Principal) (*Session, error) {
	accessToken, err := service.tokens.GenerateAccessToken(
		principal.LoginName, principal.ID, principal.Kind, principal.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_sign_failed: %w", err)
	}

	rawRefresh, err := sec.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_generate_failed: %w", err)
	}

	row := &RefreshToken{
		ID:            uuidv7.Must(),
		PrincipalID:   principal.ID,
		PrincipalKind: principal.Kind,
		TokenHash:     sec.HashToken(rawRefresh),
		ExpiresAt:     time.Now().Add(service.refreshTTL),
	}

	if err := service.refreshTokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("auth_service_session_store_failed: %w", err)
	}

	service.logger.Info("session_opened",
		"principal_kind", principal.Kind, "principal_id", principal.ID)

	return &Session{
		AccessToken:     accessToken,
		AccessTokenTTL:  service.tokens.AccessTTL(),
		RefreshToken:    rawRefresh,
		RefreshTokenTTL: service.refreshTTL,
		Principal:       principal,
	}, nil
}

// resolvePrincipal loads the current account state behind a stored refresh
// token. Token claims are never trusted for account state; the store is.
func (service *Service) resolvePrincipal(ctx context.Context, kind, id string) (Principal, error) {
	switch kind {
	case KindUser:
		user, err := service.users.FindByID(ctx, id)
		if err != nil {
			if apperr.IsAppError(err) {
				return Principal{}, apperr.AuthFailure(apperr.ReasonRevokedCredential)
			}
			return Principal{}, fmt.Errorf("auth_service_resolve_user_failed: %w", err)
		}
		return user.AsPrincipal(), nil
	case KindAdmin:
		admin, err := service.admins.FindByID(ctx, id)
		if err != nil {
			if apperr.IsAppError(err) {
				return Principal{}, apperr.AuthFailure(apperr.ReasonRevokedCredential)
			}
			return Principal{}, fmt.Errorf("auth_service_resolve_admin_failed: %w", err)
		}
		return admin.AsPrincipal(), nil
	default:
		return Principal{}, fmt.Errorf("auth_service_unknown_principal_kind: %s", kind)
	}
}
