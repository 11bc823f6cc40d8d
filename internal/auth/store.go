// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"context"
	"time"
)

// UserRepository defines the data access contract for alumni member accounts.
//
// # Review Process
//
// This interface is placed in a separate file from principal.go so entity
// changes and storage-contract changes can be reviewed independently.
//
// # Implementations
//
// The canonical implementation is PostgreSQL (store_postgres.go).
type UserRepository interface {
	// FindByID returns the account with the given stable identifier.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByUsername returns the account with the given login name.
	//
	// Returns [apperr.NotFound] if the username is available.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Create persists a brand-new member account.
	//
	// Returns a wrapped error if the username unique constraint fails.
	Create(ctx context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(ctx context.Context, userID, newHash string) error

	// SetActive toggles the account's active flag.
	SetActive(ctx context.Context, userID string, active bool) error

	// Delete physically removes a member account. Administrative action
	// only; admins themselves are never hard-deleted.
	Delete(ctx context.Context, userID string) error

	// List returns a page of accounts ordered by creation time, plus the
	// total count for pagination metadata.
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

// AdminRepository defines the data access contract for administrator accounts.
type AdminRepository interface {
	// FindByID returns the admin with the given stable identifier.
	FindByID(ctx context.Context, id string) (*Admin, error)

	// FindByEmail returns the admin with the given email login.
	FindByEmail(ctx context.Context, email string) (*Admin, error)

	// Create persists a brand-new administrator account.
	Create(ctx context.Context, admin *Admin) error

	// UpdatePassword replaces only the admin's password hash.
	UpdatePassword(ctx context.Context, adminID, newHash string) error

	// SetActive toggles the admin's active flag. Deactivation is the only
	// way to retire an administrator.
	SetActive(ctx context.Context, adminID string, active bool) error

	// Count returns the total number of administrator accounts, active or
	// not. Used by the first-admin bootstrap rule.
	Count(ctx context.Context) (int, error)

	// List returns a page of admins ordered by creation time, plus the
	// total count for pagination metadata.
	List(ctx context.Context, limit, offset int) ([]*Admin, int, error)
}

// RefreshTokenRepository defines the data access contract for server-tracked
// refresh tokens.
//
// # Concurrency
//
// Revocation is monotonic (revoked only ever goes false -> true) and every
// read re-checks the flag at use time, so no row-level locking is needed.
// Rotation is the one compare-and-swap: see [RefreshTokenRepository.Rotate].
type RefreshTokenRepository interface {
	// Create persists a new refresh-token row.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByTokenHash returns the row matching the digest regardless of its
	// validity, so the service layer can distinguish missing, expired, and
	// revoked for logging. Returns [apperr.NotFound] when no row matches.
	FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marks the row matching the digest as revoked. Idempotent: a
	// second call on the same token is a no-op and never errors.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAll revokes every non-revoked token owned by the principal.
	// Used on password change and forced logout across all sessions.
	RevokeAll(ctx context.Context, principalKind, principalID string) error

	// Rotate atomically revokes the presented token and persists its
	// replacement in one transaction. The revocation is a compare-and-swap
	// on the revoked flag: if the old token was already revoked (for
	// example by a concurrent refresh), Rotate fails and no replacement is
	// stored.
	Rotate(ctx context.Context, oldTokenHash string, replacement *RefreshToken) error

	// DeleteExpired bulk-deletes rows whose expiry precedes now.
	// Housekeeping only — safe to run at any interval or skip entirely.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository defines the contract for storing volatile password
// reset tokens.
//
// # Implementations
//
// Backed by Redis: reset tokens are short-lived and self-expiring, which the
// TTL store gives us for free.
type ResetTokenRepository interface {
	// Set stores a reset token associated with a userID for a limited duration.
	Set(ctx context.Context, token string, userID string, ttl time.Duration) error

	// Get retrieves the userID associated with a given reset token.
	Get(ctx context.Context, token string) (string, error)

	// Delete removes a reset token after successful use.
	Delete(ctx context.Context, token string) error
}
