// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// Package auth implements credential storage, token issuance, and the
// refresh-token lifecycle for the IJAA alumni platform.
//
// # Architecture
//
// Entities in this file represent the "Truth" of the system. They have no
// dependencies on outer layers (databases, HTTP, or third-party libraries).
package auth

import (
	"time"
)

// Principal kinds. A single validation path serves both kinds; the
// discriminator travels in the token claims and the identity assertion
// rather than through two parallel code paths.
const (
	KindUser  = "USER"
	KindAdmin = "ADMIN"
)

// Role strings. Authorization is plain string equality; there is no
// hierarchy.
const (
	// RoleUser is the only role ordinary members ever hold.
	RoleUser = "USER"

	// Administrator roles form a small closed set.
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleModerator  = "MODERATOR"
)

// AdminRoles lists every role an administrator account may hold.
var AdminRoles = []string{RoleAdmin, RoleSuperAdmin, RoleModerator}

// User represents an ordinary alumni member.
//
// # Rules
//   - Username is unique and URL-safe; it doubles as the token subject.
//   - PasswordHash is generated via Bcrypt exclusively by the auth service.
//   - Inactive users cannot log in or refresh; admins may hard-delete them.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Admin represents an administrator account.
//
// # Lifecycle
//
// Admins are never physically deleted — deactivation preserves the audit
// trail of every administrative action they performed.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the unified identity view used by the token paths.
//
// # Why a tagged variant?
//
// Users and admins share one issuance/validation path but carry different
// claim sets. Collapsing both into a Kind-tagged value keeps the token code
// free of type switches on storage entities.
type Principal struct {
	Kind      string
	ID        string
	LoginName string
	Role      string
	Active    bool
}

// AsPrincipal projects a user onto the unified identity view.
func (u *User) AsPrincipal() Principal {
	return Principal{
		Kind:      KindUser,
		ID:        u.ID,
		LoginName: u.Username,
		Role:      RoleUser,
		Active:    u.Active,
	}
}

// AsPrincipal projects an admin onto the unified identity view.
func (a *Admin) AsPrincipal() Principal {
	return Principal{
		Kind:      KindAdmin,
		ID:        a.ID,
		LoginName: a.Email,
		Role:      a.Role,
		Active:    a.Active,
	}
}

// RefreshToken represents a stored long-lived credential bound to one
// principal.
//
// # Security Concept
//
// Access tokens are stateless and cannot be revoked before they expire. The
// platform pairs short-lived access tokens with these server-tracked rows:
// revoking a row invalidates the silent re-authentication path, and the
// short access TTL then bounds the worst-case exposure window.
//
// Only the SHA-256 digest of the opaque token is persisted.
type RefreshToken struct {
	ID            string    `json:"id"`
	PrincipalID   string    `json:"principal_id"`
	PrincipalKind string    `json:"principal_kind"`
	TokenHash     string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsRevoked     bool      `json:"is_revoked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsExpired reports whether the row is past its expiry at the given instant.
//
// Validity is always re-checked against current time at use; the background
// purge sweep is housekeeping, not a correctness mechanism.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsValid reports whether the token is usable: not revoked and not expired.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}

// Validation field identifiers used by the HTTP layer.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldName     = "name"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldToken    = "token"
)
