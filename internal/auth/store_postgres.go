// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// PostgreSQL implementations of the credential-store contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/dberr"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new member record into the users table.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, username, passwordhash, active, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, "User", "postgres_user_repo_create")
}

// FindByID retrieves a member record by its stable identifier.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT id, username, passwordhash, active, createdat, updatedat
		FROM users
		WHERE id = $1`

	user := &User{}
	err := repository.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_id")
	}

	return user, nil
}

// FindByUsername retrieves a member record by its unique login name.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, passwordhash, active, createdat, updatedat
		FROM users
		WHERE username = $1`

	user := &User{}
	err := repository.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_username")
	}

	return user, nil
}

// UpdatePassword updates only the password hash for a specific user.
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const query = `
		UPDATE users
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

// SetActive toggles a member account's active flag.
func (repository *PostgresUserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	const query = "UPDATE users SET active = $2, updatedat = $3 WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, userID, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}
	return nil
}

// Delete physically removes a member account.
func (repository *PostgresUserRepository) Delete(ctx context.Context, userID string) error {
	const query = "DELETE FROM users WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}
	return nil
}

// List returns a page of member accounts plus the total count.
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users"

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	const query = `
		SELECT id, username, passwordhash, active, createdat, updatedat
		FROM users
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

// ── Admin Repository ─────────────────────────────────────────────────────────

// PostgresAdminRepository implements the AdminRepository interface.
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new PostgreSQL implementation of AdminRepository.
func NewAdminRepository(pool *pgxpool.Pool) *PostgresAdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

// Create persists a new administrator record into the admins table.
func (repository *PostgresAdminRepository) Create(ctx context.Context, admin *Admin) error {
	const query = `
		INSERT INTO admins (
			id, email, name, passwordhash, role, active, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.Name,
		admin.PasswordHash,
		admin.Role,
		admin.Active,
		admin.CreatedAt,
		admin.UpdatedAt,
	)

	return dberr.Wrap(err, "Admin", "postgres_admin_repo_create")
}

// FindByID retrieves an administrator record by its stable identifier.
func (repository *PostgresAdminRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	const query = `
		SELECT id, email, name, passwordhash, role, active, createdat, updatedat
		FROM admins
		WHERE id = $1`

	return repository.scanOne(ctx, query, id)
}

// FindByEmail retrieves an administrator record by its unique email login.
func (repository *PostgresAdminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	const query = `
		SELECT id, email, name, passwordhash, role, active, createdat, updatedat
		FROM admins
		WHERE email = $1`

	return repository.scanOne(ctx, query, email)
}

func (repository *PostgresAdminRepository) scanOne(ctx context.Context, query string, arg any) (*Admin, error) {
	admin := &Admin{}
	err := repository.pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Admin", "postgres_admin_repo_find")
	}

	return admin, nil
}

// UpdatePassword updates only the password hash for a specific admin.
func (repository *PostgresAdminRepository) UpdatePassword(ctx context.Context, adminID, newHash string) error {
	const query = `
		UPDATE admins
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, adminID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_admin_repo_update_password_failed: %w", err)
	}

	return nil
}

// SetActive toggles an administrator's active flag.
func (repository *PostgresAdminRepository) SetActive(ctx context.Context, adminID string, active bool) error {
	const query = "UPDATE admins SET active = $2, updatedat = $3 WHERE id = $1"
	_, err := repository.pool.Exec(ctx, query, adminID, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_admin_repo_set_active_failed: %w", err)
	}
	return nil
}

// Count returns the total number of administrator accounts.
func (repository *PostgresAdminRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := repository.pool.QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres_admin_repo_count_failed: %w", err)
	}
	return total, nil
}

// List returns a page of administrator accounts plus the total count.
func (repository *PostgresAdminRepository) List(ctx context.Context, limit, offset int) ([]*Admin, int, error) {
	total, err := repository.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, email, name, passwordhash, role, active, createdat, updatedat
		FROM admins
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_admin_repo_list_failed: %w", err)
	}
	defer rows.Close()

	admins := make([]*Admin, 0, limit)
	for rows.Next() {
		admin := &Admin{}
		if err := rows.Scan(
			&admin.ID,
			&admin.Email,
			&admin.Name,
			&admin.PasswordHash,
			&admin.Role,
			&admin.Active,
			&admin.CreatedAt,
			&admin.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_admin_repo_scan_failed: %w", err)
		}
		admins = append(admins, admin)
	}

	return admins, total, rows.Err()
}

// ── Refresh Token Repository ─────────────────────────────────────────────────

// PostgresRefreshTokenRepository implements the RefreshTokenRepository interface.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

// Create persists a new refresh-token row.
func (repository *PostgresRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (
			id, principalid, principalkind, tokenhash, expiresat, isrevoked, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		token.ID,
		token.PrincipalID,
		token.PrincipalKind,
		token.TokenHash,
		token.ExpiresAt,
		token.IsRevoked,
		token.CreatedAt,
		token.UpdatedAt,
	)

	return dberr.Wrap(err, "Refresh token", "postgres_refresh_repo_create")
}

// FindByTokenHash retrieves a refresh-token row by its digest regardless of
// validity, so the service can distinguish expired from revoked in logs.
func (repository *PostgresRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	const query = `
		SELECT id, principalid, principalkind, tokenhash, expiresat, isrevoked, createdat, updatedat
		FROM refresh_tokens
		WHERE tokenhash = $1`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.PrincipalID,
		&token.PrincipalKind,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.IsRevoked,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Refresh token", "postgres_refresh_repo_find")
	}

	return token, nil
}

// Revoke marks the row matching the digest as revoked. Revoking an already
// revoked or unknown token is a no-op.
func (repository *PostgresRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	const query = `
		UPDATE refresh_tokens
		SET isrevoked = TRUE, updatedat = $2
		WHERE tokenhash = $1 AND isrevoked = FALSE`

	_, err := repository.pool.Exec(ctx, query, tokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_revoke_failed: %w", err)
	}
	return nil
}

// RevokeAll revokes every non-revoked token owned by the principal.
func (repository *PostgresRefreshTokenRepository) RevokeAll(ctx context.Context, principalKind, principalID string) error {
	const query = `
		UPDATE refresh_tokens
		SET isrevoked = TRUE, updatedat = $3
		WHERE principalkind = $1 AND principalid = $2 AND isrevoked = FALSE`

	_, err := repository.pool.Exec(ctx, query, principalKind, principalID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_revoke_all_failed: %w", err)
	}
	return nil
}

// Rotate atomically revokes the presented token and persists its replacement.
//
// # Compare-And-Swap
//
// The revocation predicate includes isrevoked = FALSE: if a concurrent
// refresh already rotated this token, zero rows update, the transaction
// rolls back, and no replacement is stored. A leaked refresh token therefore
// dies on its first legitimate (or illegitimate) use.
func (repository *PostgresRefreshTokenRepository) Rotate(ctx context.Context, oldTokenHash string, replacement *RefreshToken) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_rotate_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(ctx) }()

	const revokeQuery = `
		UPDATE refresh_tokens
		SET isrevoked = TRUE, updatedat = $2
		WHERE tokenhash = $1 AND isrevoked = FALSE`

	tag, err := transaction.Exec(ctx, revokeQuery, oldTokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_rotate_revoke_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.AuthFailure(apperr.ReasonRevokedCredential)
	}

	const insertQuery = `
		INSERT INTO refresh_tokens (
			id, principalid, principalkind, tokenhash, expiresat, isrevoked, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = now
	}
	replacement.UpdatedAt = now

	_, err = transaction.Exec(ctx, insertQuery,
		replacement.ID,
		replacement.PrincipalID,
		replacement.PrincipalKind,
		replacement.TokenHash,
		replacement.ExpiresAt,
		replacement.IsRevoked,
		replacement.CreatedAt,
		replacement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_refresh_repo_rotate_insert_failed: %w", err)
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres_refresh_repo_rotate_commit_failed: %w", err)
	}

	return nil
}

// DeleteExpired bulk-deletes rows whose expiry precedes now.
func (repository *PostgresRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = "DELETE FROM refresh_tokens WHERE expiresat < $1"
	tag, err := repository.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("postgres_refresh_repo_delete_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
