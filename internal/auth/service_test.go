// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijaa/alumni/internal/auth"
	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/sec"
)

// # In-Memory Fakes
//
// The service is tested against map-backed repositories that honor the same
// contracts as the PostgreSQL implementations, including the rotation
// compare-and-swap.

type fakeUserRepo struct {
	byID       map[string]*auth.User
	byUsername map[string]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*auth.User{}, byUsername: map[string]*auth.User{}}
}

func (repo *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.byID[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	if user, ok := repo.byUsername[username]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	copied := *user
	repo.byID[user.ID] = &copied
	repo.byUsername[user.Username] = &copied
	return nil
}

func (repo *fakeUserRepo) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.byID[userID].PasswordHash = newHash
	return nil
}

func (repo *fakeUserRepo) SetActive(_ context.Context, userID string, active bool) error {
	repo.byID[userID].Active = active
	return nil
}

func (repo *fakeUserRepo) Delete(_ context.Context, userID string) error {
	if user, ok := repo.byID[userID]; ok {
		delete(repo.byUsername, user.Username)
		delete(repo.byID, userID)
	}
	return nil
}

func (repo *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*auth.User, int, error) {
	users := make([]*auth.User, 0, len(repo.byID))
	for _, user := range repo.byID {
		users = append(users, user)
	}
	return users, len(users), nil
}

type fakeAdminRepo struct {
	byID    map[string]*auth.Admin
	byEmail map[string]*auth.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byID: map[string]*auth.Admin{}, byEmail: map[string]*auth.Admin{}}
}

func (repo *fakeAdminRepo) FindByID(_ context.Context, id string) (*auth.Admin, error) {
	if admin, ok := repo.byID[id]; ok {
		copied := *admin
		return &copied, nil
	}
	return nil, apperr.NotFound("Admin")
}

func (repo *fakeAdminRepo) FindByEmail(_ context.Context, email string) (*auth.Admin, error) {
	if admin, ok := repo.byEmail[email]; ok {
		copied := *admin
		return &copied, nil
	}
	return nil, apperr.NotFound("Admin")
}

func (repo *fakeAdminRepo) Create(_ context.Context, admin *auth.Admin) error {
	copied := *admin
	repo.byID[admin.ID] = &copied
	repo.byEmail[admin.Email] = &copied
	return nil
}

func (repo *fakeAdminRepo) UpdatePassword(_ context.Context, adminID, newHash string) error {
	repo.byID[adminID].PasswordHash = newHash
	return nil
}

func (repo *fakeAdminRepo) SetActive(_ context.Context, adminID string, active bool) error {
	repo.byID[adminID].Active = active
	return nil
}

func (repo *fakeAdminRepo) Count(_ context.Context) (int, error) {
	return len(repo.byID), nil
}

func (repo *fakeAdminRepo) List(_ context.Context, limit, offset int) ([]*auth.Admin, int, error) {
	admins := make([]*auth.Admin, 0, len(repo.byID))
	for _, admin := range repo.byID {
		admins = append(admins, admin)
	}
	return admins, len(admins), nil
}

type fakeRefreshRepo struct {
	byHash map[string]*auth.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byHash: map[string]*auth.RefreshToken{}}
}

func (repo *fakeRefreshRepo) Create(_ context.Context, token *auth.RefreshToken) error {
	copied := *token
	repo.byHash[token.TokenHash] = &copied
	return nil
}

func (repo *fakeRefreshRepo) FindByTokenHash(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	if token, ok := repo.byHash[tokenHash]; ok {
		copied := *token
		return &copied, nil
	}
	return nil, apperr.NotFound("Refresh token")
}

func (repo *fakeRefreshRepo) Revoke(_ context.Context, tokenHash string) error {
	if token, ok := repo.byHash[tokenHash]; ok {
		token.IsRevoked = true
	}
	return nil
}

func (repo *fakeRefreshRepo) RevokeAll(_ context.Context, kind, id string) error {
	for _, token := range repo.byHash {
		if token.PrincipalKind == kind && token.PrincipalID == id {
			token.IsRevoked = true
		}
	}
	return nil
}

func (repo *fakeRefreshRepo) Rotate(_ context.Context, oldHash string, replacement *auth.RefreshToken) error {
	old, ok := repo.byHash[oldHash]
	if !ok || old.IsRevoked {
		return apperr.AuthFailure(apperr.ReasonRevokedCredential)
	}
	old.IsRevoked = true
	copied := *replacement
	repo.byHash[replacement.TokenHash] = &copied
	return nil
}

func (repo *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for hash, token := range repo.byHash {
		if token.ExpiresAt.Before(now) {
			delete(repo.byHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

type fakeResetRepo struct {
	values map[string]string
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{values: map[string]string{}}
}

func (repo *fakeResetRepo) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repo.values[token] = userID
	return nil
}

func (repo *fakeResetRepo) Get(_ context.Context, token string) (string, error) {
	if userID, ok := repo.values[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Reset token")
}

func (repo *fakeResetRepo) Delete(_ context.Context, token string) error {
	delete(repo.values, token)
	return nil
}

// fakeTokens issues traceable fake access tokens without real signing.
type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(username, userID, userType, role string) (string, error) {
	return fmt.Sprintf("access:%s:%s:%s:%s", username, userID, userType, role), nil
}

func (fakeTokens) AccessTTL() time.Duration { return 15 * time.Minute }

// # Fixture

type fixture struct {
	users   *fakeUserRepo
	admins  *fakeAdminRepo
	refresh *fakeRefreshRepo
	resets  *fakeResetRepo
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newFakeUserRepo()
	admins := newFakeAdminRepo()
	refresh := newFakeRefreshRepo()
	resets := newFakeResetRepo()

	service := auth.NewService(users, admins, refresh, resets, fakeTokens{},
		7*24*time.Hour, slog.New(slog.DiscardHandler))

	return &fixture{users: users, admins: admins, refresh: refresh, resets: resets, service: service}
}

func (f *fixture) register(t *testing.T, username, password string) *auth.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), username, password)
	require.NoError(t, err)
	return user
}

// requireAuthFailure asserts the uniform 401 contract: same client-facing
// message no matter the internal reason.
func requireAuthFailure(t *testing.T, err error) *apperr.AppError {
	t.Helper()
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected AppError, got %v", err)
	require.Equal(t, 401, appError.HTTPStatus)
	require.Equal(t, "Authentication failed", appError.Message)
	return appError
}

// # Tests

/*
TestService_RegisterAndLogin covers the happy path: a registered member can
open a session and gets both token halves.
*/
func TestService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "correct horse battery")

	assert.True(t, user.Active)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash, "password must never be stored raw")

	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, 15*time.Minute, session.AccessTokenTTL)
	assert.Equal(t, auth.KindUser, session.Principal.Kind)

	// The raw refresh token must not be stored as-is.
	_, err = f.refresh.FindByTokenHash(context.Background(), session.RefreshToken)
	assert.Error(t, err)
	_, err = f.refresh.FindByTokenHash(context.Background(), sec.HashToken(session.RefreshToken))
	assert.NoError(t, err)
}

/*
TestService_RegisterDuplicate verifies the username conflict path.
*/
func TestService_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "password-one")

	_, err := f.service.Register(context.Background(), "alice", "password-two")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 409, appError.HTTPStatus)
}

/*
TestService_LoginFailuresAreUniform verifies that unknown usernames, wrong
passwords, and deactivated accounts all produce the identical client-facing
error, while the internal reasons differ.
*/
func TestService_LoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "correct horse battery")

	// Unknown username.
	_, err := f.service.Login(context.Background(), "nobody", "whatever")
	unknown := requireAuthFailure(t, err)

	// Wrong password.
	_, err = f.service.Login(context.Background(), "alice", "wrong password")
	wrong := requireAuthFailure(t, err)

	// Deactivated account, correct password.
	require.NoError(t, f.users.SetActive(context.Background(), user.ID, false))
	_, err = f.service.Login(context.Background(), "alice", "correct horse battery")
	inactive := requireAuthFailure(t, err)

	assert.Equal(t, unknown.Message, wrong.Message)
	assert.Equal(t, wrong.Message, inactive.Message)
	assert.Equal(t, apperr.ReasonInactivePrincipal, inactive.Reason)
	assert.Equal(t, apperr.ReasonBadCredentials, wrong.Reason)
}

/*
TestService_RefreshRotates verifies single-use rotation: a successful
refresh yields a new token pair and kills the presented refresh token.
*/
func TestService_RefreshRotates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "correct horse battery")

	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	rotated, err := f.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	// Replaying the first refresh token must now fail.
	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	replay := requireAuthFailure(t, err)
	assert.Equal(t, apperr.ReasonRevokedCredential, replay.Reason)

	// The rotated token still works.
	_, err = f.service.Refresh(context.Background(), rotated.RefreshToken)
	assert.NoError(t, err)
}

/*
TestService_RefreshRejections covers the missing / unknown / expired /
revoked refresh paths, all surfacing the uniform failure.
*/
func TestService_RefreshRejections(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "correct horse battery")

	// Missing.
	_, err := f.service.Refresh(context.Background(), "")
	missing := requireAuthFailure(t, err)
	assert.Equal(t, apperr.ReasonMissingCredential, missing.Reason)

	// Unknown opaque value.
	_, err = f.service.Refresh(context.Background(), "never-issued")
	requireAuthFailure(t, err)

	// Expired row.
	expired := &auth.RefreshToken{
		ID:            "rt-expired",
		PrincipalID:   user.ID,
		PrincipalKind: auth.KindUser,
		TokenHash:     sec.HashToken("expired-token"),
		ExpiresAt:     time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.refresh.Create(context.Background(), expired))

	_, err = f.service.Refresh(context.Background(), "expired-token")
	gone := requireAuthFailure(t, err)
	assert.Equal(t, apperr.ReasonExpiredCredential, gone.Reason)

	// Logged-out (revoked) token.
	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(context.Background(), session.RefreshToken))

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	revoked := requireAuthFailure(t, err)
	assert.Equal(t, apperr.ReasonRevokedCredential, revoked.Reason)
}

/*
TestService_RefreshDeactivatedPrincipal verifies that a stored, valid
refresh token stops working the moment the account is deactivated.
*/
func TestService_RefreshDeactivatedPrincipal(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "correct horse battery")

	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, f.users.SetActive(context.Background(), user.ID, false))

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	failure := requireAuthFailure(t, err)
	assert.Equal(t, apperr.ReasonInactivePrincipal, failure.Reason)
}

/*
TestService_LogoutIsIdempotent verifies logout never fails regardless of
token state.
*/
func TestService_LogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "correct horse battery")

	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	assert.NoError(t, f.service.Logout(context.Background(), session.RefreshToken))
	assert.NoError(t, f.service.Logout(context.Background(), session.RefreshToken)) // second time
	assert.NoError(t, f.service.Logout(context.Background(), "unknown-token"))
	assert.NoError(t, f.service.Logout(context.Background(), ""))
}

/*
TestService_ChangePasswordRevokesSessions verifies that rotating the
password kills every outstanding refresh token.
*/
func TestService_ChangePasswordRevokesSessions(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "old password 123")

	first, err := f.service.Login(context.Background(), "alice", "old password 123")
	require.NoError(t, err)
	second, err := f.service.Login(context.Background(), "alice", "old password 123")
	require.NoError(t, err)

	// Wrong current password is a uniform auth failure.
	err = f.service.ChangePassword(context.Background(), user.ID, "not the password", "new password 456")
	requireAuthFailure(t, err)

	require.NoError(t, f.service.ChangePassword(
		context.Background(), user.ID, "old password 123", "new password 456"))

	_, err = f.service.Refresh(context.Background(), first.RefreshToken)
	requireAuthFailure(t, err)
	_, err = f.service.Refresh(context.Background(), second.RefreshToken)
	requireAuthFailure(t, err)

	// New password works, old one does not.
	_, err = f.service.Login(context.Background(), "alice", "old password 123")
	requireAuthFailure(t, err)
	_, err = f.service.Login(context.Background(), "alice", "new password 456")
	assert.NoError(t, err)
}

/*
TestService_PasswordResetFlow verifies the full forgot / reset cycle and
one-time-use of the reset token.
*/
func TestService_PasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "old password 123")

	// Unknown users produce no token and no error (anti-enumeration).
	token, err := f.service.RequestPasswordReset(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = f.service.RequestPasswordReset(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, f.service.ResetPassword(context.Background(), token, "new password 456"))

	_, err = f.service.Login(context.Background(), "alice", "new password 456")
	assert.NoError(t, err)

	// Reset token is consumed.
	err = f.service.ResetPassword(context.Background(), token, "third password 789")
	requireAuthFailure(t, err)
}

/*
TestService_PurgeExpired verifies the sweeper deletes only expired rows.
*/
func TestService_PurgeExpired(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "correct horse battery")

	live, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	expired := &auth.RefreshToken{
		ID:            "rt-old",
		PrincipalID:   "user-x",
		PrincipalKind: auth.KindUser,
		TokenHash:     sec.HashToken("long-gone"),
		ExpiresAt:     time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.refresh.Create(context.Background(), expired))

	deleted, err := f.service.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	// The live session survives the sweep.
	_, err = f.service.Refresh(context.Background(), live.RefreshToken)
	assert.NoError(t, err)
}
