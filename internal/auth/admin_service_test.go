// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijaa/alumni/internal/auth"
	"github.com/ijaa/alumni/internal/platform/apperr"
)

type adminFixture struct {
	*fixture
	adminService *auth.AdminService
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := newFixture(t)
	adminService := auth.NewAdminService(f.admins, f.users, f.refresh, f.service,
		slog.New(slog.DiscardHandler))
	return &adminFixture{fixture: f, adminService: adminService}
}

func (f *adminFixture) bootstrap(t *testing.T) *auth.Admin {
	t.Helper()
	admin, err := f.adminService.CreateAdmin(context.Background(), "", auth.CreateAdminInput{
		Email:    "root@ijaa.app",
		Name:     "Founding Admin",
		Password: "bootstrap pass 1",
	})
	require.NoError(t, err)
	return admin
}

/*
TestAdminService_Bootstrap verifies the first-admin rule: an empty admins
table admits one unauthenticated creation, which is always an ADMIN, and
the door closes immediately afterwards.
*/
func TestAdminService_Bootstrap(t *testing.T) {
	f := newAdminFixture(t)

	// First call: no caller identity, role request ignored.
	first, err := f.adminService.CreateAdmin(context.Background(), "", auth.CreateAdminInput{
		Email:    "root@ijaa.app",
		Name:     "Founding Admin",
		Password: "bootstrap pass 1",
		Role:     auth.RoleModerator, // requested but overridden
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, first.Role)
	assert.True(t, first.Active)

	// Second unauthenticated call must be rejected.
	_, err = f.adminService.CreateAdmin(context.Background(), "", auth.CreateAdminInput{
		Email:    "intruder@evil.example",
		Name:     "Intruder",
		Password: "whatever whatever",
		Role:     auth.RoleAdmin,
	})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 403, appError.HTTPStatus)

	// An authenticated admin caller can add more.
	second, err := f.adminService.CreateAdmin(context.Background(), auth.RoleAdmin, auth.CreateAdminInput{
		Email:    "mod@ijaa.app",
		Name:     "Second Admin",
		Password: "another pass 22",
		Role:     auth.RoleModerator,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleModerator, second.Role)

	// A plain member role cannot.
	_, err = f.adminService.CreateAdmin(context.Background(), auth.RoleUser, auth.CreateAdminInput{
		Email:    "user@ijaa.app",
		Name:     "Wannabe",
		Password: "member pass 333",
		Role:     auth.RoleAdmin,
	})
	appError = apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 403, appError.HTTPStatus)
}

/*
TestAdminService_LoginLifecycle verifies admin login and that deactivation
revokes authentication without deleting the account.
*/
func TestAdminService_LoginLifecycle(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)

	session, err := f.adminService.Login(context.Background(), "root@ijaa.app", "bootstrap pass 1")
	require.NoError(t, err)
	assert.Equal(t, auth.KindAdmin, session.Principal.Kind)
	assert.Equal(t, auth.RoleAdmin, session.Principal.Role)

	// Admin refresh tokens resolve through the admin store.
	rotated, err := f.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAdmin, rotated.Principal.Kind)

	// Create and deactivate a second admin.
	second, err := f.adminService.CreateAdmin(context.Background(), auth.RoleAdmin, auth.CreateAdminInput{
		Email:    "mod@ijaa.app",
		Name:     "Second Admin",
		Password: "another pass 22",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)

	secondSession, err := f.adminService.Login(context.Background(), "mod@ijaa.app", "another pass 22")
	require.NoError(t, err)

	require.NoError(t, f.adminService.Deactivate(context.Background(), founder.ID, second.ID))

	// The account record survives; only authentication dies.
	kept, err := f.admins.FindByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.False(t, kept.Active)

	_, err = f.adminService.Login(context.Background(), "mod@ijaa.app", "another pass 22")
	requireAuthFailure(t, err)

	_, err = f.service.Refresh(context.Background(), secondSession.RefreshToken)
	requireAuthFailure(t, err)

	// Reactivation restores login.
	require.NoError(t, f.adminService.Activate(context.Background(), founder.ID, second.ID))
	_, err = f.adminService.Login(context.Background(), "mod@ijaa.app", "another pass 22")
	assert.NoError(t, err)
}

/*
TestAdminService_NoSelfDeactivation verifies an admin cannot lock the
platform out by deactivating its own account.
*/
func TestAdminService_NoSelfDeactivation(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)

	err := f.adminService.Deactivate(context.Background(), founder.ID, founder.ID)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 403, appError.HTTPStatus)

	// A caller whose identity could not be resolved gets the same refusal.
	err = f.adminService.Deactivate(context.Background(), "", founder.ID)
	appError = apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 403, appError.HTTPStatus)

	stored, findErr := f.admins.FindByID(context.Background(), founder.ID)
	require.NoError(t, findErr)
	assert.True(t, stored.Active)
}

/*
TestAdminService_DeleteUser verifies hard deletion of member accounts and
session revocation.
*/
func TestAdminService_DeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)
	f.register(t, "alice", "correct horse battery")

	session, err := f.service.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, f.adminService.DeleteUser(context.Background(), founder.ID, "alice"))

	_, err = f.users.FindByUsername(context.Background(), "alice")
	assert.Error(t, err)

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	requireAuthFailure(t, err)

	// Deleting an unknown member is a 404, not a silent success.
	err = f.adminService.DeleteUser(context.Background(), founder.ID, "alice")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
}

/*
TestAdminService_ChangePassword verifies the admin password path revokes
outstanding sessions.
*/
func TestAdminService_ChangePassword(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)

	session, err := f.adminService.Login(context.Background(), "root@ijaa.app", "bootstrap pass 1")
	require.NoError(t, err)

	require.NoError(t, f.adminService.ChangePassword(
		context.Background(), founder.ID, "bootstrap pass 1", "rotated pass 22"))

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	requireAuthFailure(t, err)

	_, err = f.adminService.Login(context.Background(), "root@ijaa.app", "rotated pass 22")
	assert.NoError(t, err)
}
