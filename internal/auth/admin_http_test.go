// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijaa/alumni/internal/auth"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/middleware"
	"github.com/ijaa/alumni/internal/platform/sec"
)

// mountAdminRoutes wires the admin handler behind the local bearer
// authenticator, the way a request reaches it when it skips the gateway.
func mountAdminRoutes(t *testing.T, f *adminFixture) (chi.Router, *sec.TokenService) {
	t.Helper()

	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	tokens, err := sec.NewTokenService(secret, "ijaa.app", 15*time.Minute)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/", auth.NewAdminHandler(f.adminService, false).Routes())
	return router, tokens
}

/*
TestAdminHandler_LocalTokenCannotSelfDeactivate covers the direct-call path:
a request authenticated only by a locally verified bearer token, with no
gateway assertion header, must still be recognized as the acting admin. A
self-deactivation through that path is refused and the account stays active.
*/
func TestAdminHandler_LocalTokenCannotSelfDeactivate(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)

	router, tokens := mountAdminRoutes(t, f)

	tokenString, err := tokens.GenerateAccessToken(
		founder.Email, founder.ID, auth.KindAdmin, founder.Role)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPut, "/admins/"+founder.ID+"/deactivate", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+tokenString)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)

	stored, err := f.admins.FindByID(context.Background(), founder.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}

/*
TestAdminHandler_LocalTokenActsAsCaller verifies the flip side: a locally
verified token resolves to a real caller identity, so deactivating a
different admin and changing the caller's own password both work without a
gateway in front.
*/
func TestAdminHandler_LocalTokenActsAsCaller(t *testing.T) {
	f := newAdminFixture(t)
	founder := f.bootstrap(t)

	other, err := f.adminService.CreateAdmin(context.Background(), founder.Role, auth.CreateAdminInput{
		Email:    "second@ijaa.app",
		Name:     "Second Admin",
		Password: "second pass 22",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)

	router, tokens := mountAdminRoutes(t, f)

	tokenString, err := tokens.GenerateAccessToken(
		founder.Email, founder.ID, auth.KindAdmin, founder.Role)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPut, "/admins/"+other.ID+"/deactivate", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+tokenString)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	stored, err := f.admins.FindByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	body := strings.NewReader(`{"current_password":"bootstrap pass 1","new_password":"rotated pass 22"}`)
	request = httptest.NewRequest(http.MethodPost, "/password", body)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+tokenString)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	_, err = f.adminService.Login(context.Background(), "root@ijaa.app", "rotated pass 22")
	assert.NoError(t, err)
}
