// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package gateway_test

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijaa/alumni/internal/gateway"
	"github.com/ijaa/alumni/internal/identity"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/sec"
)

/*
TestTable_Match verifies longest-prefix routing and the public carve-outs
under protected prefixes.
*/
func TestTable_Match(t *testing.T) {
	table := gateway.NewTable(gateway.DefaultRules())

	cases := []struct {
		path      string
		service   string
		protected bool
		routed    bool
	}{
		{"/api/v1/auth/login", gateway.ServiceUser, false, true},
		{"/api/v1/admin/login", gateway.ServiceUser, false, true},
		{"/api/v1/users/me", gateway.ServiceUser, true, true},
		{"/api/v1/events/42", gateway.ServiceEvent, true, true},
		{"/api/v1/files/upload", gateway.ServiceFile, true, true},

		// Carve-outs: most specific rule wins over the protected parent.
		{"/api/v1/files/serve/profile-picture/alice.png", gateway.ServiceFile, false, true},
		{"/api/v1/files/serve/cover-photo/alice.png", gateway.ServiceFile, false, true},
		{"/api/v1/files/serve/event-banner/42.png", gateway.ServiceFile, false, true},

		// Sibling of a carve-out stays protected.
		{"/api/v1/files/serve/private/secret.pdf", gateway.ServiceFile, true, true},

		// Prefixes bind at segment boundaries.
		{"/api/v1/filesystem", "", false, false},

		// Bare prefix match.
		{"/api/v1/files", gateway.ServiceFile, true, true},

		// Unrouted paths.
		{"/api/v2/anything", "", false, false},
		{"/", "", false, false},
	}

	for _, testCase := range cases {
		rule, ok := table.Match(testCase.path)
		assert.Equal(t, testCase.routed, ok, "path %s", testCase.path)
		if testCase.routed {
			assert.Equal(t, testCase.service, rule.Service, "path %s", testCase.path)
			assert.Equal(t, testCase.protected, rule.Protected, "path %s", testCase.path)
		}
	}
}

// stubVerifier returns canned claims or a canned error.
type stubVerifier struct {
	claims *sec.AuthClaims
	err    error
}

func (verifier stubVerifier) VerifyAccessToken(string) (*sec.AuthClaims, error) {
	return verifier.claims, verifier.err
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// runFilter sends request through the auth filter and captures what the
// backend would have received.
func runFilter(t *testing.T, rule gateway.Rule, verifier gateway.TokenVerifier, request *http.Request) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var forwarded *http.Request
	backend := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		forwarded = request
		writer.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	filter := gateway.NewAuthFilter(verifier, discardLogger())
	filter.Apply(rule, backend).ServeHTTP(recorder, request)
	return recorder, forwarded
}

/*
TestAuthFilter_StripsClientIdentityHeader verifies the core trust
invariant: whatever identity header the client sends is discarded, on
public and protected routes alike.
*/
func TestAuthFilter_StripsClientIdentityHeader(t *testing.T) {
	forged := identity.Assertion{Username: "root", UserID: "0", UserType: identity.TypeAdmin, Role: "ADMIN"}

	// Public route, no token: forwarded anonymously, forged header gone.
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	request.Header.Set(constants.HeaderIdentity, forged.Encode())

	publicRule := gateway.Rule{Prefix: "/api/v1/auth/", Service: gateway.ServiceUser, Protected: false}
	recorder, forwarded := runFilter(t, publicRule, stubVerifier{err: sec.ErrTokenMalformed}, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, forwarded)
	assert.Empty(t, forwarded.Header.Get(constants.HeaderIdentity))

	// Protected route with a valid token: forged header replaced by the
	// gateway-minted one, never merged.
	claims := &sec.AuthClaims{Username: "alice", UserID: "user-123", UserType: "USER", Role: "USER"}
	request = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer sometoken")
	request.Header.Set(constants.HeaderIdentity, forged.Encode())

	protectedRule := gateway.Rule{Prefix: "/api/v1/users/", Service: gateway.ServiceUser, Protected: true}
	recorder, forwarded = runFilter(t, protectedRule, stubVerifier{claims: claims}, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, forwarded)

	minted, err := identity.Decode(forwarded.Header.Get(constants.HeaderIdentity))
	require.NoError(t, err)
	assert.Equal(t, "alice", minted.Username)
	assert.Equal(t, "user-123", minted.UserID)
	assert.Equal(t, "USER", minted.Role)
}

/*
TestAuthFilter_ProtectedRejections verifies every credential failure on a
protected route is a 401 with the identical client-facing body.
*/
func TestAuthFilter_ProtectedRejections(t *testing.T) {
	protectedRule := gateway.Rule{Prefix: "/api/v1/users/", Service: gateway.ServiceUser, Protected: true}

	cases := map[string]struct {
		authHeader string
		verifier   stubVerifier
	}{
		"missing header":   {"", stubVerifier{}},
		"not bearer":       {"Basic dXNlcjpwYXNz", stubVerifier{}},
		"malformed token":  {"Bearer garbage", stubVerifier{err: sec.ErrTokenMalformed}},
		"expired token":    {"Bearer expired", stubVerifier{err: sec.ErrTokenExpired}},
		"wrong token type": {"Bearer refresh", stubVerifier{err: sec.ErrWrongTokenType}},
	}

	var bodies []string
	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if testCase.authHeader != "" {
				request.Header.Set(constants.HeaderAuthorization, testCase.authHeader)
			}

			recorder, forwarded := runFilter(t, protectedRule, testCase.verifier, request)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Nil(t, forwarded, "request must not reach the backend")

			var body map[string]any
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			payload, err := json.Marshal(body["error"])
			require.NoError(t, err)
			bodies = append(bodies, string(payload))
		})
	}

	// Uniform failure: every rejection body is byte-identical.
	for _, body := range bodies[1:] {
		assert.Equal(t, bodies[0], body)
	}
}

/*
TestAuthFilter_PublicRouteWithValidToken verifies the courtesy assertion on
public routes.
*/
func TestAuthFilter_PublicRouteWithValidToken(t *testing.T) {
	claims := &sec.AuthClaims{Username: "alice", UserID: "user-123", UserType: "USER", Role: "USER"}
	publicRule := gateway.Rule{Prefix: "/api/v1/auth/", Service: gateway.ServiceUser, Protected: false}

	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer sometoken")

	recorder, forwarded := runFilter(t, publicRule, stubVerifier{claims: claims}, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, forwarded)

	minted, err := identity.Decode(forwarded.Header.Get(constants.HeaderIdentity))
	require.NoError(t, err)
	assert.Equal(t, "alice", minted.Username)
}

/*
TestAuthFilter_EndToEnd runs the filter against the real token service:
fresh tokens pass protected routes, expired tokens do not, and the minted
assertion mirrors the token claims exactly.
*/
func TestAuthFilter_EndToEnd(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	protectedRule := gateway.Rule{Prefix: "/api/v1/events/", Service: gateway.ServiceEvent, Protected: true}

	// Fresh token passes and mints the matching assertion.
	issuer, err := sec.NewTokenService(secret, "ijaa.app", 15*time.Minute)
	require.NoError(t, err)

	tokenString, err := issuer.GenerateAccessToken("alice", "user-123", "USER", "USER")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/events/42", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+tokenString)

	recorder, forwarded := runFilter(t, protectedRule, issuer, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, forwarded)

	minted, err := identity.Decode(forwarded.Header.Get(constants.HeaderIdentity))
	require.NoError(t, err)
	assert.Equal(t, identity.Assertion{
		Username: "alice", UserID: "user-123", UserType: "USER", Role: "USER",
	}, minted)

	// A token past its TTL is rejected at the boundary.
	shortIssuer, err := sec.NewTokenService(secret, "ijaa.app", time.Nanosecond)
	require.NoError(t, err)

	expiredToken, err := shortIssuer.GenerateAccessToken("alice", "user-123", "USER", "USER")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	request = httptest.NewRequest(http.MethodGet, "/api/v1/events/42", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+expiredToken)

	recorder, forwarded = runFilter(t, protectedRule, issuer, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Nil(t, forwarded)
}
