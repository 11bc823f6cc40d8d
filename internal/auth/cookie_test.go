// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijaa/alumni/internal/platform/constants"
)

/*
TestRefreshCookie_ReturnsThroughGateway verifies the cookie path from the
browser's point of view: the Set-Cookie issued on login must come back on a
subsequent refresh call, and both travel via the gateway prefix. A cookie
scoped to the service-local path would be silently dropped by the jar here.
*/
func TestRefreshCookie_ReturnsThroughGateway(t *testing.T) {
	recorder := httptest.NewRecorder()
	setRefreshCookie(recorder, "opaque-refresh-token", time.Hour, policyFor(false))

	loginURL, err := url.Parse("https://gateway.ijaa.app" + constants.GatewayPrefix + "/api/v1/auth/login")
	require.NoError(t, err)
	refreshURL, err := url.Parse("https://gateway.ijaa.app" + constants.GatewayPrefix + "/api/v1/auth/refresh")
	require.NoError(t, err)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	jar.SetCookies(loginURL, readSetCookies(t, recorder))

	sent := jar.Cookies(refreshURL)
	require.Len(t, sent, 1)
	assert.Equal(t, constants.RefreshTokenCookieName, sent[0].Name)
	assert.Equal(t, "opaque-refresh-token", sent[0].Value)

	// Unrelated gateway routes never see the refresh token.
	eventsURL, err := url.Parse("https://gateway.ijaa.app" + constants.GatewayPrefix + "/api/v1/events/42")
	require.NoError(t, err)
	assert.Empty(t, jar.Cookies(eventsURL))
}

/*
TestClearRefreshCookie_MatchesSetPath verifies logout expires the cookie on
the same path it was set on, so the browser actually drops it.
*/
func TestClearRefreshCookie_MatchesSetPath(t *testing.T) {
	setRec := httptest.NewRecorder()
	setRefreshCookie(setRec, "opaque-refresh-token", time.Hour, policyFor(true))

	clearRec := httptest.NewRecorder()
	clearRefreshCookie(clearRec, policyFor(true))

	set := readSetCookies(t, setRec)
	cleared := readSetCookies(t, clearRec)
	require.Len(t, set, 1)
	require.Len(t, cleared, 1)

	assert.Equal(t, set[0].Path, cleared[0].Path)
	assert.Equal(t, constants.GatewayPrefix+"/api/v1/auth", set[0].Path)
	assert.True(t, cleared[0].MaxAge < 0)
}

func readSetCookies(t *testing.T, recorder *httptest.ResponseRecorder) []*http.Cookie {
	t.Helper()
	response := http.Response{Header: recorder.Header()}
	return response.Cookies()
}
