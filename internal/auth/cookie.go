// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"net/http"
	"time"

	"github.com/ijaa/alumni/internal/platform/constants"
)

// cookiePolicy captures the environment-dependent knobs of the refresh
// cookie. Production demands HTTPS and strict same-site; development relaxes
// both so the browser keeps the cookie across localhost ports.
type cookiePolicy struct {
	secure   bool
	sameSite http.SameSite
}

func policyFor(production bool) cookiePolicy {
	if production {
		return cookiePolicy{secure: true, sameSite: http.SameSiteStrictMode}
	}
	return cookiePolicy{secure: false, sameSite: http.SameSiteLaxMode}
}

// setRefreshCookie injects the opaque refresh token as an HttpOnly cookie
// scoped to the auth endpoints. Scripts never see it; other routes never
// receive it.
func setRefreshCookie(writer http.ResponseWriter, token string, ttl time.Duration, policy cookiePolicy) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   policy.secure,
		HttpOnly: true,
		SameSite: policy.sameSite,
	})
}

// clearRefreshCookie expires the refresh cookie on the client.
func clearRefreshCookie(writer http.ResponseWriter, policy cookiePolicy) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   policy.secure,
		HttpOnly: true,
		SameSite: policy.sameSite,
	})
}

// refreshTokenFromRequest reads the refresh cookie, returning "" when absent.
func refreshTokenFromRequest(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
