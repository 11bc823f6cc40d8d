// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/ijaa/alumni/internal/identity"
	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/ctxutil"
	"github.com/ijaa/alumni/internal/platform/respond"
	"github.com/ijaa/alumni/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the [sec] token
// service implementation, allowing us to easily inject mocks during unit
// testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Scope
//
// The user service validates tokens locally only for the endpoints it owns
// directly (password change, admin management). Requests arriving through
// the gateway already carry a trusted identity assertion instead; those are
// handled by the identity extractor, not here.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.AuthFailure(apperr.ReasonMalformedCredential))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyAccessToken(tokenStr)
			if err != nil {
				reason := apperr.ReasonMalformedCredential
				if err == sec.ErrTokenExpired {
					reason = apperr.ReasonExpiredCredential
				}
				respond.Error(writer, request, apperr.AuthFailure(reason))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithClaims(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetClaims(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.AuthFailure(apperr.ReasonMissingCredential))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks authenticated requests whose role claim does not equal
// the required role string.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically
// implies [RequireAuth] so you don't need to mount both.
//
// # Authorization Model
//
// The platform deliberately uses plain role-string equality — there is no
// hierarchy or permission lattice. 403 is reserved for this layer; the
// gateway only ever answers 401.
func RequireRole(role string) func(http.Handler) http.Handler {
	return RequireRoles(role)
}

// RequireRoles is the any-of variant of [RequireRole].
//
// The caller's role is taken from the gateway-minted identity assertion when
// present, falling back to locally verified token claims for direct
// service-to-service calls that skip the gateway.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			role := identity.CurrentRole(request.Context())
			if role == "" {
				if claims := ctxutil.GetClaims(request.Context()); claims != nil {
					role = claims.Role
				}
			}

			// ── 1. Authentication Check ───────────────────────────────────────
			if role == "" {
				respond.Error(writer, request, apperr.AuthFailure(apperr.ReasonMissingCredential))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !slices.Contains(roles, role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
