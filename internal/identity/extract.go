// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package identity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/ctxkey"
	"github.com/ijaa/alumni/internal/platform/ctxutil"
)

// Middleware decodes the X-USER_ID header once per request and stores the
// resulting [Assertion] in the request context.
//
// # Flow
//  1. Read the internal identity header.
//  2. If absent, the request proceeds as anonymous (public route, or the
//     gateway was bypassed — both are treated identically).
//  3. If present but undecodable, log at warn and proceed as anonymous.
//  4. On success, inject the assertion for the accessors below.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			headerValue := request.Header.Get(constants.HeaderIdentity)
			if headerValue == "" {
				next.ServeHTTP(writer, request)
				return
			}

			assertion, err := Decode(headerValue)
			if err != nil {
				// Malformed assertions resolve to anonymous, never to a
				// parsed partial identity.
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"identity_assertion_decode_failed",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			ctx := context.WithValue(request.Context(), ctxkey.KeyIdentity, &assertion)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// Current returns the identity assertion attached to the context.
//
// The boolean is false when the request is anonymous — either the route is
// public, the header was absent, or it failed to decode. Callers must treat
// all three identically.
func Current(ctx context.Context) (Assertion, bool) {
	if ctx == nil {
		return Assertion{}, false
	}
	assertion, ok := ctx.Value(ctxkey.KeyIdentity).(*Assertion)
	if !ok || assertion == nil {
		return Assertion{}, false
	}
	return *assertion, true
}

// # Convenience Projections
//
// Each accessor independently degrades to a "no identity" zero value instead
// of returning an error, so call sites stay linear.

// CurrentUsername returns the authenticated caller's login name, or "".
func CurrentUsername(ctx context.Context) string {
	assertion, ok := Current(ctx)
	if !ok {
		return ""
	}
	return assertion.Username
}

// CurrentUserID returns the authenticated caller's stable identifier, or "".
func CurrentUserID(ctx context.Context) string {
	assertion, ok := Current(ctx)
	if !ok {
		return ""
	}
	return assertion.UserID
}

// CurrentRole returns the authenticated caller's role string, or "".
func CurrentRole(ctx context.Context) string {
	assertion, ok := Current(ctx)
	if !ok {
		return ""
	}
	return assertion.Role
}

// HasRole reports whether the caller's role string equals the required role.
//
// Plain string equality only — the platform has no role hierarchy.
func HasRole(ctx context.Context, role string) bool {
	assertion, ok := Current(ctx)
	if !ok {
		return false
	}
	return assertion.Role == role
}

// IsAuthenticated reports whether the request carries a decodable assertion.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := Current(ctx)
	return ok
}
