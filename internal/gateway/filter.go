// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ijaa/alumni/internal/identity"
	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/ctxutil"
	"github.com/ijaa/alumni/internal/platform/respond"
	"github.com/ijaa/alumni/internal/platform/sec"
)

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// AuthFilter is the trust boundary of the platform.
//
// # Invariants
//
//  1. The inbound identity header is ALWAYS discarded, on every route,
//     before anything else happens. Clients cannot impersonate.
//  2. A protected route is only ever forwarded with a gateway-minted
//     assertion derived from a verified token.
//  3. A public route is forwarded anonymously unless the client volunteers
//     a valid token, in which case the assertion is minted as a courtesy so
//     backends can personalize public responses.
//
// Every rejection is a 401 with the same client-facing message; the precise
// cause is only logged.
type AuthFilter struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuthFilter constructs the gateway authentication filter.
func NewAuthFilter(verifier TokenVerifier, logger *slog.Logger) *AuthFilter {
	return &AuthFilter{verifier: verifier, logger: logger}
}

// Apply enforces the rule's access mode on the request and stamps the
// identity assertion header before handing off to next (the proxy).
func (filter *AuthFilter) Apply(rule Rule, next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// Invariant 1: strip whatever the client sent.
		request.Header.Del(constants.HeaderIdentity)

		claims, reason := filter.verify(request)

		if rule.Protected && claims == nil {
			filter.logger.Warn("gateway_auth_rejected",
				slog.String("path", request.URL.Path),
				slog.String("reason", string(reason)),
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			)
			respond.Error(writer, request, apperr.AuthFailure(reason))
			return
		}

		if claims != nil {
			assertion := identity.Assertion{
				Username: claims.Username,
				UserID:   claims.UserID,
				UserType: claims.UserType,
				Role:     claims.Role,
			}
			request.Header.Set(constants.HeaderIdentity, assertion.Encode())
		}

		next.ServeHTTP(writer, request)
	})
}

// verify extracts and validates the bearer token. A nil claims return means
// the request proceeds anonymously; reason says why.
func (filter *AuthFilter) verify(request *http.Request) (*sec.AuthClaims, apperr.Reason) {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return nil, apperr.ReasonMissingCredential
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return nil, apperr.ReasonMalformedCredential
	}

	claims, err := filter.verifier.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.ReasonExpiredCredential
		}
		return nil, apperr.ReasonMalformedCredential
	}

	return claims, ""
}
