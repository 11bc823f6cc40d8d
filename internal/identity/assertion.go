// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

/*
Package identity decodes the gateway-minted identity assertion for every
backend service.

# Trust Model

The assertion is NOT a credential. It carries no signature, because it only
ever crosses a boundary the platform controls: the gateway verifies the
external access token once, mints the assertion, and forwards it on the
X-USER_ID header. Backend services trust the header byte-for-byte — the
network boundary, not cryptography, is the security control at this hop.

# Failure Posture

Business logic must never crash on a malformed or absent assertion. Every
accessor in this package swallows decode errors, logs at warn level, and
degrades to an anonymous result. The calling service decides whether
anonymity is acceptable for that endpoint.
*/
package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Principal kind markers carried in the userType field.
const (
	TypeUser  = "USER"
	TypeAdmin = "ADMIN"
)

// Assertion is the internal representation of "who the caller is".
//
// # Lifetime
//
// An assertion is owned by the request scope of a single downstream call.
// It must never be cached beyond the request.
type Assertion struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the assertion identifies an administrator.
func (a Assertion) IsAdmin() bool {
	return a.UserType == TypeAdmin
}

// Encode serializes the assertion to JSON and wraps it in URL-safe base64.
//
// The gateway is the only legitimate caller in production; tests use it to
// construct trusted headers. Marshalling a struct of four strings cannot
// fail, so no error is returned.
func (a Assertion) Encode() string {
	payload, _ := json.Marshal(a)
	return base64.RawURLEncoding.EncodeToString(payload)
}

// Decode parses a base64url header value back into an [Assertion].
//
// # Leniency
//
// Padding is accepted but not required, so values produced by either padded
// or raw encoders decode identically. Everything else is strict: undecodable
// base64, invalid JSON, or an empty username all fail.
func Decode(headerValue string) (Assertion, error) {
	trimmed := strings.TrimSpace(headerValue)
	if trimmed == "" {
		return Assertion{}, fmt.Errorf("identity: empty assertion header")
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(trimmed, "="))
	if err != nil {
		return Assertion{}, fmt.Errorf("identity: invalid base64 in assertion header: %w", err)
	}

	var assertion Assertion
	if err := json.Unmarshal(payload, &assertion); err != nil {
		return Assertion{}, fmt.Errorf("identity: invalid JSON in assertion header: %w", err)
	}

	// A nameless assertion is useless downstream; treat it as malformed
	// rather than letting half-empty identities leak into business logic.
	if assertion.Username == "" {
		return Assertion{}, fmt.Errorf("identity: assertion missing username")
	}

	return assertion, nil
}
