// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [auth.TokenProvider] interface, and into the
// gateway via its verifier interface.
package sec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token-type markers embedded in every signed token.
//
// # Defense In Depth
//
// Refresh tokens are opaque random strings and never JWTs, so a well-behaved
// client can never present one here. The marker exists so that even a
// lookalike structure signed with the right key is rejected at the gateway
// unless it was minted as an ACCESS token.
const (
	TokenTypeAccess = "ACCESS"
)

// Verification failure modes. Callers map these onto the platform's uniform
// 401 response while logging the precise cause.
var (
	// ErrTokenMalformed covers undecodable tokens and bad signatures.
	ErrTokenMalformed = errors.New("sec: token malformed or signature invalid")

	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrWrongTokenType indicates a valid signed token whose tokenType
	// marker is not ACCESS.
	ErrWrongTokenType = errors.New("sec: token is not an access token")
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// # Why custom claims?
//
// By embedding the identity fields directly inside the JWT, the gateway can
// mint the downstream identity assertion WITHOUT querying the database on
// every single request. Claim names mirror the platform-wide identity
// assertion shape so the two never drift apart.
type AuthClaims struct {
	jwt.RegisteredClaims

	Username  string `json:"username"`
	UserID    string `json:"userId"`
	UserType  string `json:"userType"`
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
//
// # Key Handling
//
// The symmetric signing key is injected at construction and shared only by
// the services that must validate tokens (the gateway and the user service).
// It is never read from a process-wide singleton.
type TokenService struct {
	key       []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenService creates a new TokenService from a base64-encoded secret.
//
// # Parameters
//   - base64Secret: The shared HS256 key, base64 (std or url) encoded.
//   - issuer: The 'iss' claim stamped on every token.
//   - accessTTL: Lifetime of issued access tokens.
func NewTokenService(base64Secret, issuer string, accessTTL time.Duration) (*TokenService, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(base64Secret)
	}
	if err != nil {
		return nil, fmt.Errorf("sec: failed to decode signing secret: %w", err)
	}

	// HS256 keys shorter than the hash output weaken the MAC.
	if len(key) < 32 {
		return nil, fmt.Errorf("sec: signing secret must be at least 256 bits, got %d bits", len(key)*8)
	}

	if accessTTL <= 0 {
		return nil, fmt.Errorf("sec: access token TTL must be positive")
	}

	return &TokenService{
		key:       key,
		issuer:    issuer,
		accessTTL: accessTTL,
	}, nil
}

// AccessTTL returns the configured lifetime of issued access tokens.
func (service *TokenService) AccessTTL() time.Duration {
	return service.accessTTL
}

// GenerateAccessToken creates a new signed access token for a principal.
//
// # Parameters
//   - username: The login name, also used as the 'sub' claim.
//   - userID: The stable identifier of the principal.
//   - userType: The principal kind marker (USER or ADMIN).
//   - role: The role string carried into downstream authorization checks.
func (service *TokenService) GenerateAccessToken(username, userID, userType, role string) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.accessTTL)),
		},
		Username:  username,
		UserID:    userID,
		UserType:  userType,
		Role:      role,
		TokenType: TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// # Returns
//   - The embedded [*AuthClaims] on success.
//   - [ErrTokenExpired] if the token is structurally valid but past expiry.
//   - [ErrTokenMalformed] for every other failure (bad base64, bad JSON,
//     wrong algorithm, invalid signature).
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.key, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// VerifyAccessToken verifies the token and additionally enforces the ACCESS
// token-type marker. This is the variant the gateway boundary must use.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
