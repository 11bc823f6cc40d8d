// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a cryptographically random, URL-safe opaque
// string built from byteLength random bytes.
//
// # Usage
//
// Refresh tokens use 64 bytes (512 bits). The result is meaningless without
// a server-side lookup, which is exactly the hook needed for revocation.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token string.
//
// # Why hash at rest?
//
// Only the digest is persisted, so a leaked database dump cannot be replayed
// as live refresh tokens. SHA-256 (not bcrypt) is sufficient because the
// input already carries full cryptographic entropy.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
