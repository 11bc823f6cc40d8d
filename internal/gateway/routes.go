// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

/*
Package gateway implements the single public entrance of the IJAA platform.

Every request crosses exactly one trust boundary: here. The gateway
authenticates bearer tokens, mints the identity assertion header that
backend services trust implicitly, and reverse-proxies the request to the
owning service. Backends never re-validate signatures; they only decode the
assertion.
*/
package gateway

import (
	"sort"
	"strings"
)

// Logical backend service names. These double as registry keys and as the
// service label in proxy logs and 502 messages.
const (
	ServiceUser  = "user-service"
	ServiceEvent = "event-service"
	ServiceFile  = "file-service"
)

// Rule binds one path prefix to a backend service and an access mode.
//
// A prefix always denotes a whole path segment boundary: the rule /api/v1/files/
// matches /api/v1/files/upload but never /api/v1/filesystem.
type Rule struct {
	// Prefix is the gateway-relative path prefix, after the platform prefix
	// has been stripped. Must begin and end with a slash.
	Prefix string

	// Service is the logical backend that owns this prefix.
	Service string

	// Protected marks prefixes that require a valid access token. Requests
	// without one are answered 401 at the gateway and never reach the
	// backend.
	Protected bool
}

// Table is an ordered set of routing rules with longest-prefix matching.
//
// # Carve-Outs
//
// Public sub-paths under protected prefixes (for example browser-loadable
// profile pictures under the otherwise protected files API) are expressed
// as additional rules with a longer prefix and Protected false. Because the
// most specific rule always wins, a carve-out needs no special casing.
type Table struct {
	rules []Rule
}

// NewTable builds a routing table. Rules are sorted longest-prefix-first
// once so Match is a simple linear scan.
func NewTable(rules []Rule) *Table {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Table{rules: sorted}
}

// DefaultRules returns the platform routing table.
func DefaultRules() []Rule {
	return []Rule{
		// Authentication endpoints must be reachable without a token.
		{Prefix: "/api/v1/auth/", Service: ServiceUser, Protected: false},

		// Admin endpoints stay publicly routable: admin login needs no
		// token, and the founding-admin bootstrap must be able to reach
		// account creation on an empty system. Role checks are enforced
		// inside the user service.
		{Prefix: "/api/v1/admin/", Service: ServiceUser, Protected: false},

		// Member profile surface.
		{Prefix: "/api/v1/users/", Service: ServiceUser, Protected: true},

		// Event management.
		{Prefix: "/api/v1/events/", Service: ServiceEvent, Protected: true},

		// File management is protected, but the raw serving endpoints are
		// carved out so <img> tags can load them without an Authorization
		// header.
		{Prefix: "/api/v1/files/", Service: ServiceFile, Protected: true},
		{Prefix: "/api/v1/files/serve/profile-picture/", Service: ServiceFile, Protected: false},
		{Prefix: "/api/v1/files/serve/cover-photo/", Service: ServiceFile, Protected: false},
		{Prefix: "/api/v1/files/serve/event-banner/", Service: ServiceFile, Protected: false},
	}
}

// Match returns the most specific rule whose prefix matches the path, or
// false when no rule routes the path.
func (table *Table) Match(path string) (Rule, bool) {
	// Normalized so /api/v1/files matches the /api/v1/files/ rule.
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	for _, rule := range table.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}
