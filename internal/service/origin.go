package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/headless-comments-api/internal/models"
)

// ResolveOrigin returns the value for Access-Control-Allow-Origin, or "" when no
// CORS headers should be sent.
//
// With a wildcard entry the request origin is echoed (credentials are always allowed,
// and browsers reject "*" together with credentials); "*" is used only when the request
// carried no origin. Otherwise the origin must match an entry exactly.
func ResolveOrigin(allowed []string, requestOrigin string) string {
	if len(allowed) == 0 {
		return ""
	}

	requestOrigin = strings.TrimSpace(requestOrigin)
	for _, o := range allowed {
		if o == models.WildcardOrigin {
			if requestOrigin != "" {
				return requestOrigin
			}
			return models.WildcardOrigin
		}
	}

	if requestOrigin == "" {
		return ""
	}
	for _, o := range allowed {
		if o == requestOrigin {
			return requestOrigin
		}
	}
	return ""
}

// KeysMatch compares a presented API key against the stored one in constant time.
// Both sides are hashed first so the comparison does not depend on their lengths.
// An empty stored key never matches.
func KeysMatch(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
