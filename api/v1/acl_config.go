package v1

import (
	"net/http"
	"strings"
)

var authenticationAllowlist = map[string]bool{
	"/api/v1/signup": true,
	"/api/v1/signin": true,
}

// Public browsing of the catalog, the popularity feeds and the comment
// threads needs no account. Writes below these prefixes still require a
// token, so only GET and the websocket upgrade are exempted.
var authenticationAllowlistPrefixes = []string{
	"/api/v1/manga",
	"/api/v1/chapters",
	"/api/v1/recommendations",
	"/api/v1/ws/comments",
}

// isUnauthorizeAllowed returns whether the request is exempted from authentication.
func isUnauthorizeAllowed(r *http.Request) bool {
	if authenticationAllowlist[r.URL.Path] {
		return true
	}
	if r.Method != http.MethodGet {
		return false
	}
	for _, prefix := range authenticationAllowlistPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

var allowedPathOnlyForAdmin = map[string]bool{
	"/api/v1/chapters/upload": true,
	"/api/v1/jobs":            true,
}

// isOnlyForAdminAllowedPath returns true if the path is allowed to be called only by admin.
func isOnlyForAdminAllowedPath(methodName string) bool {
	return allowedPathOnlyForAdmin[methodName]
}
