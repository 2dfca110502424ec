package auth

import (
	"net/url"
	"strings"
)

// SafeRedirect returns next when it is a local path on this site and
// fallback otherwise. Absolute URLs, scheme-relative URLs and backslash
// tricks are rejected.
func SafeRedirect(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
