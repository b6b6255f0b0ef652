package ws

import (
	"net/http"
	"net/url"
	"strings"
)

// IsOriginAllowed validates the request Origin header against an allow-list.
//
// Allowed entries support:
//   - Full Origin values with scheme, e.g. "https://example.com"
//   - Hostnames, e.g. "example.com"
//   - Wildcard hostnames, e.g. "*.example.com" (matches the base domain and
//     any subdomain)
//   - Exact non-standard Origin values, e.g. "null"
//
// If the request has no Origin header, allowNoOrigin controls acceptance.
func IsOriginAllowed(r *http.Request, allowed []string, allowNoOrigin bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return allowNoOrigin
	}
	hostname := ""
	if parsed, err := url.Parse(origin); err == nil {
		hostname = strings.ToLower(parsed.Hostname())
	}
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		switch {
		case strings.Contains(entry, "://"):
			if origin == entry {
				return true
			}
		case strings.HasPrefix(entry, "*."):
			base := strings.ToLower(strings.TrimPrefix(entry, "*."))
			if hostname != "" && base != "" && (hostname == base || strings.HasSuffix(hostname, "."+base)) {
				return true
			}
		default:
			if (hostname != "" && hostname == strings.ToLower(entry)) || origin == entry {
				return true
			}
		}
	}
	return false
}

// NewOriginChecker returns a websocket upgrader CheckOrigin function.
func NewOriginChecker(allowed []string, allowNoOrigin bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		return IsOriginAllowed(r, allowed, allowNoOrigin)
	}
}
