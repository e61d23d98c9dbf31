// Package redact removes credentials from URLs and header sets before they
// are logged or returned to a caller.
package redact

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Marker replaces every redacted header value.
const Marker = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Cookie":              true,
	"Proxy-Authorization": true,
	"X-Api-Key":           true,
	"X-Auth-Token":        true,
}

var sensitiveFragments = []string{"token", "secret", "password", "session"}

// userinfoRe matches "scheme://user[:pass]@" in strings that url.Parse rejects.
var userinfoRe = regexp.MustCompile(`(?i)([a-z][a-z0-9+.\-]*://)[^/?#@\s]+@`)

// URL strips a user:password@ component from raw. Structured parsing is tried
// first; strings that do not parse fall back to a regular expression.
func URL(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") && strings.Contains(raw, "@") {
		// Scheme-less input is fetched as https; redact it the same way.
		return strings.TrimPrefix(URL("https://"+raw), "https://")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && u.Host != "" {
		if u.User == nil {
			return raw
		}
		u.User = nil
		return u.String()
	}
	return userinfoRe.ReplaceAllString(raw, "$1")
}

// URLs applies URL to every element, returning a new slice.
func URLs(raws []string) []string {
	if raws == nil {
		return nil
	}
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = URL(r)
	}
	return out
}

// Text removes credentials from any http(s) URL embedded in free text, such
// as transport error messages that quote the request URL.
func Text(s string) string {
	return userinfoRe.ReplaceAllString(s, "$1")
}

// IsSensitiveHeader reports whether a header value must not be displayed.
func IsSensitiveHeader(name string) bool {
	canonical := http.CanonicalHeaderKey(strings.TrimSpace(name))
	if sensitiveHeaders[canonical] {
		return true
	}
	lower := strings.ToLower(canonical)
	for _, frag := range sensitiveFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Headers returns a flat copy of h with sensitive values replaced by Marker.
// Multi-valued headers are joined with ", ".
func Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if IsSensitiveHeader(name) {
			out[name] = Marker
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// SortedNames returns the keys of m in lexical order. It keeps diagnostic
// output stable.
func SortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
