package webfetch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/leofalp/safefetch/internal/redact"
)

// schemeRe matches a leading "scheme:" token.
var schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):`)

// hostPortRe matches "host:port" forms that look like a scheme to the regexp
// above, e.g. "localhost:8080/path" or "example.com:443".
var hostPortRe = regexp.MustCompile(`^[^:/?#\s]+:\d+(?:[/?#]|$)`)

type target struct {
	URL  *url.URL
	Host string
}

// resolveURL trims, completes and validates a user-supplied URL. Credentials
// are kept in the result so that they are sent with the request.
func resolveURL(raw string) (target, *FetchError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return target{}, newFetchError(KindEmptyURL, "URL is empty")
	}

	if !hasScheme(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return target{}, newFetchError(KindInvalidURL, "Invalid URL: %s", redact.URL(s))
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return target{}, newFetchError(KindUnsupportedScheme,
			"Unsupported URL scheme %q: only http and https URLs can be fetched", u.Scheme)
	}
	u.Scheme = scheme
	if u.Hostname() == "" {
		return target{}, newFetchError(KindInvalidURL, "Invalid URL: missing host in %s", redact.URL(s))
	}
	return target{URL: u, Host: u.Hostname()}, nil
}

func hasScheme(s string) bool {
	if !schemeRe.MatchString(s) {
		return false
	}
	return !hostPortRe.MatchString(s)
}
