package webfetch

import (
	"net/http"
	"sort"
	"strings"

	"github.com/leofalp/safefetch/internal/redact"
)

// DefaultAccept prefers markdown over HTML.
const DefaultAccept = "text/markdown, text/html"

var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

var reservedHeaders = map[string]bool{
	"Accept-Encoding": true,
	"Content-Length":  true,
	"Host":            true,
}

// credentialHeaders are not forwarded to a host other than the one the
// caller asked for.
var credentialHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}

type preparedHeaders struct {
	Header   http.Header
	Accept   string
	Blocked  []string
	Redacted map[string]string
}

// prepareHeaders builds the outbound header set. defaults are applied first
// and may be overridden by custom. Only names supplied in custom are reported
// as blocked; forbidden names in defaults are dropped silently.
func prepareHeaders(accept string, custom, defaults map[string]string, userAgent string) preparedHeaders {
	h := make(http.Header)
	blocked := map[string]bool{}
	customAccept := ""

	merge := func(src map[string]string, report bool) {
		for _, name := range redact.SortedNames(src) {
			canonical := http.CanonicalHeaderKey(strings.TrimSpace(name))
			if canonical == "" {
				continue
			}
			if hopByHopHeaders[canonical] || reservedHeaders[canonical] {
				if report {
					blocked[canonical] = true
				}
				continue
			}
			if canonical == "Accept" {
				customAccept = strings.TrimSpace(src[name])
				continue
			}
			h.Set(canonical, src[name])
		}
	}
	merge(defaults, false)
	merge(custom, true)

	switch {
	case strings.TrimSpace(accept) != "":
		h.Set("Accept", strings.TrimSpace(accept))
	case customAccept != "":
		h.Set("Accept", customAccept)
	default:
		h.Set("Accept", DefaultAccept)
	}
	h.Set("Accept-Encoding", "identity")
	if h.Get("User-Agent") == "" && userAgent != "" {
		h.Set("User-Agent", userAgent)
	}

	names := make([]string, 0, len(blocked))
	for name := range blocked {
		names = append(names, name)
	}
	sort.Strings(names)

	return preparedHeaders{
		Header:   h,
		Accept:   h.Get("Accept"),
		Blocked:  names,
		Redacted: redact.Headers(h),
	}
}

// headersFor returns the headers to send to dest. Credential headers are
// dropped when dest is not the originally requested host.
func headersFor(h http.Header, origin, dest string) http.Header {
	out := h.Clone()
	if !strings.EqualFold(origin, dest) {
		for _, name := range credentialHeaders {
			out.Del(name)
		}
	}
	return out
}
