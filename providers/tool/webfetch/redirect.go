package webfetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/internal/utils"
	"github.com/leofalp/safefetch/providers/observability"
)

// maxRedirects is the hard hop cap. Config.MaxRedirects may lower it.
const maxRedirects = 10

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// follow issues GET requests starting at start, following redirects by hand
// so that every hop passes the guard. The returned chain starts with start
// and ends with the final URL; it is also returned on error.
func (f *Fetcher) follow(ctx context.Context, start *url.URL, origin string, hdr http.Header, span observability.Span) (*http.Response, []string, *url.URL, error) {
	current := start
	chain := []string{start.String()}

	for {
		if err := ctx.Err(); err != nil {
			return nil, chain, current, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, chain, current, newFetchError(KindInvalidURL, "Invalid URL: %s", redact.URL(current.String()))
		}
		req.Header = headersFor(hdr, origin, current.Hostname())

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, chain, current, err
		}

		location := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || strings.TrimSpace(location) == "" {
			return resp, chain, current, nil
		}

		next, err := current.Parse(strings.TrimSpace(location))
		if err != nil {
			utils.DrainAndClose(resp.Body)
			return nil, chain, current, newFetchError(KindInvalidURL,
				"Redirect from %s has an invalid Location header", redact.URL(current.String()))
		}
		if next.Scheme != "http" && next.Scheme != "https" {
			utils.DrainAndClose(resp.Body)
			return nil, chain, current, newFetchError(KindUnsupportedScheme,
				"Redirect to unsupported URL scheme %q refused", next.Scheme)
		}
		if verdict := f.guard.CheckURL(next); verdict.Blocked {
			utils.DrainAndClose(resp.Body)
			span.AddEvent(observability.EventFetchBlocked,
				observability.String(observability.AttrFetchLocation, redact.URL(next.String())),
				observability.String(observability.AttrFetchBlockReason, verdict.Reason),
			)
			return nil, chain, current, &RedirectBlockedError{URL: next.String(), Reason: verdict.Reason}
		}

		utils.DrainAndClose(resp.Body)
		if len(chain)-1 >= f.maxRedirects() {
			return nil, chain, current, &TooManyRedirectsError{Chain: chain}
		}

		chain = append(chain, next.String())
		span.AddEvent(observability.EventFetchRedirect,
			observability.Int(observability.AttrFetchHop, len(chain)-1),
			observability.Int(observability.AttrFetchStatus, resp.StatusCode),
			observability.String(observability.AttrFetchLocation, redact.URL(next.String())),
		)
		current = next
	}
}
