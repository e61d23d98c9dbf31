package webfetch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leofalp/safefetch/internal/capture"
	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/internal/utils"
	"github.com/leofalp/safefetch/providers/observability"
)

// attemptResult is one physical fetch: direct, probe, smart candidate or
// smart fallback. When Unsupported is set the body was never read.
type attemptResult struct {
	Status        int
	StatusText    string
	ContentType   string
	ContentLength *int64
	LinkHeader    string
	FinalURL      string
	RedirectChain []string

	Unsupported bool
	Body        capture.Text
	JSShell     JSShellReport
}

// useful is the smart strategy's acceptance test for a fetched page.
func (a attemptResult) useful() bool {
	return !a.Unsupported &&
		a.Status >= 200 && a.Status < 300 &&
		!a.JSShell.IsShell &&
		strings.TrimSpace(a.Body.Sample) != ""
}

// attemptError carries the chain reached by a failed attempt.
type attemptError struct {
	chain []string
	err   error
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// attempt performs one fetch of u in the given mode. The response body and
// any capture file are closed before it returns on every path.
func (f *Fetcher) attempt(ctx context.Context, u *url.URL, origin string, hdr http.Header, mode Mode, maxChars int, span observability.Span) (attemptResult, error) {
	resp, chain, final, err := f.follow(ctx, u, origin, hdr, span)
	if err != nil {
		return attemptResult{}, &attemptError{chain: chain, err: err}
	}
	result := attemptResult{
		Status:        resp.StatusCode,
		StatusText:    reasonPhrase(resp),
		ContentType:   resp.Header.Get("Content-Type"),
		LinkHeader:    strings.Join(resp.Header.Values("Link"), ", "),
		FinalURL:      final.String(),
		RedirectChain: chain,
	}
	if resp.ContentLength >= 0 {
		result.ContentLength = utils.Ptr(resp.ContentLength)
	}

	if !isTextual(result.ContentType, f.cfg.ExtraTextTypes) {
		utils.DrainAndClose(resp.Body)
		result.Unsupported = true
		return result, nil
	}
	defer utils.CloseWithLog(resp.Body, "response body")

	opts := capture.Options{
		MaxLines:   f.cfg.MaxLines,
		MaxBytes:   f.cfg.MaxBytes,
		MaxChars:   maxChars,
		Charset:    charsetOf(result.ContentType),
		TempDir:    f.cfg.TempDir,
		ProbeBytes: f.cfg.ProbeBytes,
	}
	if mode == ModeProbe {
		result.Body, err = capture.Probe(ctx, resp.Body, opts)
		span.AddEvent(observability.EventFetchProbe,
			observability.String(observability.AttrFetchURL, redact.URL(result.FinalURL)),
			observability.Int64(observability.AttrFetchBytes, result.Body.BytesRead),
		)
	} else {
		result.Body, err = capture.Stream(ctx, resp.Body, opts)
	}
	if err != nil {
		return attemptResult{}, &attemptError{chain: chain, err: err}
	}

	result.JSShell = DetectJSShell(result.ContentType, result.Body.Sample)
	return result, nil
}

// reasonPhrase returns the server's reason phrase, falling back to the
// standard text for the code.
func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return statusText(resp.StatusCode)
}

// mergeChains joins the probe chain with the chain of a later attempt,
// dropping the first entry of next when it repeats the last of prev.
func mergeChains(prev, next []string) []string {
	out := append([]string(nil), prev...)
	if len(out) > 0 && len(next) > 0 && out[len(out)-1] == next[0] {
		next = next[1:]
	}
	return append(out, next...)
}
