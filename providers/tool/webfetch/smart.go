package webfetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/providers/observability"
)

// outcome is what a strategy hands to the formatter.
type outcome struct {
	attempt attemptResult
	// probe is set by the smart strategy.
	probe      *attemptResult
	candidates []Candidate
	alternate  *Candidate
	notes      []string
	advisory   string
}

func (o *outcome) note(format string, args ...any) {
	o.notes = append(o.notes, fmt.Sprintf(format, args...))
}

// smart probes the target, tries markdown alternates in discovery order and
// falls back to the page itself. Fetches are strictly sequential and the
// context is checked before each one.
func (f *Fetcher) smart(ctx context.Context, tgt target, hdr preparedHeaders, req request, span observability.Span) (outcome, error) {
	var out outcome

	probe, err := f.attempt(ctx, tgt.URL, tgt.Host, hdr.Header, ModeProbe, req.MaxChars, span)
	if err != nil {
		out.note("probe failed: %s", redact.Text(err.Error()))
		return out, err
	}
	out.probe = &probe
	if probe.Unsupported {
		out.note("probe: unsupported content-type %q, stopping", probe.ContentType)
		out.attempt = probe
		return out, nil
	}
	out.note("probe: status %d, %s, sampled %s", probe.Status, mediaTypeOrNone(probe.ContentType),
		humanize.IBytes(uint64(probe.Body.BytesRead)))
	if probe.JSShell.IsShell {
		out.note("probe: page looks like a JavaScript shell (%s)", strings.Join(probe.JSShell.Signals, ", "))
	}

	out.candidates = discoverCandidates(probe)
	out.note("discovered %d alternate candidate(s)", len(out.candidates))

	for i := range out.candidates {
		c := out.candidates[i]
		shown := redact.URL(c.URL)
		if err := ctx.Err(); err != nil {
			return out, err
		}

		cu, err := url.Parse(c.URL)
		if err != nil {
			out.note("skipped %s (%s): invalid URL", shown, c.Source)
			continue
		}
		if verdict := f.guard.CheckURL(cu); verdict.Blocked {
			f.obs.Counter(observability.MetricFetchBlocked).Add(ctx, 1)
			out.note("skipped %s (%s): %s", shown, c.Source, verdict.Reason)
			continue
		}

		span.AddEvent(observability.EventFetchCandidate,
			observability.String(observability.AttrFetchCandidate, shown),
			observability.String(observability.AttrFetchCandidateSource, string(c.Source)),
		)
		res, err := f.attempt(ctx, cu, tgt.Host, hdr.Header, req.Mode, req.MaxChars, span)
		if err != nil {
			if ctx.Err() != nil {
				return out, err
			}
			out.note("skipped %s (%s): %s", shown, c.Source, redact.Text(err.Error()))
			continue
		}
		if res.Unsupported {
			out.note("skipped %s (%s): unsupported content-type %q", shown, c.Source, res.ContentType)
			continue
		}
		if !res.useful() {
			res.Body.Discard()
			out.note("skipped %s (%s): %s", shown, c.Source, notUsefulReason(res))
			continue
		}

		out.note("selected %s (%s)", shown, c.Source)
		span.AddEvent(observability.EventFetchCandidateChosen,
			observability.String(observability.AttrFetchCandidate, shown),
			observability.String(observability.AttrFetchCandidateSource, string(c.Source)),
		)
		res.RedirectChain = mergeChains(probe.RedirectChain, res.RedirectChain)
		out.attempt = res
		out.alternate = &c
		return out, nil
	}

	if !probe.JSShell.IsShell && req.Mode == ModeProbe {
		out.note("no alternate selected, returning the probe")
		out.attempt = probe
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	final, err := url.Parse(probe.FinalURL)
	if err != nil {
		return out, newFetchError(KindInvalidURL, "Invalid URL: %s", redact.URL(probe.FinalURL))
	}
	out.note("no alternate selected, fetching %s in %s mode", redact.URL(probe.FinalURL), req.Mode)
	primary, err := f.attempt(ctx, final, tgt.Host, hdr.Header, req.Mode, req.MaxChars, span)
	if err != nil {
		var ae *attemptError
		if errors.As(err, &ae) {
			ae.chain = mergeChains(probe.RedirectChain, ae.chain)
		}
		return out, err
	}
	primary.RedirectChain = mergeChains(probe.RedirectChain, primary.RedirectChain)

	if probe.JSShell.IsShell && !primary.useful() {
		out.advisory = shellAdvisory(probe.JSShell)
		out.note("page is still not useful (%s), advisory appended", notUsefulReason(primary))
	}
	out.attempt = primary
	return out, nil
}

func notUsefulReason(a attemptResult) string {
	switch {
	case a.Status < 200 || a.Status >= 300:
		return fmt.Sprintf("status %d", a.Status)
	case a.JSShell.IsShell:
		return "looks like a JavaScript shell"
	case strings.TrimSpace(a.Body.Sample) == "":
		return "empty body"
	}
	return "not useful"
}

func mediaTypeOrNone(contentType string) string {
	if mt := mediaType(contentType); mt != "" {
		return mt
	}
	return "no content-type"
}
