package webfetch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/internal/utils"
)

const (
	bannerOK     = "Fetched successfully"
	bannerFailed = "Fetch failed"
	emptyBody    = "(empty body)"
)

// failure turns a classified error into a Result. Details keeps whatever was
// learned before the failure.
func (f *Fetcher) failure(d *Details, fe *FetchError) Result {
	status := fe.Kind.Status()
	d.Status = status
	d.StatusText = statusText(status)
	d.ErrorKind = fe.Kind
	if len(fe.Chain) > 0 {
		d.RedirectChain = redact.URLs(fe.Chain)
		d.FinalURL = d.RedirectChain[len(d.RedirectChain)-1]
	}
	return Result{
		Text:    formatBlock(false, d, redact.Text(fe.Message)),
		IsError: true,
		Details: *d,
	}
}

// success turns a completed attempt into a Result. Unsupported content and
// upstream statuses of 400 and above are still reported as errors.
func (f *Fetcher) success(d *Details, req request, out outcome) Result {
	a := out.attempt
	d.FinalURL = redact.URL(a.FinalURL)
	d.RedirectChain = redact.URLs(a.RedirectChain)
	d.Status = a.Status
	d.StatusText = a.StatusText
	d.ContentType = a.ContentType
	d.ContentLength = a.ContentLength
	if out.alternate != nil {
		d.AlternateURLUsed = redact.URL(out.alternate.URL)
	}
	if out.probe != nil {
		d.ProbeBytesRead = utils.Ptr(out.probe.Body.BytesRead)
		d.ProbeByteLimit = utils.Ptr(out.probe.Body.ByteLimit)
	}

	if a.Unsupported {
		d.ErrorKind = KindUnsupportedContentType
		return Result{
			Text:    formatBlock(false, d, unsupportedGuidance(a.ContentType)),
			IsError: true,
			Details: *d,
		}
	}

	body := a.Body
	d.Truncated = body.Truncated
	d.TruncatedByLines = body.TruncatedByLines
	d.TruncatedByBytes = body.TruncatedByBytes
	d.TruncatedByMaxChars = body.TruncatedByMaxChars
	d.FullOutputPath = body.FullOutputPath
	d.OriginalCharacters = body.TotalCharacters
	d.ReturnedCharacters = body.ShownCharacters
	d.DetectedJSShell = a.JSShell.IsShell
	d.JSShellSignals = append([]string{}, a.JSShell.Signals...)
	if body.Probe {
		d.ProbeBytesRead = utils.Ptr(body.BytesRead)
		d.ProbeByteLimit = utils.Ptr(body.ByteLimit)
	}

	text := body.Text
	if req.Convert == ConvertMarkdown && isHTML(a.ContentType) {
		shown := body.Body()
		if md, err := toMarkdown(shown); err == nil {
			text = md + body.Text[len(shown):]
			d.ConvertedTo = ConvertMarkdown
			d.ReturnedCharacters = utf8.RuneCountInString(md)
		}
	}
	if strings.TrimSpace(text) == "" {
		text = emptyBody
	}
	text += out.advisory

	isError := a.Status >= 400
	if isError {
		d.ErrorKind = KindHTTPStatus
	}
	return Result{
		Text:    formatBlock(!isError, d, text),
		IsError: isError,
		Details: *d,
	}
}

// formatBlock renders the fixed-shape text returned to the caller.
func formatBlock(ok bool, d *Details, body string) string {
	var b strings.Builder
	if ok {
		b.WriteString(bannerOK)
	} else {
		b.WriteString(bannerFailed)
	}
	b.WriteByte('\n')

	shownURL := d.ResolvedURL
	if shownURL == "" {
		shownURL = d.RequestedURL
	}
	fmt.Fprintf(&b, "URL: %s\n", shownURL)
	if d.FinalURL != "" && d.FinalURL != shownURL {
		fmt.Fprintf(&b, "Final URL: %s\n", d.FinalURL)
	}
	if d.AlternateURLUsed != "" {
		fmt.Fprintf(&b, "Alternate source: %s\n", d.AlternateURLUsed)
	}
	fmt.Fprintf(&b, "Status: %d %s\n", d.Status, d.StatusText)
	if d.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\n", d.ContentType)
	}
	if d.ProbeBytesRead != nil && d.ProbeByteLimit != nil && d.Mode == ModeProbe {
		fmt.Fprintf(&b, "Probe: sampled %s of %s\n",
			humanize.IBytes(uint64(*d.ProbeBytesRead)), humanize.IBytes(uint64(*d.ProbeByteLimit)))
	}
	b.WriteByte('\n')

	if strings.TrimSpace(body) == "" {
		body = emptyBody
	}
	b.WriteString(body)
	return b.String()
}

func redactCandidates(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	for i, c := range cs {
		out[i] = Candidate{URL: redact.URL(c.URL), Source: c.Source}
	}
	return out
}

// shellAdvisory is appended when the smart strategy found nothing better than
// a JavaScript shell.
func shellAdvisory(report JSShellReport) string {
	return fmt.Sprintf("\n\n[Smart fetch note: this page appears to be rendered by JavaScript (signals: %s). "+
		"No machine-readable alternate was found and the fetched HTML is not useful on its own, so the content "+
		"above is likely incomplete. Try a raw file URL, an API endpoint or a documentation export instead.]",
		strings.Join(report.Signals, ", "))
}
