package webfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/leofalp/safefetch/core/parse"
	"github.com/leofalp/safefetch/internal/netguard"
	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/providers/observability"
	"github.com/leofalp/safefetch/providers/tool"
)

// Mode selects how much of the body is read.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeProbe Mode = "probe"
)

// Strategy selects between a single fetch and the probe-then-alternate flow.
type Strategy string

const (
	StrategyDirect Strategy = "direct"
	StrategySmart  Strategy = "smart"
)

const (
	// DefaultMaxChars is the character limit when Input.MaxChars is zero.
	DefaultMaxChars = 12000
	// MinMaxChars and MaxMaxChars bound Input.MaxChars; values outside are clamped.
	MinMaxChars = 1000
	MaxMaxChars = 100000

	// DialTimeout bounds TCP connection setup.
	DialTimeout = 10 * time.Second
)

// Input is one fetch request.
type Input struct {
	// URL is fetched as given; https:// is assumed when no scheme is present.
	URL string `json:"url"`
	// MaxChars limits the body text returned. Zero means DefaultMaxChars;
	// other values are clamped to [MinMaxChars, MaxMaxChars].
	MaxChars int      `json:"maxChars,omitempty"`
	Mode     Mode     `json:"mode,omitempty"`
	Strategy Strategy `json:"strategy,omitempty"`
	// Accept overrides both the default and any Accept entry in Headers.
	Accept  string            `json:"accept,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Convert Convert           `json:"convert,omitempty"`
}

// Result is returned for every invocation, including failed ones.
type Result struct {
	Text    string  `json:"text"`
	IsError bool    `json:"isError,omitempty"`
	Details Details `json:"details"`
}

// Details is the diagnostic record of an invocation. URLs never carry
// credentials and sensitive request header values are redacted.
type Details struct {
	RequestID             string            `json:"requestId"`
	RequestedURL          string            `json:"requestedUrl"`
	ResolvedURL           string            `json:"resolvedUrl"`
	FinalURL              string            `json:"finalUrl"`
	RedirectChain         []string          `json:"redirectChain"`
	AcceptHeader          string            `json:"acceptHeader"`
	RequestHeaders        map[string]string `json:"requestHeaders"`
	BlockedRequestHeaders []string          `json:"blockedRequestHeaders"`
	Mode                  Mode              `json:"mode"`
	Strategy              Strategy          `json:"strategy"`
	Status                int               `json:"status"`
	StatusText            string            `json:"statusText"`
	ContentType           string            `json:"contentType"`
	ContentLength         *int64            `json:"contentLength,omitempty"`
	DurationMs            int64             `json:"durationMs"`
	Truncated             bool              `json:"truncated"`
	TruncatedByLines      bool              `json:"truncatedByLines"`
	TruncatedByBytes      bool              `json:"truncatedByBytes"`
	TruncatedByMaxChars   bool              `json:"truncatedByMaxChars"`
	OriginalCharacters    int               `json:"originalCharacters"`
	ReturnedCharacters    int               `json:"returnedCharacters"`
	FullOutputPath        string            `json:"fullOutputPath,omitempty"`
	DetectedJSShell       bool              `json:"detectedJsShell"`
	JSShellSignals        []string          `json:"jsShellSignals"`
	AlternateCandidates   []Candidate       `json:"alternateCandidates"`
	AlternateURLUsed      string            `json:"alternateUrlUsed,omitempty"`
	SmartNotes            []string          `json:"smartNotes"`
	ProbeBytesRead        *int64            `json:"probeBytesRead,omitempty"`
	ProbeByteLimit        *int64            `json:"probeByteLimit,omitempty"`
	ErrorKind             ErrorKind         `json:"errorKind,omitempty"`
	ConvertedTo           Convert           `json:"convertedTo,omitempty"`
}

// Fetcher performs fetches with a fixed configuration. It holds no
// per-invocation state and is safe for concurrent use.
type Fetcher struct {
	cfg    Config
	guard  *netguard.Guard
	client *http.Client
	obs    observability.Provider
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithConfig replaces the configuration. Unset fields get defaults.
func WithConfig(cfg Config) Option {
	return func(f *Fetcher) {
		f.cfg = cfg
	}
}

// WithObserver reports spans, metrics and logs to p.
func WithObserver(p observability.Provider) Option {
	return func(f *Fetcher) {
		f.obs = p
	}
}

// NewFetcher creates a Fetcher with its own connection pool. The dialer
// re-checks every resolved address against the private-network guard and
// proxies from the environment are ignored.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}
	f.cfg = f.cfg.WithDefaults()
	f.obs = observability.OrNop(f.obs)
	f.guard = netguard.New(netguard.Options{AllowPrivate: f.cfg.AllowPrivateHosts})

	transport := cleanhttp.DefaultPooledTransport()
	transport.Proxy = nil
	transport.DisableCompression = true
	transport.DialContext = (&net.Dialer{
		Timeout:   DialTimeout,
		KeepAlive: 30 * time.Second,
		Control:   f.guard.DialControl,
	}).DialContext

	f.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

// Config returns the effective configuration.
func (f *Fetcher) Config() Config {
	return f.cfg
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

func (f *Fetcher) maxRedirects() int {
	return f.cfg.MaxRedirects
}

// NewWebFetchTool returns the fetch engine as a tool. Each call reads the
// WEBFETCH_* environment, so the private-host override can change between
// calls.
//
//	fetchTool := webfetch.NewWebFetchTool()
//	out, err := fetchTool.Call(ctx, `{"url": "go.dev", "strategy": "smart"}`)
func NewWebFetchTool() *tool.Tool[Input, Result] {
	return tool.NewTool[Input, Result](
		"WebFetch",
		Fetch,
		tool.WithDescription("Fetches a URL over HTTP(S) and returns its textual content, bounded to a character limit. "+
			"Requests to private, loopback and cloud metadata hosts are refused. Redirects are followed manually. "+
			"Large bodies are truncated and saved to a temporary file whose path is reported. "+
			"Use mode=probe to sample a page cheaply and strategy=smart to prefer a markdown alternate "+
			"when the page is rendered by JavaScript."),
		tool.WithInputRedactor(redactInput),
	)
}

// redactInput renders tool input for span attributes with URL credentials and
// sensitive header values removed. Input that does not decode is replaced by
// its size, since its headers cannot be told apart.
func redactInput(inputJSON string) string {
	in, err := parse.ParseStringAs[Input](inputJSON)
	if err != nil {
		return fmt.Sprintf("[undecodable input, %d bytes]", len(inputJSON))
	}
	in.URL = redact.URL(strings.TrimSpace(in.URL))
	if len(in.Headers) > 0 {
		headers := make(map[string]string, len(in.Headers))
		for name, value := range in.Headers {
			if redact.IsSensitiveHeader(name) {
				value = redact.Marker
			}
			headers[name] = value
		}
		in.Headers = headers
	}
	encoded, err := json.Marshal(in)
	if err != nil {
		return fmt.Sprintf("[undecodable input, %d bytes]", len(inputJSON))
	}
	return string(encoded)
}

// Fetch runs one invocation with a Fetcher configured from the environment.
// It never returns a non-nil error: failures are reported in the Result.
func Fetch(ctx context.Context, in Input) (Result, error) {
	f := NewFetcher(WithConfig(ConfigFromEnv()))
	defer f.Close()
	return f.Fetch(ctx, in)
}

// request is the validated, immutable form of an Input.
type request struct {
	URL      string
	MaxChars int
	Mode     Mode
	Strategy Strategy
	Accept   string
	Headers  map[string]string
	Convert  Convert
}

func clampMaxChars(n int) int {
	switch {
	case n == 0:
		return DefaultMaxChars
	case n < MinMaxChars:
		return MinMaxChars
	case n > MaxMaxChars:
		return MaxMaxChars
	}
	return n
}

func newRequest(in Input) (request, *FetchError) {
	req := request{
		URL:      in.URL,
		MaxChars: clampMaxChars(in.MaxChars),
		Mode:     Mode(strings.ToLower(strings.TrimSpace(string(in.Mode)))),
		Strategy: Strategy(strings.ToLower(strings.TrimSpace(string(in.Strategy)))),
		Accept:   in.Accept,
		Headers:  in.Headers,
		Convert:  Convert(strings.ToLower(strings.TrimSpace(string(in.Convert)))),
	}
	if req.Mode == "" {
		req.Mode = ModeFull
	}
	if req.Strategy == "" {
		req.Strategy = StrategyDirect
	}
	if req.Convert == "" {
		req.Convert = ConvertNone
	}

	switch {
	case req.Mode != ModeFull && req.Mode != ModeProbe:
		return req, newFetchError(KindInvalidInput, "Unknown mode %q: expected \"full\" or \"probe\"", in.Mode)
	case req.Strategy != StrategyDirect && req.Strategy != StrategySmart:
		return req, newFetchError(KindInvalidInput, "Unknown strategy %q: expected \"direct\" or \"smart\"", in.Strategy)
	case req.Convert != ConvertNone && req.Convert != ConvertMarkdown:
		return req, newFetchError(KindInvalidInput, "Unknown convert value %q: expected \"none\" or \"markdown\"", in.Convert)
	}
	return req, nil
}

// Fetch runs one invocation. It never returns a non-nil error: every failure
// is reported as a Result with IsError set and a populated Details.
func (f *Fetcher) Fetch(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	req, inputErr := newRequest(in)

	details := Details{
		RequestID:             uuid.NewString(),
		RequestedURL:          redact.URL(strings.TrimSpace(in.URL)),
		RedirectChain:         []string{},
		RequestHeaders:        map[string]string{},
		BlockedRequestHeaders: []string{},
		Mode:                  req.Mode,
		Strategy:              req.Strategy,
		JSShellSignals:        []string{},
		AlternateCandidates:   []Candidate{},
		SmartNotes:            []string{},
	}

	ctx, span := f.obs.StartSpan(ctx, observability.SpanFetch,
		observability.String(observability.AttrFetchRequestID, details.RequestID),
		observability.String(observability.AttrFetchURL, details.RequestedURL),
		observability.String(observability.AttrFetchMode, string(req.Mode)),
		observability.String(observability.AttrFetchStrategy, string(req.Strategy)),
	)
	defer span.End()

	var result Result
	if inputErr != nil {
		result = f.failure(&details, inputErr)
	} else {
		result = f.run(ctx, req, &details, span)
	}
	result.Details.DurationMs = time.Since(start).Milliseconds()

	f.record(ctx, span, result)
	return result, nil
}

func (f *Fetcher) run(parent context.Context, req request, d *Details, span observability.Span) Result {
	if parent.Err() != nil {
		return f.failure(d, classifyError(parent, f.cfg.Timeout, nil, parent.Err()))
	}
	ctx, cancel := context.WithTimeout(parent, f.cfg.Timeout)
	defer cancel()

	tgt, ferr := resolveURL(req.URL)
	if ferr != nil {
		return f.failure(d, ferr)
	}
	d.ResolvedURL = redact.URL(tgt.URL.String())

	if verdict := f.guard.Check(tgt.Host); verdict.Blocked {
		span.AddEvent(observability.EventFetchBlocked,
			observability.String(observability.AttrFetchBlockReason, verdict.Reason))
		return f.failure(d, &FetchError{
			Kind:    KindPrivateHostBlocked,
			Message: verdict.Reason + ". " + privateHostGuidance,
		})
	}

	hdr := prepareHeaders(req.Accept, req.Headers, f.cfg.DefaultHeaders, f.cfg.UserAgent)
	d.AcceptHeader = hdr.Accept
	d.RequestHeaders = hdr.Redacted
	d.BlockedRequestHeaders = hdr.Blocked

	var (
		out outcome
		err error
	)
	if req.Strategy == StrategySmart {
		out, err = f.smart(ctx, tgt, hdr, req, span)
		d.AlternateCandidates = redactCandidates(out.candidates)
		d.SmartNotes = append([]string{}, out.notes...)
	} else {
		out.attempt, err = f.attempt(ctx, tgt.URL, tgt.Host, hdr.Header, req.Mode, req.MaxChars, span)
	}
	if err != nil {
		var chain []string
		var ae *attemptError
		if errors.As(err, &ae) {
			chain = ae.chain
		}
		return f.failure(d, classifyError(parent, f.cfg.Timeout, chain, err))
	}
	return f.success(d, req, out)
}

// record emits the per-invocation span attributes and metrics.
func (f *Fetcher) record(ctx context.Context, span observability.Span, result Result) {
	d := result.Details
	attrs := []observability.Attribute{
		observability.Int(observability.AttrFetchStatus, d.Status),
		observability.String(observability.AttrFetchFinalURL, d.FinalURL),
		observability.String(observability.AttrFetchContentType, d.ContentType),
		observability.Bool(observability.AttrFetchTruncated, d.Truncated),
		observability.Bool(observability.AttrFetchJSShell, d.DetectedJSShell),
	}
	if d.ErrorKind != "" {
		attrs = append(attrs, observability.String(observability.AttrFetchErrorKind, string(d.ErrorKind)))
	}
	span.SetAttributes(attrs...)

	outcome := "ok"
	if result.IsError {
		outcome = "error"
		span.SetStatus(observability.StatusError, string(d.ErrorKind))
	} else {
		span.SetStatus(observability.StatusOK, "")
	}
	if d.ErrorKind == KindPrivateHostBlocked {
		f.obs.Counter(observability.MetricFetchBlocked).Add(ctx, 1)
	}
	f.obs.Counter(observability.MetricFetchRequests).Add(ctx, 1,
		observability.String(observability.AttrStatus, outcome),
		observability.String(observability.AttrFetchStrategy, string(d.Strategy)),
	)
	f.obs.Histogram(observability.MetricFetchDuration).Record(ctx, float64(d.DurationMs))

	level := f.obs.Info
	if result.IsError {
		level = f.obs.Warn
	}
	level(ctx, fmt.Sprintf("fetch %s", outcome),
		observability.String(observability.AttrFetchRequestID, d.RequestID),
		observability.String(observability.AttrFetchURL, d.RequestedURL),
		observability.Int(observability.AttrFetchStatus, d.Status),
		observability.Int64(observability.AttrDuration, d.DurationMs),
	)
}
