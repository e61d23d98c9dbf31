package observability

// --- Fetch Attributes ---

const (
	// AttrFetchRequestID identifies one fetch invocation.
	AttrFetchRequestID = "fetch.request_id"

	// AttrFetchURL is the requested URL, credentials removed.
	AttrFetchURL = "fetch.url"

	// AttrFetchFinalURL is the URL after redirects, credentials removed.
	AttrFetchFinalURL = "fetch.final_url"

	// AttrFetchMode is "full" or "probe".
	AttrFetchMode = "fetch.mode"

	// AttrFetchStrategy is "direct" or "smart".
	AttrFetchStrategy = "fetch.strategy"

	// AttrFetchStatus is the HTTP-like status reported to the caller.
	AttrFetchStatus = "fetch.status"

	// AttrFetchContentType is the response media type.
	AttrFetchContentType = "fetch.content_type"

	// AttrFetchHop is the zero-based redirect hop number.
	AttrFetchHop = "fetch.hop"

	// AttrFetchLocation is the redirect target of a hop.
	AttrFetchLocation = "fetch.location"

	// AttrFetchCandidate is an alternate source URL considered by the smart strategy.
	AttrFetchCandidate = "fetch.candidate"

	// AttrFetchCandidateSource names where a candidate was discovered.
	AttrFetchCandidateSource = "fetch.candidate_source"

	// AttrFetchTruncated reports whether the returned text was cut.
	AttrFetchTruncated = "fetch.truncated"

	// AttrFetchBytes is the number of body bytes read.
	AttrFetchBytes = "fetch.bytes"

	// AttrFetchJSShell reports whether the page was classified as a JavaScript shell.
	AttrFetchJSShell = "fetch.js_shell"

	// AttrFetchErrorKind is the error taxonomy entry of a failed fetch.
	AttrFetchErrorKind = "fetch.error_kind"

	// AttrFetchBlockReason is the guard reason for a refused host.
	AttrFetchBlockReason = "fetch.block_reason"
)

// --- Tool Attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanFetch covers one fetch invocation.
	SpanFetch = "webfetch.fetch"

	// SpanToolExecution covers one tool call.
	SpanToolExecution = "tool.execution"
)

// --- Event Names ---

const (
	EventFetchRedirect        = "fetch.redirect"
	EventFetchBlocked         = "fetch.blocked"
	EventFetchProbe           = "fetch.probe"
	EventFetchCandidate       = "fetch.candidate"
	EventFetchCandidateChosen = "fetch.candidate.chosen"
	EventToolExecutionStart   = "tool.execution.start"
	EventToolExecutionEnd     = "tool.execution.end"
)

// --- Metric Names ---

const (
	// MetricFetchRequests counts fetch invocations by outcome.
	MetricFetchRequests = "webfetch.requests"

	// MetricFetchBlocked counts requests refused by the private-network guard.
	MetricFetchBlocked = "webfetch.blocked"

	// MetricFetchDuration is the histogram of invocation wall time in milliseconds.
	MetricFetchDuration = "webfetch.duration_ms"
)
