package webfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/safefetch/internal/netguard"
	"github.com/leofalp/safefetch/internal/redact"
)

// ErrorKind names a failure class. It is reported in Details.ErrorKind.
type ErrorKind string

const (
	KindEmptyURL               ErrorKind = "EmptyUrl"
	KindInvalidURL             ErrorKind = "InvalidUrl"
	KindUnsupportedScheme      ErrorKind = "UnsupportedScheme"
	KindInvalidInput           ErrorKind = "InvalidInput"
	KindPrivateHostBlocked     ErrorKind = "PrivateHostBlocked"
	KindTooManyRedirects       ErrorKind = "TooManyRedirects"
	KindUnsupportedContentType ErrorKind = "UnsupportedContentType"
	KindHTTPStatus             ErrorKind = "HttpStatus"
	KindCancelled              ErrorKind = "Cancelled"
	KindTimeout                ErrorKind = "Timeout"
	KindTransport              ErrorKind = "Transport"
)

// StatusClientClosedRequest is reported when the caller cancels a fetch.
const StatusClientClosedRequest = 499

// Status returns the HTTP-like status reported for the kind. Kinds that keep
// the upstream status return 0.
func (k ErrorKind) Status() int {
	switch k {
	case KindEmptyURL, KindInvalidURL, KindUnsupportedScheme, KindInvalidInput:
		return http.StatusBadRequest
	case KindPrivateHostBlocked:
		return http.StatusForbidden
	case KindTooManyRedirects:
		return http.StatusLoopDetected
	case KindCancelled:
		return StatusClientClosedRequest
	case KindUnsupportedContentType, KindHTTPStatus:
		return 0
	default:
		return http.StatusInternalServerError
	}
}

// statusText returns the reason phrase used in the result block.
func statusText(code int) string {
	switch code {
	case StatusClientClosedRequest:
		return "Cancelled"
	case http.StatusLoopDetected:
		return "Too Many Redirects"
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}

// FetchError is a classified failure. Message is safe to show: it never
// contains URL credentials.
type FetchError struct {
	Kind    ErrorKind
	Message string
	// Chain is the redirect chain reached before the failure, if any.
	Chain []string
	Err   error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(kind ErrorKind, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// RedirectBlockedError is returned when a redirect points at a host the
// private-network guard refuses.
type RedirectBlockedError struct {
	URL    string
	Reason string
}

func (e *RedirectBlockedError) Error() string {
	return fmt.Sprintf("redirect to %s blocked: %s", redact.URL(e.URL), e.Reason)
}

// TooManyRedirectsError carries the chain visited before the hop cap was hit.
type TooManyRedirectsError struct {
	Chain []string
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("stopped after %d redirects", len(e.Chain)-1)
}

const privateHostGuidance = "Set " + EnvAllowPrivateHosts + "=1 to allow requests to private or local hosts."

// classifyError maps an attempt error to a FetchError. parent is the caller's
// context; its cancellation takes priority over the internal timeout.
func classifyError(parent context.Context, timeout time.Duration, chain []string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Chain == nil {
			fe.Chain = chain
		}
		return fe
	}

	if parent.Err() != nil {
		return &FetchError{Kind: KindCancelled, Message: "Request cancelled", Chain: chain, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &FetchError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("Request timed out after %s", timeout),
			Chain:   chain,
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &FetchError{Kind: KindCancelled, Message: "Request cancelled", Chain: chain, Err: err}
	}

	var rb *RedirectBlockedError
	if errors.As(err, &rb) {
		return &FetchError{
			Kind:    KindPrivateHostBlocked,
			Message: fmt.Sprintf("Redirect to %s refused. %s. %s", redact.URL(rb.URL), rb.Reason, privateHostGuidance),
			Chain:   chain,
			Err:     err,
		}
	}
	var tm *TooManyRedirectsError
	if errors.As(err, &tm) {
		return &FetchError{
			Kind: KindTooManyRedirects,
			Message: fmt.Sprintf("Too many redirects (limit %d). Chain:\n%s",
				maxRedirects, strings.Join(redact.URLs(tm.Chain), "\n")),
			Chain: tm.Chain,
			Err:   err,
		}
	}
	if be, ok := netguard.AsBlocked(err); ok {
		return &FetchError{
			Kind:    KindPrivateHostBlocked,
			Message: be.Reason + ". " + privateHostGuidance,
			Chain:   chain,
			Err:     err,
		}
	}

	return &FetchError{Kind: KindTransport, Message: redact.Text(err.Error()), Chain: chain, Err: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
