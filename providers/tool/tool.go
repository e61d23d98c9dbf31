package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leofalp/safefetch/core/parse"
	"github.com/leofalp/safefetch/internal/redact"
	"github.com/leofalp/safefetch/internal/utils"
	"github.com/leofalp/safefetch/providers/observability"
)

// maxAttrLength caps tool input and output recorded on spans.
const maxAttrLength = 2000

// Description is the metadata a host needs to advertise a tool.
type Description struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenericTool is a Tool with its type parameters erased.
type GenericTool interface {
	ToolInfo() Description
	Call(ctx context.Context, inputJSON string) (string, error)
}

// Tool is a named, typed function callable with JSON arguments.
type Tool[I, O any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, input I) (O, error)
	// RedactInput rewrites the raw input before it is recorded on a span.
	// When nil, URL credentials are stripped with redact.Text.
	RedactInput func(inputJSON string) string
}

var _ GenericTool = (*Tool[struct{}, struct{}])(nil)

type funcToolOptions struct {
	Description string
	RedactInput func(string) string
}

// WithDescription sets the description shown to the host.
func WithDescription(description string) func(*funcToolOptions) {
	return func(o *funcToolOptions) {
		o.Description = description
	}
}

// WithInputRedactor sets the function applied to the raw input before it is
// recorded on spans.
func WithInputRedactor(fn func(inputJSON string) string) func(*funcToolOptions) {
	return func(o *funcToolOptions) {
		o.RedactInput = fn
	}
}

// NewTool wraps function as a Tool.
//
//	fetchTool := tool.NewTool("WebFetch", webfetch.Fetch,
//	    tool.WithDescription("Fetches a URL and returns bounded text."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(*funcToolOptions)) *Tool[I, O] {
	opts := &funcToolOptions{}
	for _, option := range options {
		option(opts)
	}
	return &Tool[I, O]{
		Name:        name,
		Description: opts.Description,
		Function:    function,
		RedactInput: opts.RedactInput,
	}
}

// ToolInfo returns the tool's name and description.
func (t *Tool[I, O]) ToolInfo() Description {
	return Description{Name: t.Name, Description: t.Description}
}

// Call decodes inputJSON into I, runs the function and returns the JSON
// encoding of its output.
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, utils.TruncateString(t.redactInput(inputJSON), maxAttrLength)),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	input, err := parse.ParseStringAs[I](inputJSON)
	if err != nil {
		recordToolError(span, err)
		return "", err
	}

	start := time.Now()
	output, err := t.Function(ctx, input)
	duration := time.Since(start)
	if err != nil {
		recordToolError(span, err, observability.Duration(observability.AttrToolDuration, duration))
		return "", err
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		recordToolError(span, err)
		return "", err
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolOutput, utils.TruncateString(string(encoded), maxAttrLength)),
			observability.Duration(observability.AttrToolDuration, duration),
		)
	}
	return string(encoded), nil
}

func (t *Tool[I, O]) redactInput(inputJSON string) string {
	if t.RedactInput != nil {
		return t.RedactInput(inputJSON)
	}
	return redact.Text(inputJSON)
}

func recordToolError(span observability.Span, err error, attrs ...observability.Attribute) {
	if span == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(append(attrs, observability.String(observability.AttrToolError, err.Error()))...)
}
