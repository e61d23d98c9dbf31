// Package observability defines the tracing, metrics and logging interfaces
// the fetch engine reports through, together with the attribute keys, span
// names and metric names it uses.
//
// A [Provider] bundles a [Tracer], [Metrics] and a [Logger]. Code that receives
// a nil Provider should call [OrNop] so that instrumentation never needs nil
// checks. The active [Span] travels in a [context.Context] via
// [ContextWithSpan] and [SpanFromContext].
package observability
