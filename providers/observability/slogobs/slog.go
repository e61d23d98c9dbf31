package slogobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/leofalp/safefetch/providers/observability"
)

// Observer implements observability.Provider with a slog.Logger.
type Observer struct {
	logger *slog.Logger

	mu       sync.Mutex
	counters map[string]int64
}

var _ observability.Provider = (*Observer)(nil)

// New creates an Observer.
//
//	observer := slogobs.New(slogobs.WithLevel(slog.LevelDebug))
//	fetcher := webfetch.NewFetcher(webfetch.WithObserver(observer))
func New(opts ...Option) *Observer {
	return &Observer{
		logger:   applyOptions(opts...).newLogger(),
		counters: make(map[string]int64),
	}
}

// Logger returns the underlying slog.Logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// StartSpan logs the span start and returns a context carrying the span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:   name,
		start:  time.Now(),
		logger: o.logger,
		attrs:  append([]observability.Attribute(nil), attrs...),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started",
		append([]slog.Attr{slog.String("span", name)}, toSlog(attrs)...)...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name   string
	start  time.Time
	logger *slog.Logger

	mu     sync.Mutex
	attrs  []observability.Attribute
	status observability.StatusCode
	ended  bool
}

// End logs the accumulated attributes once. Spans that ended in error are
// logged at warn level.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}
	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.Duration(observability.AttrDuration, time.Since(s.start)),
	}
	s.logger.LogAttrs(context.Background(), level, "span ended", append(logAttrs, toSlog(s.attrs)...)...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, code.String()))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, name,
		append([]slog.Attr{slog.String("span", s.name)}, toSlog(attrs)...)...)
}

// Counter returns a counter whose total is kept by the Observer.
func (o *Observer) Counter(name string) observability.Counter {
	return &counter{name: name, observer: o}
}

// Histogram returns a histogram that logs each observation.
func (o *Observer) Histogram(name string) observability.Histogram {
	return &histogram{name: name, logger: o.logger}
}

// CounterValue returns the running total of the named counter.
func (o *Observer) CounterValue(name string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters[name]
}

// CounterNames returns the names of every counter that has been incremented.
func (o *Observer) CounterNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.counters))
	for name := range o.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type counter struct {
	name     string
	observer *Observer
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.observer.mu.Lock()
	c.observer.counters[c.name] += value
	total := c.observer.counters[c.name]
	c.observer.mu.Unlock()

	c.observer.logger.LogAttrs(ctx, slog.LevelDebug, "counter",
		append([]slog.Attr{
			slog.String("metric", c.name),
			slog.Int64("delta", value),
			slog.Int64("value", total),
		}, toSlog(attrs)...)...)
}

type histogram struct {
	name   string
	logger *slog.Logger
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.logger.LogAttrs(ctx, slog.LevelDebug, "histogram",
		append([]slog.Attr{
			slog.String("metric", h.name),
			slog.Float64("value", value),
		}, toSlog(attrs)...)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlog(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlog(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlog(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlog(attrs)...)
}

func toSlog(attrs []observability.Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, slog.Any(attr.Key, attr.Value))
	}
	return out
}
