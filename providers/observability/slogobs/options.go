package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	logger *slog.Logger
}

// WithFormat selects the text or JSON handler.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum level written.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the destination of log records. The default is os.Stderr so
// that command output on stdout stays clean.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithLogger uses logger as is and ignores format, level and output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func applyOptions(opts ...Option) *config {
	cfg := &config{
		format: FormatFromEnv(),
		level:  LevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) newLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	handlerOpts := &slog.HandlerOptions{Level: c.level}
	if c.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(c.output, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(c.output, handlerOpts))
}
