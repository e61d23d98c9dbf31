package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format is the log record encoding.
type Format string

const (
	// FormatText is logfmt-style key=value output.
	FormatText Format = "text"
	// FormatJSON is one JSON object per record.
	FormatJSON Format = "json"
)

// ParseFormat maps a case-insensitive name to a Format. Unknown values yield
// FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// ParseLogLevel maps debug, info, warn/warning and error to slog levels.
// Anything else yields slog.LevelInfo.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FormatFromEnv reads WEBFETCH_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	return ParseFormat(firstEnv("WEBFETCH_LOG_FORMAT", "LOG_FORMAT"))
}

// LevelFromEnv reads WEBFETCH_LOG_LEVEL, then LOG_LEVEL.
func LevelFromEnv() slog.Level {
	return ParseLogLevel(firstEnv("WEBFETCH_LOG_LEVEL", "LOG_LEVEL"))
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
