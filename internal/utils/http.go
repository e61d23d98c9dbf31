package utils

import (
	"io"
	"log/slog"
)

// maxDrainBytes bounds how much of an unwanted body is read before closing,
// so that the connection can be reused without downloading large payloads.
const maxDrainBytes = 64 * 1024

// CloseWithLog closes c and logs a failure instead of returning it. It is
// meant for deferred cleanup where a close error must not mask the primary one.
func CloseWithLog(c io.Closer, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close "+what, "error", err.Error())
	}
}

// DrainAndClose discards up to a small bound of body and closes it.
func DrainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes))
	CloseWithLog(body, "response body")
}
