package utils

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type trackingBody struct {
	io.Reader
	closed   bool
	closeErr error
}

func (b *trackingBody) Close() error {
	b.closed = true
	return b.closeErr
}

func TestDrainAndClose(t *testing.T) {
	r := strings.NewReader(strings.Repeat("x", maxDrainBytes*2))
	body := &trackingBody{Reader: r}

	DrainAndClose(body)

	if !body.closed {
		t.Error("body should be closed")
	}
	if r.Len() != maxDrainBytes {
		t.Errorf("expected drain to stop after %d bytes, %d left", maxDrainBytes, r.Len())
	}
	DrainAndClose(nil)
}

func TestCloseWithLog_Error(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(""), closeErr: errors.New("already closed")}
	CloseWithLog(body, "test body")
	if !body.closed {
		t.Error("Close should be called even when it fails")
	}
	CloseWithLog(nil, "nothing")
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("short strings must be unchanged, got %q", got)
	}
	got := TruncateString("héllo wörld", 5)
	if got != "héllo... (truncated, total: 11 chars)" {
		t.Errorf("unexpected truncation: %q", got)
	}
	long := strings.Repeat("a", DefaultMaxStringLength+1)
	if !strings.HasPrefix(TruncateString(long, 0), strings.Repeat("a", DefaultMaxStringLength)+"...") {
		t.Error("zero maxLen should use the default")
	}
}

func TestPtr(t *testing.T) {
	v := int64(42)
	p := Ptr(v)
	v = 0
	if *p != 42 {
		t.Errorf("Ptr should copy its argument, got %d", *p)
	}
}
