package webfetch

import (
	"strings"
	"testing"
)

func TestIsTextual(t *testing.T) {
	accepted := []string{
		"text/html; charset=utf-8",
		"TEXT/PLAIN",
		"text/markdown",
		"application/json",
		"application/ld+json",
		"application/atom+xml",
		"application/javascript",
		"application/xhtml+xml",
		"application/x-www-form-urlencoded",
		"application/x-sh",
		"application/x-shellscript",
		"application/yaml",
		"application/toml",
	}
	for _, ct := range accepted {
		if !isTextual(ct, nil) {
			t.Errorf("%q should be accepted", ct)
		}
	}

	rejected := []string{"", "image/png", "application/pdf", "application/octet-stream", "video/mp4", "application/zip"}
	for _, ct := range rejected {
		if isTextual(ct, nil) {
			t.Errorf("%q should be rejected", ct)
		}
	}
}

func TestIsTextual_ExtraTypes(t *testing.T) {
	if !isTextual("application/vnd.custom-log", []string{" Application/Vnd.Custom-Log "}) {
		t.Error("configured extra types should be accepted")
	}
}

func TestMediaTypeAndCharset(t *testing.T) {
	if got := mediaType(`Text/HTML; charset="ISO-8859-1"`); got != "text/html" {
		t.Errorf("mediaType = %q", got)
	}
	if got := charsetOf(`text/html; charset="ISO-8859-1"`); got != "ISO-8859-1" {
		t.Errorf("charsetOf = %q", got)
	}
	if got := mediaType("text/plain;;bad"); got != "text/plain" {
		t.Errorf("malformed parameters should still yield the type, got %q", got)
	}
}

func TestUnsupportedGuidance(t *testing.T) {
	msg := unsupportedGuidance("image/png")
	if !strings.Contains(msg, "image/png") || !strings.Contains(msg, "accept") {
		t.Errorf("guidance should name the type and suggest an accept override: %s", msg)
	}
}
