package webfetch

import (
	"strings"
	"testing"
)

const reactShell = `<!doctype html>
<html><head><title>App</title><script src="/static/js/main.js"></script></head>
<body><noscript>You need to enable JavaScript to run this app.</noscript><div id="root"></div></body></html>`

const nextShell = `<html><head><script src="/_next/static/chunks/main.js"></script></head>
<body><div id="__next"></div><script id="__NEXT_DATA__" type="application/json">{"props":{}}</script></body></html>`

func articlePage(scripts int) string {
	var b strings.Builder
	b.WriteString("<html><head>")
	for i := 0; i < scripts; i++ {
		b.WriteString(`<script src="/analytics.js"></script>`)
	}
	b.WriteString("</head><body><article><h1>Release notes</h1>")
	b.WriteString(strings.Repeat("<p>This release improves connection reuse and fixes several parser bugs.</p>", 6))
	b.WriteString("</article></body></html>")
	return b.String()
}

func TestDetectJSShell_ReactShell(t *testing.T) {
	got := DetectJSShell("text/html; charset=utf-8", reactShell)
	if !got.IsShell {
		t.Fatalf("expected a shell, signals %v", got.Signals)
	}
	want := map[string]bool{"spa-root:#root": false, "js-required-text": false}
	for _, s := range got.Signals {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for s, seen := range want {
		if !seen {
			t.Errorf("missing signal %s in %v", s, got.Signals)
		}
	}
}

func TestDetectJSShell_NextShell(t *testing.T) {
	got := DetectJSShell("text/html", nextShell)
	if !got.IsShell {
		t.Fatalf("expected a shell, signals %v", got.Signals)
	}
	joined := strings.Join(got.Signals, ",")
	if !strings.Contains(joined, "spa-root:#__next") || !strings.Contains(joined, "hydration-marker:__NEXT_DATA__") {
		t.Errorf("unexpected signals %v", got.Signals)
	}
}

func TestDetectJSShell_SingleSignalIsNotAShell(t *testing.T) {
	got := DetectJSShell("text/html", articlePage(6))
	if got.IsShell {
		t.Errorf("a content page with many scripts is not a shell: %v", got.Signals)
	}
	if len(got.Signals) != 1 || got.Signals[0] != "script-count:6" {
		t.Errorf("expected only the script-count signal, got %v", got.Signals)
	}

	rootOnly := `<html><body><div id="app">` + strings.Repeat("<p>Server rendered paragraph with real content.</p>", 8) + `</div></body></html>`
	if got := DetectJSShell("text/html", rootOnly); got.IsShell {
		t.Errorf("a server-rendered root is not a shell: %v", got.Signals)
	}
}

func TestDetectJSShell_NonHTML(t *testing.T) {
	got := DetectJSShell("text/plain", reactShell)
	if got.IsShell || len(got.Signals) != 0 {
		t.Errorf("non-HTML bodies are never shells: %+v", got)
	}
	if got.Signals == nil {
		t.Error("signals should be an empty slice, not nil")
	}
	if got := DetectJSShell("text/html", "   "); got.IsShell {
		t.Error("an empty body is not a shell")
	}
}
