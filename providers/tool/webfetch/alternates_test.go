package webfetch

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/leofalp/safefetch/internal/capture"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestParseLinkHeader(t *testing.T) {
	got := parseLinkHeader(`<https://a.test/x,y.md>; rel="alternate"; type="text/markdown"; title="a, b", </next>; rel=next`)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(got), got)
	}
	if got[0].URL != "https://a.test/x,y.md" {
		t.Errorf("comma inside <> must not split: %q", got[0].URL)
	}
	if got[0].Params["rel"] != "alternate" || got[0].Params["type"] != "text/markdown" || got[0].Params["title"] != "a, b" {
		t.Errorf("unexpected params %v", got[0].Params)
	}
	if got[1].URL != "/next" || got[1].Params["rel"] != "next" {
		t.Errorf("unexpected second entry %+v", got[1])
	}

	if got := parseLinkHeader("garbage, also garbage"); len(got) != 0 {
		t.Errorf("entries without <url> are ignored, got %+v", got)
	}
}

func TestLinkHeaderCandidates(t *testing.T) {
	base := mustParse(t, "https://docs.test/guide/page")
	header := `</guide/page.md>; rel="alternate"; type="text/markdown", ` +
		`</feed.xml>; rel="alternate"; type="application/rss+xml", ` +
		`<page.md>; rel="canonical", ` +
		`<raw/page.markdown>; rel="Alternate Other"`

	got := linkHeaderCandidates(base, header)
	want := []Candidate{
		{URL: "https://docs.test/guide/page.md", Source: SourceLinkHeader},
		{URL: "https://docs.test/guide/raw/page.markdown", Source: SourceLinkHeader},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestHTMLAlternateCandidates(t *testing.T) {
	body := `<html><head>
<base href="https://cdn.test/root/">
<link rel="alternate" type="text/markdown" href="doc.md">
<link rel="alternate" hreflang="fr" href="/fr/">
<link rel="stylesheet" href="style.md">
<link rel="alternate" href="  ">
</head><body></body></html>`

	got := htmlAlternateCandidates(mustParse(t, "https://site.test/page"), body)
	want := []Candidate{{URL: "https://cdn.test/root/doc.md", Source: SourceHTMLAlternate}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	noBase := `<link rel="alternate" type="text/x-markdown" href="/page.md">`
	got = htmlAlternateCandidates(mustParse(t, "https://site.test/a/b"), noBase)
	if len(got) != 1 || got[0].URL != "https://site.test/page.md" {
		t.Errorf("relative href should resolve against the page, got %+v", got)
	}
}

func TestGitHubRawCandidate(t *testing.T) {
	c, ok := githubRawCandidate(mustParse(t, "https://github.com/acme/tools/blob/main/docs/README.md"))
	if !ok || c.URL != "https://raw.githubusercontent.com/acme/tools/main/docs/README.md" || c.Source != SourceGitHubRaw {
		t.Errorf("unexpected rewrite %+v (%v)", c, ok)
	}
	for _, raw := range []string{
		"https://github.com/acme/tools",
		"https://github.com/acme/tools/tree/main/docs",
		"https://gitlab.com/acme/tools/blob/main/README.md",
	} {
		if _, ok := githubRawCandidate(mustParse(t, raw)); ok {
			t.Errorf("%s should not be rewritten", raw)
		}
	}
}

func TestWordPressCandidate(t *testing.T) {
	c, ok := wordpressCandidate(mustParse(t, "https://blog.test:8443/2024/05/post/?utm=x"))
	if !ok || c.URL != "https://blog.test:8443/wp-json/" || c.Source != SourceWordPressAPI {
		t.Errorf("unexpected candidate %+v (%v)", c, ok)
	}
	if _, ok := wordpressCandidate(mustParse(t, "https://blog.test/wp-json/wp/v2/posts")); ok {
		t.Error("URLs already under /wp-json should not produce a candidate")
	}
}

func TestNormalizeURL(t *testing.T) {
	testCases := map[string]string{
		"HTTPS://Example.COM:443#frag":  "https://example.com/",
		"http://a.test:80/x":            "http://a.test/x",
		"http://a.test:8080/x?q=1":      "http://a.test:8080/x?q=1",
		"https://user:pw@a.test/p":      "https://a.test/p",
		"http://[::1]:8080/":            "http://[::1]:8080/",
		"https://a.test/docs/#overview": "https://a.test/docs/",
	}
	for in, want := range testCases {
		if got := normalizeURL(in); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateSet_Dedupe(t *testing.T) {
	set := newCandidateSet("https://a.test/")
	set.add(
		Candidate{URL: "https://A.test:443/#top", Source: SourceLinkHeader},
		Candidate{URL: "https://a.test/x.md", Source: SourceLinkHeader},
		Candidate{URL: "https://a.test/x.md#intro", Source: SourceHTMLAlternate},
	)
	if len(set.list) != 1 || set.list[0].URL != "https://a.test/x.md" || set.list[0].Source != SourceLinkHeader {
		t.Errorf("unexpected set %+v", set.list)
	}
}

func TestDiscoverCandidates_Order(t *testing.T) {
	probe := attemptResult{
		FinalURL:    "https://github.com/acme/tools/blob/main/README.md",
		ContentType: "text/html",
		LinkHeader:  `</acme/tools/README.md>; rel="alternate"; type="text/markdown"`,
		// The displayed text was cut before the link tags; discovery reads the sample.
		Body: capture.Text{Text: "<html><head>", Sample: `<html><head>
<link rel="alternate" type="text/markdown" href="/acme/tools/README.md">
<link rel="alternate" type="text/markdown" href="/acme/tools/docs.md">
</head><body><div id="root"></div></body></html>`},
		JSShell: JSShellReport{IsShell: true},
	}

	got := discoverCandidates(probe)
	want := []Candidate{
		{URL: "https://github.com/acme/tools/README.md", Source: SourceLinkHeader},
		{URL: "https://github.com/acme/tools/docs.md", Source: SourceHTMLAlternate},
		{URL: "https://raw.githubusercontent.com/acme/tools/main/README.md", Source: SourceGitHubRaw},
		{URL: "https://github.com/wp-json/", Source: SourceWordPressAPI},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}

	probe.JSShell.IsShell = false
	if got := discoverCandidates(probe); len(got) != 2 {
		t.Errorf("heuristic rewrites apply to shells only, got %+v", got)
	}
}

func TestDiscoverCandidates_ExcludesSelf(t *testing.T) {
	probe := attemptResult{
		FinalURL:   "https://a.test/page.md",
		LinkHeader: `<https://A.test/page.md#x>; rel="alternate"; type="text/markdown"`,
	}
	if got := discoverCandidates(probe); len(got) != 0 {
		t.Errorf("the probed URL itself is not a candidate, got %+v", got)
	}
}
