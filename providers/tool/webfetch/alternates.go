package webfetch

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CandidateSource records how an alternate URL was discovered.
type CandidateSource string

const (
	SourceLinkHeader    CandidateSource = "link-header"
	SourceHTMLAlternate CandidateSource = "html-alternate"
	SourceGitHubRaw     CandidateSource = "github-raw"
	SourceWordPressAPI  CandidateSource = "wordpress-api"
)

// Candidate is an alternate source considered by the smart strategy.
type Candidate struct {
	URL    string          `json:"url"`
	Source CandidateSource `json:"source"`
}

type linkValue struct {
	URL    string
	Params map[string]string
}

// parseLinkHeader splits an RFC 8288 Link header into its entries. Commas
// inside <...> or quoted strings do not separate entries.
func parseLinkHeader(header string) []linkValue {
	var out []linkValue
	for _, part := range splitOutside(header, ',') {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "<") {
			continue
		}
		end := strings.IndexByte(part, '>')
		if end < 0 {
			continue
		}
		lv := linkValue{URL: strings.TrimSpace(part[1:end]), Params: map[string]string{}}
		for _, param := range splitOutside(part[end+1:], ';') {
			key, value, found := strings.Cut(strings.TrimSpace(param), "=")
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if found {
				value = strings.Trim(strings.TrimSpace(value), `"`)
			}
			lv.Params[key] = value
		}
		out = append(out, lv)
	}
	return out
}

func splitOutside(s string, sep byte) []string {
	var (
		parts   []string
		start   int
		inQuote bool
		inAngle bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && !inAngle:
			inQuote = !inQuote
		case c == '<' && !inQuote:
			inAngle = true
		case c == '>' && !inQuote:
			inAngle = false
		case c == sep && !inQuote && !inAngle:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func hasRelAlternate(rel string) bool {
	for _, token := range strings.Fields(strings.ToLower(rel)) {
		if token == "alternate" {
			return true
		}
	}
	return false
}

// isMarkdownAlternate reports whether a declared type or a URL path points at
// markdown.
func isMarkdownAlternate(typ, href string) bool {
	if strings.Contains(mediaType(typ), "markdown") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return ext == ".md" || ext == ".markdown"
}

func linkHeaderCandidates(base *url.URL, header string) []Candidate {
	var out []Candidate
	for _, lv := range parseLinkHeader(header) {
		if !hasRelAlternate(lv.Params["rel"]) || !isMarkdownAlternate(lv.Params["type"], lv.URL) {
			continue
		}
		if u, err := base.Parse(lv.URL); err == nil {
			out = append(out, Candidate{URL: u.String(), Source: SourceLinkHeader})
		}
	}
	return out
}

// htmlAlternateCandidates collects <link rel="alternate"> tags that declare
// markdown. A <base href> in the document is honoured.
func htmlAlternateCandidates(base *url.URL, body string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	var out []Candidate
	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		typ, _ := s.Attr("type")
		href = strings.TrimSpace(href)
		if href == "" || !hasRelAlternate(rel) || !isMarkdownAlternate(typ, href) {
			return
		}
		if u, err := base.Parse(href); err == nil {
			out = append(out, Candidate{URL: u.String(), Source: SourceHTMLAlternate})
		}
	})
	return out
}

// githubRawCandidate rewrites github.com/<owner>/<repo>/blob/<ref>/<path> to
// its raw.githubusercontent.com equivalent.
func githubRawCandidate(u *url.URL) (Candidate, bool) {
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return Candidate{}, false
	}
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segments) < 5 || segments[2] != "blob" {
		return Candidate{}, false
	}
	raw := "https://raw.githubusercontent.com/" + strings.Join(append(segments[:2:2], segments[3:]...), "/")
	return Candidate{URL: raw, Source: SourceGitHubRaw}, true
}

// wordpressCandidate returns the origin-level /wp-json/ URL unless u is
// already under /wp-json.
func wordpressCandidate(u *url.URL) (Candidate, bool) {
	p := u.Path
	if p == "/wp-json" || strings.HasPrefix(p, "/wp-json/") {
		return Candidate{}, false
	}
	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/wp-json/"}
	return Candidate{URL: origin.String(), Source: SourceWordPressAPI}, true
}

// normalizeURL is the deduplication key of a candidate: lowercase scheme and
// host, no default port, no fragment and "/" for an empty path.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String()
}

type candidateSet struct {
	seen map[string]bool
	list []Candidate
}

// newCandidateSet starts a set that already excludes the given URLs.
func newCandidateSet(exclude ...string) *candidateSet {
	s := &candidateSet{seen: map[string]bool{}}
	for _, e := range exclude {
		s.seen[normalizeURL(e)] = true
	}
	return s
}

func (s *candidateSet) add(cs ...Candidate) {
	for _, c := range cs {
		key := normalizeURL(c.URL)
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.list = append(s.list, c)
	}
}

// discoverCandidates gathers alternates for a probed page.
func discoverCandidates(probe attemptResult) []Candidate {
	final, err := url.Parse(probe.FinalURL)
	if err != nil {
		return nil
	}
	set := newCandidateSet(probe.FinalURL)
	set.add(linkHeaderCandidates(final, probe.LinkHeader)...)
	if isHTML(probe.ContentType) {
		set.add(htmlAlternateCandidates(final, probe.Body.Sample)...)
	}
	if probe.JSShell.IsShell {
		if c, ok := githubRawCandidate(final); ok {
			set.add(c)
		}
		if c, ok := wordpressCandidate(final); ok {
			set.add(c)
		}
	}
	return set.list
}
