package webfetch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	shellScriptThreshold = 5
	shellVisibleTextMax  = 220
	shellMinSignals      = 2
)

// JSShellReport is the outcome of DetectJSShell.
type JSShellReport struct {
	IsShell bool     `json:"isShell"`
	Signals []string `json:"signals"`
}

var spaRootIDs = map[string]bool{"root": true, "app": true, "__next": true, "__nuxt": true}

var jsRequiredPhrases = []string{
	"enable javascript",
	"javascript is required",
	"javascript is disabled",
	"requires javascript",
	"javascript must be enabled",
	"turn on javascript",
	"need javascript",
}

var hydrationMarkers = []string{
	"__NEXT_DATA__",
	"__NUXT__",
	"__INITIAL_STATE__",
	"__APOLLO_STATE__",
	"__remixContext",
	"__sveltekit",
	"hydrateRoot",
	"ReactDOM.hydrate",
	"data-reactroot",
	"ng-version",
}

// DetectJSShell reports whether an HTML body looks like a client-rendered
// shell. Each heuristic raises one signal and at least two are needed. Bodies
// that are not text/html are never shells.
func DetectJSShell(contentType, body string) JSShellReport {
	report := JSShellReport{Signals: []string{}}
	if !isHTML(contentType) || strings.TrimSpace(body) == "" {
		return report
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return report
	}

	var (
		scripts int
		rootID  string
		text    strings.Builder
	)
	var walk func(n *html.Node, hidden bool)
	walk = func(n *html.Node, hidden bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script:
				scripts++
				hidden = true
			case atom.Style, atom.Template:
				hidden = true
			}
			if rootID == "" {
				for _, attr := range n.Attr {
					if attr.Key == "id" && spaRootIDs[attr.Val] {
						rootID = attr.Val
					}
				}
			}
		case html.TextNode:
			if !hidden {
				text.WriteString(n.Data)
				text.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, hidden)
		}
	}
	walk(doc, false)

	visible := utf8.RuneCountInString(strings.Join(strings.Fields(text.String()), " "))

	if scripts >= shellScriptThreshold {
		report.Signals = append(report.Signals, fmt.Sprintf("script-count:%d", scripts))
	}
	if visible > 0 && visible < shellVisibleTextMax && scripts >= 1 {
		report.Signals = append(report.Signals, fmt.Sprintf("low-visible-text:%d", visible))
	}
	if rootID != "" {
		report.Signals = append(report.Signals, "spa-root:#"+rootID)
	}
	lower := strings.ToLower(body)
	for _, phrase := range jsRequiredPhrases {
		if strings.Contains(lower, phrase) {
			report.Signals = append(report.Signals, "js-required-text")
			break
		}
	}
	for _, marker := range hydrationMarkers {
		if strings.Contains(body, marker) {
			report.Signals = append(report.Signals, "hydration-marker:"+marker)
			break
		}
	}

	report.IsShell = len(report.Signals) >= shellMinSignals
	return report
}
