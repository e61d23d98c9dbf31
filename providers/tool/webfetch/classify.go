package webfetch

import (
	"fmt"
	"mime"
	"strings"
)

var textualTypes = map[string]bool{
	"application/json":                  true,
	"application/javascript":            true,
	"application/x-javascript":          true,
	"application/ecmascript":            true,
	"application/xml":                   true,
	"application/xhtml+xml":             true,
	"application/x-www-form-urlencoded": true,
	"application/x-sh":                  true,
	"application/x-shellscript":         true,
	"application/x-bash":                true,
	"application/yaml":                  true,
	"application/x-yaml":                true,
	"application/toml":                  true,
}

// mediaType returns the lowercased media type of a Content-Type value
// without parameters.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// charsetOf returns the charset parameter of contentType, if any.
func charsetOf(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// isTextual reports whether a response with this Content-Type may be read.
// Only the header is consulted.
func isTextual(contentType string, extra []string) bool {
	mt := mediaType(contentType)
	if mt == "" {
		return false
	}
	if strings.HasPrefix(mt, "text/") || strings.HasSuffix(mt, "+json") || strings.HasSuffix(mt, "+xml") {
		return true
	}
	if textualTypes[mt] {
		return true
	}
	for _, e := range extra {
		if strings.EqualFold(strings.TrimSpace(e), mt) {
			return true
		}
	}
	return false
}

func isHTML(contentType string) bool {
	return mediaType(contentType) == "text/html"
}

func unsupportedGuidance(contentType string) string {
	shown := contentType
	if strings.TrimSpace(shown) == "" {
		shown = "(none)"
	}
	return fmt.Sprintf("Unsupported content-type %s: only textual responses are returned and the body was not read. "+
		"If the server can serve a text representation of this resource, retry with an explicit accept value "+
		"such as \"text/markdown\", \"text/plain\" or \"application/json\".", shown)
}
