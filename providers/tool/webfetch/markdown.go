package webfetch

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Convert selects optional post-processing of the returned body.
type Convert string

const (
	ConvertNone     Convert = "none"
	ConvertMarkdown Convert = "markdown"
)

// toMarkdown converts the displayed part of an HTML capture to Markdown.
func toMarkdown(body string) (string, error) {
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
