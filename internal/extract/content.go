// Package extract turns fetched markup into bounded plain text suitable for
// fact records.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Content holds the text extracted from one page.
type Content struct {
	Title string
	Text  string
}

// ContentExtractor extracts a title and readable body text from HTML.
type ContentExtractor struct {
	maxRunes int
}

// NewContentExtractor creates an extractor that truncates body text to
// maxRunes runes.
func NewContentExtractor(maxRunes int) *ContentExtractor {
	if maxRunes <= 0 {
		maxRunes = 100_000
	}
	return &ContentExtractor{maxRunes: maxRunes}
}

// Elements whose subtrees carry no readable content or are navigational
// boilerplate.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
}

// Extract parses markup and returns the page title and body text. The title
// comes from <title>, then og:title, then fallbackTitle. Body text is
// whitespace-collapsed and truncated on a rune boundary so a multibyte
// codepoint is never split.
func (e *ContentExtractor) Extract(markup, fallbackTitle string) (*Content, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var body strings.Builder
	var title, ogTitle string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			switch n.Data {
			case "title":
				if title == "" {
					title = collapseWhitespace(textOf(n))
				}
				return
			case "meta":
				if attr(n, "property") == "og:title" && ogTitle == "" {
					ogTitle = strings.TrimSpace(attr(n, "content"))
				}
				return
			}
		case html.TextNode:
			text := collapseWhitespace(n.Data)
			if text != "" {
				if body.Len() > 0 {
					body.WriteByte(' ')
				}
				body.WriteString(text)
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title == "" {
		title = ogTitle
	}
	if title == "" {
		title = fallbackTitle
	}

	return &Content{
		Title: title,
		Text:  truncateRunes(body.String(), e.maxRunes),
	}, nil
}

// textOf collects the text nodes directly under n.
func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapseWhitespace trims and folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes without splitting a codepoint.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
