package feed

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// strict policy strips every tag, safe for concurrent use
var strictPolicy = bluemonday.StrictPolicy()

// stripHTML flattens an HTML fragment to a single line of plain text
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(strictPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

// htmlToText converts an HTML article body to readable plain text,
// keeping paragraph breaks and turning list items into "- " bullets.
// Preformatted blocks keep their original line structure.
func htmlToText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return stripHTML(raw)
	}

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// skip blocks nested inside another selected block to avoid duplicates
		if s.ParentsFiltered("li, pre, blockquote").Length() > 0 {
			return
		}

		if s.Is("pre") {
			if text := strings.Trim(s.Text(), "\n"); text != "" {
				lines = append(lines, text)
			}
			return
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if s.Is("li") {
			text = "- " + text
		}
		lines = append(lines, text)
	})

	if len(lines) == 0 {
		return stripHTML(raw)
	}
	return strings.Join(lines, "\n")
}
