package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockTags are elements whose boundaries break a line in the rendered text.
var blockTags = map[string]bool{
	"article": true, "br": true, "div": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "li": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "tr": true,
	"ul": true,
}

// skipTags are elements whose content never appears on screen.
var skipTags = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true,
	"svg": true, "template": true,
}

// ExtractLines converts rendered HTML into the visible text lines of the
// page body, approximating what a user would copy off the screen. Blank
// lines are dropped; the parser skips non-record lines itself.
func ExtractLines(htmlContent string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			writeVisibleText(node, &sb)
		}
	})

	raw := strings.Split(sb.String(), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func writeVisibleText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisibleText(c, sb)
	}
	if block {
		sb.WriteByte('\n')
	}
}
