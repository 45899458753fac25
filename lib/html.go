package lib

import (
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	whitespace = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// PlainText flattens markup into plain text. Block elements and table rows
// become lines, table cells within a row are separated by a single space.
func PlainText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return compactLines(markup)
	}

	buf := new(strings.Builder)
	flatten(doc, buf)
	return compactLines(buf.String())
}

func flatten(n *html.Node, buf *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "br":
			buf.WriteString("\n")
		case "td", "th":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "tr":
			buf.WriteString("\n")
		}
	}
}

func compactLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
