// Package htmlx holds the defensive XPath helpers shared by the HTML spiders.
// Every helper tolerates missing nodes and bad expressions by returning a
// zero value.
package htmlx

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	slashedDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	dottedDate  = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`)
)

// Parse loads a tolerant HTML document.
func Parse(body []byte) (*html.Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.NewParseError("html", errEmptyBody)
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, spider.NewParseError("html", err)
	}

	return doc, nil
}

// Entries returns the nodes matched by the first expression that matches
// anything. Expressions are tried in priority order.
func Entries(top *html.Node, exprs ...string) []*html.Node {
	if top == nil {
		return nil
	}

	for _, expr := range exprs {
		nodes, err := htmlquery.QueryAll(top, expr)
		if err != nil {
			continue
		}
		if len(nodes) > 0 {
			return nodes
		}
	}

	return nil
}

// First returns the first node matched by any of exprs.
func First(top *html.Node, exprs ...string) *html.Node {
	if top == nil {
		return nil
	}

	for _, expr := range exprs {
		n, err := htmlquery.Query(top, expr)
		if err == nil && n != nil {
			return n
		}
	}

	return nil
}

// Text returns the first non-empty, whitespace-collapsed text matched by exprs.
// With no expressions it returns the text of n itself.
func Text(n *html.Node, exprs ...string) string {
	if n == nil {
		return ""
	}

	if len(exprs) == 0 {
		return Clean(htmlquery.InnerText(n))
	}

	for _, expr := range exprs {
		nodes, err := htmlquery.QueryAll(n, expr)
		if err != nil {
			continue
		}
		for _, m := range nodes {
			if s := Clean(htmlquery.InnerText(m)); s != "" {
				return s
			}
		}
	}

	return ""
}

// Attr returns attribute name of the first node matched by exprs that has it.
func Attr(n *html.Node, name string, exprs ...string) string {
	if n == nil {
		return ""
	}

	if len(exprs) == 0 {
		return strings.TrimSpace(htmlquery.SelectAttr(n, name))
	}

	for _, expr := range exprs {
		nodes, err := htmlquery.QueryAll(n, expr)
		if err != nil {
			continue
		}
		for _, m := range nodes {
			if v := strings.TrimSpace(htmlquery.SelectAttr(m, name)); v != "" {
				return v
			}
		}
	}

	return ""
}

// Clean collapses runs of whitespace and trims.
func Clean(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Field returns the value of a "Label: value" pair rendered inside n. The
// innermost element whose text starts with one of labels followed by a
// colon wins, so sibling fields never bleed into each other.
func Field(n *html.Node, labels ...string) string {
	if n == nil {
		return ""
	}

	value := ""
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode {
			if v := labeledValue(Clean(htmlquery.InnerText(c)), labels); v != "" {
				value = v
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	return value
}

func labeledValue(text string, labels []string) string {
	for _, label := range labels {
		if len(text) < len(label) || !strings.EqualFold(text[:len(label)], label) {
			continue
		}
		rest := strings.TrimSpace(text[len(label):])
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		if v := strings.TrimSpace(strings.TrimPrefix(rest, ":")); v != "" {
			return v
		}
	}
	return ""
}

// Date normalizes raw as a whole, falling back to the first day-first date
// embedded in it.
func Date(raw string) string {
	if d := dates.Normalize(raw); d != "" {
		return d
	}
	return dates.Normalize(DateIn(raw))
}

// DateIn returns the first DD/MM/YYYY or DD.MM.YYYY date found in text.
func DateIn(text string) string {
	if m := slashedDate.FindString(text); m != "" {
		return m
	}
	return dottedDate.FindString(text)
}

// ResolveURL resolves href against base. Absolute hrefs are returned as is;
// an unparseable pair yields "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return ""
	}

	return b.ResolveReference(ref).String()
}
