package edpb

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/htmlx"
)

// Listing entry selectors in priority order; selectors unverified against
// live source.
var entryFinders = []func(doc *goquery.Document) *goquery.Selection{
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("article.node, div.ecl-content-block, div.ecl-card")
	},
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div.view-content div.views-row")
	},
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div.field--name-title").Parent().AddSelection(doc.Find("div[class*='node--type']"))
	},
}

const (
	titleSelector = "h2 a, h3 a, a.ecl-content-block__title, a.ecl-card__title, a.title, " +
		"div.field--name-title a, h2, h3"
	dateSelector = "time[datetime], .ecl-date-block, .field--name-created, .field--name-field-date, [class*='date']"
)

// ParseListing scrapes the HTML document listing. Relative links are resolved
// against base and entries published before from are dropped.
func ParseListing(body []byte, base, from string) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.ErrNoEntries
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, spider.NewParseError("html", err)
	}

	var entries *goquery.Selection
	for _, find := range entryFinders {
		if sel := find(doc); sel.Length() > 0 {
			entries = sel
			break
		}
	}
	if entries == nil {
		return nil, spider.ErrNoEntries
	}

	records := make([]domain.Record, 0, entries.Length())
	entries.Each(func(_ int, entry *goquery.Selection) {
		title, href := titleAndHref(entry)
		if r, ok := newRecord(title, htmlx.ResolveURL(base, href), entryDate(entry), from); ok {
			records = append(records, r)
		}
	})

	return records, nil
}

func titleAndHref(entry *goquery.Selection) (string, string) {
	node := entry.Find(titleSelector).First()
	if node.Length() == 0 {
		return "", ""
	}

	href, ok := node.Attr("href")
	if !ok || href == "" {
		href, _ = node.Find("a").First().Attr("href")
	}

	return htmlx.Clean(node.Text()), href
}

func entryDate(entry *goquery.Selection) string {
	node := entry.Find(dateSelector).First()
	if node.Length() == 0 {
		return ""
	}
	if dt, ok := node.Attr("datetime"); ok && dt != "" {
		return dates.Normalize(dt)
	}
	return dates.Normalize(node.Text())
}
