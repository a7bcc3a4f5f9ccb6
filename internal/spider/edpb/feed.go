package edpb

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

const httpPrefix = "http"

// ParseFeed maps an RSS 2.0 or Atom feed to records, dropping entries
// published before from (YYYY-MM-DD).
func ParseFeed(body []byte, from string) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.ErrNoEntries
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, spider.NewParseError("feed", err)
	}

	records := make([]domain.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if r, ok := newRecord(item.Title, itemLink(item), itemDate(item), from); ok {
			records = append(records, r)
		}
	}

	return records, nil
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return strings.TrimSpace(item.Link)
	}
	if len(item.Links) > 0 && item.Links[0] != "" {
		return strings.TrimSpace(item.Links[0])
	}
	if strings.HasPrefix(item.GUID, httpPrefix) {
		return item.GUID
	}
	return ""
}

func itemDate(item *gofeed.Item) string {
	for _, t := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if t != nil {
			return dates.FormatISO(*t)
		}
	}
	if item.Published != "" {
		return dates.Normalize(item.Published)
	}
	return dates.Normalize(item.Updated)
}
