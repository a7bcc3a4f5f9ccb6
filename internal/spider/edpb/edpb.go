// Package edpb harvests guidelines, opinions and decisions of the European
// Data Protection Board. The RSS feed is tried first; the HTML document
// listing is scraped only when the feed is unreachable or empty.
package edpb

import (
	"context"
	"strings"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

const (
	ID             = "edpb"
	DefaultBaseURL = "https://edpb.europa.eu/"
	DefaultMax     = 100

	feedPath    = "/our-work-tools/general-guidance/guidelines-recommendations-best-practices_en/rss"
	listingPath = "/our-work-tools/our-documents_en"

	issuingBody  = "EDPB"
	jurisdiction = "proteccion_datos"
	language     = "en"
)

// Spider harvests EDPB documents.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the EDPB spider.
func New(deps spider.Deps) *Spider {
	deps = deps.WithDefaults()
	return &Spider{deps: deps, log: deps.Logger.With(logger.Source(ID))}
}

func (s *Spider) ID() string                    { return ID }
func (s *Spider) Supports(sourceID string) bool { return sourceID == ID }
func (s *Spider) Frequency() domain.Frequency   { return domain.FrequencyMonthly }

func (s *Spider) Crawl(ctx context.Context, opts spider.Options) []domain.Record {
	w := opts.Resolve(s.Frequency(), DefaultMax, s.deps.Now())
	return spider.Run(ctx, s.log, w, s.crawl)
}

func (s *Spider) crawl(ctx context.Context, w spider.Window) ([]domain.Record, error) {
	base := strings.TrimRight(spider.BaseURL(s.deps.Config, ID, DefaultBaseURL), "/")
	from := dates.FormatISO(w.From)

	return spider.Fallback(ctx, s.log,
		spider.Strategy{Name: "rss", Run: func(ctx context.Context) ([]domain.Record, error) {
			resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{URL: base + feedPath, Accept: fetch.AcceptRSS})
			if err != nil {
				return nil, err
			}
			return ParseFeed(resp.Body, from)
		}},
		spider.Strategy{Name: "html", Run: func(ctx context.Context) ([]domain.Record, error) {
			resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{URL: base + listingPath, Accept: fetch.AcceptHTML})
			if err != nil {
				return nil, err
			}
			return ParseListing(resp.Body, base, from)
		}},
	)
}

// newRecord applies the extraction contract shared by both strategies.
// ok is false when the entry is older than from or has no usable reference.
func newRecord(title, link, issued, from string) (domain.Record, bool) {
	title = strings.TrimSpace(title)
	if title == "" || link == "" {
		return domain.Record{}, false
	}

	if issued != "" && issued < from {
		return domain.Record{}, false
	}

	ref := Reference(link, title)
	if ref == "" {
		return domain.Record{}, false
	}

	return domain.Record{
		SourceID:         ID,
		ExternalRef:      ref,
		Title:            title,
		ResolutionType:   Classify(title),
		IssuingBody:      issuingBody,
		Jurisdiction:     jurisdiction,
		DateIssued:       issued,
		OriginalURL:      link,
		LanguageOriginal: language,
	}, true
}
