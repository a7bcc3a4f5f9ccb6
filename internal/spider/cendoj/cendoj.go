// Package cendoj harvests Spanish case law from the judiciary's documentation
// centre search.
package cendoj

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/htmlx"
)

const (
	ID             = "cendoj"
	DefaultBaseURL = "https://www.poderjudicial.es/search/"
	DefaultMax     = 100
)

var (
	// Regional and provincial courts carry a region code: "SAP M 1234/2023".
	rojPattern  = regexp.MustCompile(`\b(?:STSJ|STS|SAN|SAP|ATSJ|ATS|AAN|AAP)(?:\s+[A-Z]{1,3})?\s+\d+/\d{4}\b`)
	ecliPattern = regexp.MustCompile(`ECLI:ES:[A-Z]+:\d{4}:[0-9A-Z.]+`)
)

// Result block selectors in priority order; selectors unverified against
// live source.
var entryPaths = []string{
	"//div[contains(@class, 'searchresult')]",
	"//li[contains(@class, 'doc')]",
	"//div[contains(@class, 'resultado')]",
	"//table[contains(@class, 'resultados')]//tr[position() > 1]",
}

// Spider harvests CENDOJ judgments and orders.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the CENDOJ spider.
func New(deps spider.Deps) *Spider {
	deps = deps.WithDefaults()
	return &Spider{deps: deps, log: deps.Logger.With(logger.Source(ID))}
}

func (s *Spider) ID() string                    { return ID }
func (s *Spider) Supports(sourceID string) bool { return sourceID == ID }
func (s *Spider) Frequency() domain.Frequency   { return domain.FrequencyWeekly }

func (s *Spider) Crawl(ctx context.Context, opts spider.Options) []domain.Record {
	w := opts.Resolve(s.Frequency(), DefaultMax, s.deps.Now())
	return spider.Run(ctx, s.log, w, s.crawl)
}

func (s *Spider) crawl(ctx context.Context, w spider.Window) ([]domain.Record, error) {
	base := spider.BaseURL(s.deps.Config, ID, DefaultBaseURL)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{
		URL: base + "search.action",
		Query: url.Values{
			"action":               {"query"},
			"sort":                 {"IN_FECHARESOLUCION:decreasing"},
			"recordsPerPage":       {strconv.Itoa(w.MaxResults)},
			"start":                {"1"},
			"FECHARESOLUCIONDESDE": {dates.FormatSlashed(w.From)},
			"FECHARESOLUCIONHASTA": {dates.FormatSlashed(w.To)},
		},
		Accept: fetch.AcceptHTML,
	})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body, base)
}

// Parse extracts records from a CENDOJ result page.
func Parse(body []byte, base string) ([]domain.Record, error) {
	doc, err := htmlx.Parse(body)
	if err != nil {
		return nil, err
	}

	entries := htmlx.Entries(doc, entryPaths...)
	if len(entries) == 0 {
		return nil, spider.ErrNoEntries
	}

	records := make([]domain.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, mapEntry(e, base))
	}

	return records, nil
}

func mapEntry(e *html.Node, base string) domain.Record {
	block := htmlx.Text(e)

	roj := rojPattern.FindString(htmlx.Field(e, "Roj"))
	if roj == "" {
		roj = rojPattern.FindString(htmlx.Text(e, ".//*[contains(@class, 'roj')]"))
	}
	if roj == "" {
		roj = rojPattern.FindString(block)
	}

	court := htmlx.Field(e, "Órgano", "Organo")
	if court == "" {
		court = htmlx.Text(e, ".//*[contains(@class, 'organo')]")
	}
	if court == "" {
		court = InferCourt(roj)
	}

	issued := htmlx.Field(e, "Fecha")
	if issued == "" {
		issued = htmlx.Text(e, ".//*[contains(@class, 'fecha')]")
	}
	if issued == "" {
		issued = block
	}

	order := htmlx.Field(e, "Jurisdicción", "Jurisdiccion", "Orden jurisdiccional", "Orden")
	if order == "" {
		order = htmlx.Text(e, ".//*[contains(@class, 'jurisdiccion')]")
	}

	return domain.Record{
		SourceID:       ID,
		ExternalRef:    roj,
		Title:          htmlx.Text(e, ".//a[contains(@class, 'title')]", ".//h3", ".//h2", ".//a"),
		ResolutionType: ResolutionType(roj),
		IssuingBody:    court,
		Jurisdiction:   MapJurisdiction(order),
		DateIssued:     htmlx.Date(issued),
		OriginalURL:    htmlx.ResolveURL(base, htmlx.Attr(e, "href", ".//a[contains(@class, 'title')]", ".//a")),
		ECLI:           ecliPattern.FindString(block),
		CaseNumber:     roj,
	}
}
