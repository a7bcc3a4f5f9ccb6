// Package teac harvests resolutions of the Central Economic-Administrative
// Tribunal from the DYCTEA doctrine search.
package teac

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
	ID             = "teac"
	DefaultBaseURL = "https://serviciostelematicosext.hacienda.gob.es/TEAC/DYCTEA/"
	DefaultMax     = 100

	issuingBody  = "Tribunal Económico-Administrativo Central"
	jurisdiction = "fiscal"
)

var referencePattern = regexp.MustCompile(`\b\d{2}/\d{5}/\d{4}\b`)

// Result selectors in priority order; selectors unverified against live
// source.
var entryPaths = []string{
	"//table[contains(@id, 'Resultados') or contains(@class, 'resultados')]//tr[position() > 1]",
	"//div[contains(@class, 'resultado')]",
	"//li[contains(@class, 'criterio')]",
}

// Spider harvests TEAC resolutions.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the TEAC spider.
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
		URL: base + "criterios.aspx",
		Query: url.Values{
			"fechaDesde": {dates.FormatSlashed(w.From)},
			"fechaHasta": {dates.FormatSlashed(w.To)},
			"registros":  {strconv.Itoa(w.MaxResults)},
		},
		Accept: fetch.AcceptHTML,
	})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body, base)
}

// Parse extracts records from a DYCTEA result page.
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

	ref := referencePattern.FindString(htmlx.Text(e, ".//*[contains(@class, 'referencia')]", ".//td[1]"))
	if ref == "" {
		ref = referencePattern.FindString(block)
	}

	title := htmlx.Field(e, "Criterio", "Asunto")
	if title == "" {
		title = htmlx.Text(e, ".//*[contains(@class, 'criterio')]", ".//*[contains(@class, 'titulo')]", ".//td[3]")
	}

	issued := htmlx.Field(e, "Fecha de resolución", "Fecha")
	if issued == "" {
		issued = htmlx.Text(e, ".//*[contains(@class, 'fecha')]", ".//td[2]")
	}

	return domain.Record{
		SourceID:       ID,
		ExternalRef:    ref,
		Title:          title,
		ResolutionType: ResolutionType(block),
		IssuingBody:    issuingBody,
		Jurisdiction:   jurisdiction,
		DateIssued:     htmlx.Date(issued),
		OriginalURL:    htmlx.ResolveURL(base, htmlx.Attr(e, "href", ".//a")),
		CaseNumber:     ref,
	}
}

var unificationMarkers = []string{
	"unificación de criterio",
	"unificacion de criterio",
	"unificación de doctrina",
	"unificacion de doctrina",
}

// ResolutionType is "unificacion_criterio" when the entry is flagged as a
// unification of doctrine and "resolucion_teac" otherwise.
func ResolutionType(text string) string {
	t := strings.ToLower(text)
	for _, m := range unificationMarkers {
		if strings.Contains(t, m) {
			return "unificacion_criterio"
		}
	}
	return "resolucion_teac"
}
