// Package dgt harvests binding tax rulings published by the Directorate
// General for Taxation.
package dgt

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
	ID             = "dgt"
	DefaultBaseURL = "https://petete.tributos.hacienda.gob.es/consultas/"
	DefaultMax     = 200

	issuingBody    = "Dirección General de Tributos"
	jurisdiction   = "fiscal"
	resolutionType = "consulta_vinculante"
)

var (
	referencePattern = regexp.MustCompile(`^V\d+-\d{2}$`)
	referenceInText  = regexp.MustCompile(`\bV\d+-\d{2}\b`)
)

// Result row selectors in priority order; selectors unverified against
// live source.
var entryPaths = []string{
	"//table[contains(@class, 'resultados')]//tr[position() > 1]",
	"//div[contains(@class, 'resultado')]",
	"//li[contains(@class, 'consulta')]",
}

// ValidReference reports whether ref is a binding ruling number such as
// V0123-24.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}

// Spider harvests DGT binding rulings.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the DGT spider.
func New(deps spider.Deps) *Spider {
	deps = deps.WithDefaults()
	return &Spider{deps: deps, log: deps.Logger.With(logger.Source(ID))}
}

func (s *Spider) ID() string                    { return ID }
func (s *Spider) Supports(sourceID string) bool { return sourceID == ID }
func (s *Spider) Frequency() domain.Frequency   { return domain.FrequencyDaily }

func (s *Spider) Crawl(ctx context.Context, opts spider.Options) []domain.Record {
	w := opts.Resolve(s.Frequency(), DefaultMax, s.deps.Now())
	return spider.Run(ctx, s.log, w, s.crawl)
}

func (s *Spider) crawl(ctx context.Context, w spider.Window) ([]domain.Record, error) {
	base := spider.BaseURL(s.deps.Config, ID, DefaultBaseURL)

	resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{
		URL: base,
		Query: url.Values{
			"tipo":           {"vinculantes"},
			"fechaDesde":     {dates.FormatSlashed(w.From)},
			"fechaHasta":     {dates.FormatSlashed(w.To)},
			"num_resultados": {strconv.Itoa(w.MaxResults)},
		},
		Accept: fetch.AcceptHTML,
	})
	if err != nil {
		return nil, err
	}

	return s.parse(resp.Body, base)
}

func (s *Spider) parse(body []byte, base string) ([]domain.Record, error) {
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
		ref := reference(e)
		if !ValidReference(ref) {
			s.log.Debug("rejected malformed ruling reference", logger.String("reference", ref))
			continue
		}
		records = append(records, mapEntry(e, ref, base))
	}

	return records, nil
}

func reference(e *html.Node) string {
	candidates := []string{
		htmlx.Field(e, "Nº Consulta", "N° Consulta", "Número de consulta", "Consulta"),
		htmlx.Text(e, ".//*[contains(@class, 'num')]", ".//td[1]"),
	}
	for _, c := range candidates {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			return c
		}
	}
	return referenceInText.FindString(htmlx.Text(e))
}

func mapEntry(e *html.Node, ref, base string) domain.Record {
	title := htmlx.Field(e, "Asunto", "Cuestión planteada", "Descripción")
	if title == "" {
		title = htmlx.Text(e, ".//*[contains(@class, 'asunto')]", ".//*[contains(@class, 'descripcion')]", ".//td[3]")
	}

	issued := htmlx.Field(e, "Fecha salida", "Fecha")
	if issued == "" {
		issued = htmlx.Text(e, ".//*[contains(@class, 'fecha')]", ".//td[2]")
	}

	link := htmlx.ResolveURL(base, htmlx.Attr(e, "href", ".//a"))
	if link == "" {
		link, _ = fetch.BuildURL(base, url.Values{"num_consulta": {ref}})
	}

	return domain.Record{
		SourceID:       ID,
		ExternalRef:    ref,
		Title:          title,
		ResolutionType: resolutionType,
		IssuingBody:    issuingBody,
		Jurisdiction:   jurisdiction,
		DateIssued:     htmlx.Date(issued),
		OriginalURL:    link,
		CaseNumber:     ref,
	}
}
