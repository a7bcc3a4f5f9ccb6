// Package curia harvests case law of the Court of Justice of the European
// Union from the CURIA search listing.
package curia

import (
	"context"
	"net/url"
	"regexp"
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
	// ID is the registry key.
	ID = "curia"
	// SourceCode is the institutional code stamped on records.
	SourceCode     = "tjue"
	DefaultBaseURL = "https://curia.europa.eu/juris/"
	DefaultMax     = 200
)

var (
	casePattern  = regexp.MustCompile(`[CT]-\d+/\d{2}`)
	ecliPattern  = regexp.MustCompile(`ECLI:EU:[A-Z]:\d{4}:\d+`)
	curiaHrefish = regexp.MustCompile(`curia|juris`)
)

// Result row selectors; selectors unverified against live source.
var entryPaths = []string{
	"//table[contains(@class, 'detail_table_documents')]//tr[position() > 1]" +
		" | //table[contains(@class, 'table_document_liste')]//tr[position() > 1]",
	"//div[contains(@class, 'result_list')]//div[contains(@class, 'result')]" +
		" | //div[contains(@class, 'search_result')]",
	"//table[.//th[contains(text(), 'Asunto') or contains(text(), 'Case')]]//tr[position() > 1]",
}

// Spider harvests CURIA judgments, opinions and orders.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the CURIA spider.
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
		URL: base + "liste.jsf",
		Query: url.Values{
			"td":       {"ALL"},
			"dates":    {dates.FormatSlashed(w.From) + "$" + dates.FormatSlashed(w.To)},
			"language": {"es"},
			"jur":      {"C,T"},
			"page":     {"1"},
		},
		Accept: fetch.AcceptHTML,
	})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body, base)
}

// Parse extracts records from a CURIA result listing. Relative links are
// resolved against base.
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
		if r, ok := mapEntry(e, base); ok {
			records = append(records, r)
		}
	}

	return records, nil
}

func mapEntry(e *html.Node, base string) (domain.Record, bool) {
	block := htmlx.Text(e)

	caseNumber := htmlx.Text(e,
		".//td[contains(@class, 'table_cell_aff')]",
		".//span[contains(@class, 'affaire')]",
		".//td[1]//a",
	)
	caseNumber = casePattern.FindString(caseNumber)
	if caseNumber == "" {
		caseNumber = casePattern.FindString(block)
	}

	ecli := htmlx.Text(e, ".//td[contains(@class, 'table_cell_ecli')]", ".//span[contains(@class, 'ecli')]")
	if ecli == "" {
		ecli = ecliPattern.FindString(block)
	}

	if caseNumber == "" && ecli == "" {
		return domain.Record{}, false
	}

	issued := htmlx.Text(e, ".//td[contains(@class, 'table_cell_date')]", ".//span[contains(@class, 'date')]")
	if issued == "" {
		issued = dateFromBlock(e, block)
	}
	issued = dates.Normalize(issued)

	docType := htmlx.Text(e,
		".//td[contains(@class, 'table_cell_type')]",
		".//span[contains(@class, 'type_doc')]",
		".//td[contains(@class, 'type')]",
	)

	title := htmlx.Text(e,
		".//td[contains(@class, 'table_cell_nom_usuel')]",
		".//span[contains(@class, 'nom_usuel')]",
		".//td[2]",
	)
	if title == "" {
		title = FallbackTitle(docType, caseNumber, issued)
	}

	ref := ecli
	if ref == "" {
		ref = caseNumber
	}

	return domain.Record{
		SourceID:       SourceCode,
		ExternalRef:    ref,
		Title:          title,
		ResolutionType: MapDocumentType(docType),
		IssuingBody:    "TJUE",
		Jurisdiction:   "eu_general",
		DateIssued:     issued,
		OriginalURL:    originalURL(e, base),
		ECLI:           ecli,
		CaseNumber:     caseNumber,
		ProcedureType: htmlx.Text(e,
			".//td[contains(@class, 'table_cell_type_procedure')]",
			".//span[contains(@class, 'type_procedure')]",
		),
		AdvocateGeneral: htmlx.Text(e,
			".//td[contains(@class, 'table_cell_avocat_general')]",
			".//span[contains(@class, 'avocat_general')]",
		),
		LanguageOriginal: "es",
	}, true
}

func dateFromBlock(e *html.Node, block string) string {
	if v := htmlx.Attr(e, "datetime", ".//time[@datetime]"); v != "" {
		return v
	}
	return htmlx.DateIn(block)
}

func originalURL(e *html.Node, base string) string {
	href := htmlx.Attr(e, "href",
		".//td[contains(@class, 'table_cell_aff')]//a",
		".//span[contains(@class, 'affaire')]//a",
		".//a[contains(@href, 'document')]",
		".//a[contains(@href, 'liste.jsf') or contains(@href, 'document.jsf')]",
	)
	if href == "" {
		first := htmlx.Attr(e, "href", ".//a")
		if curiaHrefish.MatchString(first) || strings.HasPrefix(first, "/") {
			href = first
		}
	}

	return htmlx.ResolveURL(base, href)
}

// FallbackTitle builds a title from the document type, case and date when
// the listing has no usual name.
func FallbackTitle(docType, caseNumber, issued string) string {
	parts := []string{"Resolucion TJUE"}
	if docType != "" {
		parts[0] = docType
	}
	if caseNumber != "" {
		parts = append(parts, "Asunto "+caseNumber)
	}
	if issued != "" {
		parts = append(parts, "de "+issued)
	}
	return strings.Join(parts, " - ")
}
