// Package eurlex harvests EU legal acts from the Publications Office SPARQL
// endpoint.
package eurlex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

const (
	ID             = "eurlex"
	DefaultBaseURL = "https://publications.europa.eu/webapi/rdf/sparql"
	DefaultMax     = 500

	celexURL = "https://eur-lex.europa.eu/legal-content/ES/TXT/?uri=CELEX:%s"
)

const queryTemplate = `PREFIX cdm: <http://publications.europa.eu/ontology/cdm#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
SELECT DISTINCT ?work ?celex ?title ?date ?rtype ?force
WHERE {
  ?work cdm:work_has_resource-type ?rtype .
  FILTER(?rtype IN (
    <http://publications.europa.eu/resource/authority/resource-type/DIR>,
    <http://publications.europa.eu/resource/authority/resource-type/REG>,
    <http://publications.europa.eu/resource/authority/resource-type/DEC>,
    <http://publications.europa.eu/resource/authority/resource-type/JUDG>
  ))
  ?work cdm:resource_legal_id_celex ?celex .
  ?work cdm:work_date_document ?date .
  FILTER(?date >= "%s"^^xsd:date && ?date <= "%s"^^xsd:date)
  OPTIONAL { ?work cdm:resource_legal_in-force ?force . }
  ?expr cdm:expression_belongs_to_work ?work .
  ?expr cdm:expression_uses_language <http://publications.europa.eu/resource/authority/language/SPA> .
  ?expr cdm:expression_title ?title .
}
ORDER BY DESC(?date)
LIMIT %d`

// Spider harvests EUR-Lex acts.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the EUR-Lex spider.
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
	resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{
		URL: spider.BaseURL(s.deps.Config, ID, DefaultBaseURL),
		Query: url.Values{
			"query":  {BuildQuery(w)},
			"format": {fetch.AcceptJSON},
		},
		Accept: fetch.AcceptSPARQL,
	})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body)
}

// BuildQuery renders the CDM SPARQL query for w.
func BuildQuery(w spider.Window) string {
	return fmt.Sprintf(queryTemplate, dates.FormatISO(w.From), dates.FormatISO(w.To), w.MaxResults)
}

type binding struct {
	Value string `json:"value"`
}

type sparqlResults struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

// Parse maps a SPARQL JSON result set to records.
func Parse(body []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.ErrNoEntries
	}

	var res sparqlResults
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, spider.NewParseError("sparql-json", err)
	}

	if len(res.Results.Bindings) == 0 {
		return nil, spider.ErrNoEntries
	}

	records := make([]domain.Record, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		records = append(records, mapRow(row))
	}

	return records, nil
}

func mapRow(row map[string]binding) domain.Record {
	celex := row["celex"].Value
	rtype := row["rtype"].Value
	m := MapResourceType(rtype)

	status := "vigente"
	if f, ok := row["force"]; ok {
		if inForce, err := strconv.ParseBool(f.Value); err == nil && !inForce {
			status = "derogada"
		}
	}

	r := domain.Record{
		SourceID:         ID,
		ExternalRef:      celex,
		Title:            row["title"].Value,
		ResolutionType:   m.ResolutionType,
		IssuingBody:      m.IssuingBody,
		Jurisdiction:     m.Jurisdiction,
		DateIssued:       dates.Normalize(row["date"].Value),
		CelexNumber:      celex,
		StatusLegal:      status,
		LanguageOriginal: "es",
	}
	if celex != "" {
		r.OriginalURL = fmt.Sprintf(celexURL, celex)
	}

	return r
}
