// Package hudoc harvests judgments and decisions of the European Court of
// Human Rights concerning Spain from the HUDOC query API.
package hudoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

const (
	// ID is the registry key.
	ID = "hudoc"
	// SourceCode is the institutional code stamped on records.
	SourceCode     = "tedh"
	DefaultBaseURL = "https://hudoc.echr.coe.int/app/query/results"
	DefaultMax     = 100

	documentURL  = "https://hudoc.echr.coe.int/eng?i="
	issuingBody  = "Tribunal Europeo de Derechos Humanos"
	jurisdiction = "derechos_humanos"
	respondent   = "ESP"

	selectFields = "itemid,appno,docname,doctype,kpdate,importance,article,languageisocode,ecli,respondent"
)

// Spider harvests HUDOC case law.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the HUDOC spider.
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
			"select": {selectFields},
			"sort":   {"kpdate Descending"},
			"start":  {"0"},
			"length": {strconv.Itoa(w.MaxResults)},
		},
		Accept: fetch.AcceptJSON,
	})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body)
}

// BuildQuery renders the Lucene-style HUDOC query for w.
func BuildQuery(w spider.Window) string {
	return fmt.Sprintf(
		`contentsitename:ECHR AND (NOT (doctype=PR OR doctype=HFCOMOLD OR doctype=HECOMOLD)) `+
			`AND (respondent="%s") AND (kpdate>="%sT00:00:00.0Z" AND kpdate<="%sT23:59:59.0Z")`,
		respondent, dates.FormatISO(w.From), dates.FormatISO(w.To),
	)
}

type response struct {
	ResultCount int `json:"resultcount"`
	Results     []struct {
		Columns map[string]any `json:"columns"`
	} `json:"results"`
}

// columns is the typed view of a HUDOC result row. Values arrive as strings
// or numbers depending on the field, hence the weak decoding.
type columns struct {
	ItemID     string `mapstructure:"itemid"`
	AppNo      string `mapstructure:"appno"`
	DocName    string `mapstructure:"docname"`
	DocType    string `mapstructure:"doctype"`
	KPDate     string `mapstructure:"kpdate"`
	Importance string `mapstructure:"importance"`
	Article    string `mapstructure:"article"`
	Language   string `mapstructure:"languageisocode"`
	ECLI       string `mapstructure:"ecli"`
}

// Parse maps a HUDOC results payload to records. Rows that cannot be
// decoded are skipped.
func Parse(body []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.ErrNoEntries
	}

	var res response
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, spider.NewParseError("json", err)
	}

	if len(res.Results) == 0 {
		return nil, spider.ErrNoEntries
	}

	records := make([]domain.Record, 0, len(res.Results))
	for _, r := range res.Results {
		cols, err := decodeColumns(r.Columns)
		if err != nil {
			continue
		}
		records = append(records, mapColumns(cols))
	}

	return records, nil
}

func decodeColumns(raw map[string]any) (columns, error) {
	var cols columns

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cols,
	})
	if err != nil {
		return cols, fmt.Errorf("new decoder: %w", err)
	}

	if err = dec.Decode(raw); err != nil {
		return cols, fmt.Errorf("decode columns: %w", err)
	}

	return cols, nil
}

func mapColumns(c columns) domain.Record {
	ref := firstAppNo(c.AppNo)
	if ref == "" {
		ref = strings.TrimSpace(c.ItemID)
	}

	r := domain.Record{
		SourceID:         SourceCode,
		ExternalRef:      ref,
		Title:            strings.TrimSpace(c.DocName),
		ResolutionType:   MapDocType(c.DocType),
		IssuingBody:      issuingBody,
		Jurisdiction:     jurisdiction,
		DateIssued:       dates.Normalize(c.KPDate),
		ECLI:             strings.TrimSpace(c.ECLI),
		CaseNumber:       strings.TrimSpace(c.AppNo),
		LanguageOriginal: LanguageCode(c.Language),
		ImportanceLevel:  MapImportance(c.Importance),
		CEDHArticles:     Articles(c.Article),
	}
	if id := strings.TrimSpace(c.ItemID); id != "" {
		r.OriginalURL = documentURL + id
	}

	return r
}

func firstAppNo(appno string) string {
	first, _, _ := strings.Cut(appno, ";")
	return strings.TrimSpace(first)
}
