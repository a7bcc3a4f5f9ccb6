// Package boe harvests the daily summary of the Spanish official gazette.
package boe

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/dates"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/htmlx"
)

const (
	// ID is the registry key and the stamped source_id.
	ID             = "boe"
	DefaultBaseURL = "https://www.boe.es/datosabiertos/api/"
	DefaultMax     = 500

	siteURL = "https://www.boe.es"
)

// Item selectors in priority order; selectors unverified against live source.
var itemPaths = []string{
	"//item",
	"//diario//seccion//departamento//item",
	"//epigrafe/item",
}

// Spider harvests BOE dispositions.
type Spider struct {
	deps spider.Deps
	log  logger.Logger
}

// New creates the BOE spider.
func New(deps spider.Deps) *Spider {
	deps = deps.WithDefaults()
	return &Spider{deps: deps, log: deps.Logger.With(logger.Source(ID))}
}

func (s *Spider) ID() string                    { return ID }
func (s *Spider) Supports(sourceID string) bool { return sourceID == ID }
func (s *Spider) Frequency() domain.Frequency   { return domain.FrequencyDaily }

// Crawl fetches the summary for the first day of the window.
func (s *Spider) Crawl(ctx context.Context, opts spider.Options) []domain.Record {
	w := opts.Resolve(s.Frequency(), DefaultMax, s.deps.Now())
	return spider.Run(ctx, s.log, w, s.crawl)
}

func (s *Spider) crawl(ctx context.Context, w spider.Window) ([]domain.Record, error) {
	base := strings.TrimRight(spider.BaseURL(s.deps.Config, ID, DefaultBaseURL), "/")
	target := fmt.Sprintf("%s/boe/dias/%s", base, w.From.Format("2006/01/02"))

	resp, err := s.deps.Fetcher.Fetch(ctx, fetch.Request{URL: target, Accept: fetch.AcceptXML})
	if err != nil {
		return nil, err
	}

	return Parse(resp.Body)
}

// Parse extracts records from a BOE daily summary document.
func Parse(body []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, spider.ErrNoEntries
	}

	doc, err := xmlquery.ParseWithOptions(bytes.NewReader(body), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:    false,
			AutoClose: xml.HTMLAutoClose,
			Entity:    xml.HTMLEntity,
		},
	})
	if err != nil {
		return nil, spider.NewParseError("xml", err)
	}

	published := dates.Normalize(text(doc, "//metadatos/fecha_publicacion"))
	if published == "" {
		if d := xmlquery.FindOne(doc, "//diario"); d != nil {
			published = dates.Normalize(d.SelectAttr("fecha"))
		}
	}

	items := findItems(doc)
	if len(items) == 0 {
		return nil, spider.ErrNoEntries
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		records = append(records, mapItem(item, published))
	}

	return records, nil
}

func findItems(doc *xmlquery.Node) []*xmlquery.Node {
	for _, p := range itemPaths {
		nodes, err := xmlquery.QueryAll(doc, p)
		if err == nil && len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

func mapItem(item *xmlquery.Node, published string) domain.Record {
	ref := item.SelectAttr("id")
	if ref == "" {
		ref = text(item, "identificador", "id")
	}

	body := ""
	if dept := ancestor(item, "departamento"); dept != nil {
		body = dept.SelectAttr("nombre")
	}
	if body == "" {
		body = text(item, "departamento")
	}

	rank := ""
	if p := item.Parent; p != nil && p.Data == "epigrafe" {
		rank = p.SelectAttr("nombre")
	}
	if rank == "" {
		rank = text(item, "rango")
	}

	original := resolve(text(item, "urlHtml", "url_html"))
	if original == "" {
		original = resolve(text(item, "urlPdf", "url_pdf"))
	}

	return domain.Record{
		SourceID:       ID,
		ExternalRef:    strings.TrimSpace(ref),
		Title:          htmlx.Clean(text(item, "titulo")),
		ResolutionType: MapRank(rank),
		IssuingBody:    strings.TrimSpace(body),
		DateIssued:     published,
		DatePublished:  published,
		OriginalURL:    original,
	}
}

// text returns the first non-empty inner text among exprs evaluated from n.
func text(n *xmlquery.Node, exprs ...string) string {
	for _, e := range exprs {
		nodes, err := xmlquery.QueryAll(n, e)
		if err != nil {
			continue
		}
		for _, m := range nodes {
			if v := strings.TrimSpace(m.InnerText()); v != "" {
				return v
			}
		}
	}
	return ""
}

func ancestor(n *xmlquery.Node, name string) *xmlquery.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == xmlquery.ElementNode && p.Data == name {
			return p
		}
	}
	return nil
}

func resolve(u string) string {
	if u == "" {
		return ""
	}
	return htmlx.ResolveURL(siteURL, u)
}
