package eurlex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/eurlex"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/spidertest"
)

const rtypeBase = "http://publications.europa.eu/resource/authority/resource-type/"

const sparqlJSON = `{
  "head": {"vars": ["work", "celex", "title", "date", "rtype", "force"]},
  "results": {"bindings": [
    {
      "celex": {"type": "literal", "value": "32024L0001"},
      "title": {"type": "literal", "value": "Directiva (UE) 2024/1 sobre diligencia debida"},
      "date":  {"type": "literal", "value": "2024-03-12"},
      "rtype": {"type": "uri", "value": "` + rtypeBase + `DIR"},
      "force": {"type": "literal", "value": "true"}
    },
    {
      "celex": {"type": "literal", "value": "62023CJ0100"},
      "title": {"type": "literal", "value": "Sentencia del Tribunal de Justicia"},
      "date":  {"type": "literal", "value": "2024-03-11"},
      "rtype": {"type": "uri", "value": "` + rtypeBase + `JUDG"},
      "force": {"type": "literal", "value": "false"}
    },
    {
      "title": {"type": "literal", "value": "Sin CELEX"},
      "rtype": {"type": "uri", "value": "` + rtypeBase + `REG"}
    },
    {
      "celex": {"type": "literal", "value": "32024D0007"},
      "rtype": {"type": "uri", "value": "` + rtypeBase + `DEC"}
    }
  ]}
}`

func TestCrawl_MapsBindings(t *testing.T) {
	t.Parallel()

	f := spidertest.NewFetcher(spidertest.Route{Body: sparqlJSON})
	deps, _ := spidertest.Deps(f)

	records := eurlex.New(deps).Crawl(context.Background(), spider.Options{})
	require.Len(t, records, 2)

	dir := records[0]
	assert.Equal(t, "eurlex", dir.SourceID)
	assert.Equal(t, "32024L0001", dir.ExternalRef)
	assert.Equal(t, "32024L0001", dir.CelexNumber)
	assert.Equal(t, "directiva", dir.ResolutionType)
	assert.Equal(t, "Parlamento Europeo y Consejo", dir.IssuingBody)
	assert.Equal(t, "eu_legislacion", dir.Jurisdiction)
	assert.Equal(t, "2024-03-12", dir.DateIssued)
	assert.Equal(t, "vigente", dir.StatusLegal)
	assert.Equal(t, "es", dir.LanguageOriginal)
	assert.Equal(t, "https://eur-lex.europa.eu/legal-content/ES/TXT/?uri=CELEX:32024L0001", dir.OriginalURL)

	judg := records[1]
	assert.Equal(t, "sentencia_tjue", judg.ResolutionType)
	assert.Equal(t, "TJUE", judg.IssuingBody)
	assert.Equal(t, "eu_general", judg.Jurisdiction)
	assert.Equal(t, "derogada", judg.StatusLegal)

	req := f.Requests()[0]
	assert.Equal(t, eurlex.DefaultBaseURL, req.URL)
	assert.Equal(t, fetch.AcceptSPARQL, req.Accept)
	assert.Contains(t, req.Query.Get("query"), `FILTER(?date >= "2024-03-08"^^xsd:date && ?date <= "2024-03-15"^^xsd:date)`)
	assert.Contains(t, req.Query.Get("query"), "LIMIT 500")
}

func TestBuildQuery_HonorsMaxResults(t *testing.T) {
	t.Parallel()

	w := spider.Options{MaxResults: 25}.Resolve(domain.FrequencyWeekly, eurlex.DefaultMax, spidertest.Now)
	assert.Contains(t, eurlex.BuildQuery(w), "LIMIT 25")
}

func TestMapResourceType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri  string
		want eurlex.Mapping
	}{
		{rtypeBase + "DIR", eurlex.Mapping{ResolutionType: "directiva", IssuingBody: "Parlamento Europeo y Consejo", Jurisdiction: "eu_legislacion"}},
		{rtypeBase + "REG", eurlex.Mapping{ResolutionType: "reglamento", IssuingBody: "Parlamento Europeo y Consejo", Jurisdiction: "eu_legislacion"}},
		{rtypeBase + "DEC", eurlex.Mapping{ResolutionType: "decision", IssuingBody: "Comision Europea", Jurisdiction: "eu_legislacion"}},
		{rtypeBase + "JUDG", eurlex.Mapping{ResolutionType: "sentencia_tjue", IssuingBody: "TJUE", Jurisdiction: "eu_general"}},
		{rtypeBase + "OPIN", eurlex.Mapping{ResolutionType: "otro", IssuingBody: "Union Europea", Jurisdiction: "eu_legislacion"}},
		{"", eurlex.Mapping{ResolutionType: "otro", IssuingBody: "Union Europea", Jurisdiction: "eu_legislacion"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, eurlex.MapResourceType(tt.uri), tt.uri)
	}
}

func TestCrawl_FailSoft(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"empty":        "",
		"not json":     "<html>maintenance</html>",
		"truncated":    `{"results": {"bindings": [`,
		"no bindings":  `{"results": {"bindings": []}}`,
		"wrong shape":  `{"results": "nope"}`,
		"json literal": `null`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			deps, _ := spidertest.Deps(spidertest.NewFetcher(spidertest.Route{Body: body}))
			records := eurlex.New(deps).Crawl(context.Background(), spider.Options{})

			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}
