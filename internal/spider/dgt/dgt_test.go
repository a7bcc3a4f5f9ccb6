package dgt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/dgt"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/spidertest"
)

const resultsHTML = `<html><body>
<table class="resultados">
  <tr><th>Consulta</th><th>Fecha</th><th>Asunto</th></tr>
  <tr>
    <td><a href="?num_consulta=V0123-24">V0123-24</a></td>
    <td>14/03/2024</td>
    <td>IRPF. Tributación de la venta de un inmueble heredado.</td>
  </tr>
  <tr>
    <td>V2001-23</td>
    <td>13/03/2024</td>
    <td>IVA. Tipo aplicable a servicios de hostelería.</td>
  </tr>
  <tr>
    <td>0999-24</td>
    <td>13/03/2024</td>
    <td>Consulta general sin número válido.</td>
  </tr>
  <tr>
    <td>V0500-24</td>
    <td>13/03/2024</td>
    <td></td>
  </tr>
</table>
</body></html>`

func TestCrawl_ParsesRulings(t *testing.T) {
	t.Parallel()

	f := spidertest.NewFetcher(spidertest.Route{Body: resultsHTML})
	deps, logs := spidertest.Deps(f)

	records := dgt.New(deps).Crawl(context.Background(), spider.Options{})
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "dgt", first.SourceID)
	assert.Equal(t, "V0123-24", first.ExternalRef)
	assert.Equal(t, "IRPF. Tributación de la venta de un inmueble heredado.", first.Title)
	assert.Equal(t, "consulta_vinculante", first.ResolutionType)
	assert.Equal(t, "Dirección General de Tributos", first.IssuingBody)
	assert.Equal(t, "fiscal", first.Jurisdiction)
	assert.Equal(t, "2024-03-14", first.DateIssued)
	assert.Equal(t, "https://petete.tributos.hacienda.gob.es/consultas/?num_consulta=V0123-24", first.OriginalURL)

	second := records[1]
	assert.Equal(t, "V2001-23", second.ExternalRef)
	assert.Equal(t, "https://petete.tributos.hacienda.gob.es/consultas/?num_consulta=V2001-23", second.OriginalURL)

	rejected := logs.FilterMessage("rejected malformed ruling reference").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.DebugLevel, rejected[0].Level)
	assert.Equal(t, "0999-24", rejected[0].ContextMap()["reference"])

	req := f.Requests()[0]
	assert.Equal(t, "14/03/2024", req.Query.Get("fechaDesde"))
	assert.Equal(t, "15/03/2024", req.Query.Get("fechaHasta"))
}

func TestValidReference(t *testing.T) {
	t.Parallel()

	assert.True(t, dgt.ValidReference("V0123-24"))
	assert.True(t, dgt.ValidReference("V1-99"))

	for _, bad := range []string{"X0123-24", "V123", "", "V0123-2024", " V0123-24", "v0123-24"} {
		assert.False(t, dgt.ValidReference(bad), bad)
	}
}

func TestCrawl_FailSoft(t *testing.T) {
	t.Parallel()

	for name, route := range map[string]spidertest.Route{
		"gone":       {Status: 410},
		"empty":      {Body: ""},
		"no table":   {Body: "<html><body><form></form></body></html>"},
		"json error": {Body: `{"error": "maintenance"}`},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			deps, _ := spidertest.Deps(spidertest.NewFetcher(route))

			var records []domain.Record
			require.NotPanics(t, func() {
				records = dgt.New(deps).Crawl(context.Background(), spider.Options{})
			})
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}
