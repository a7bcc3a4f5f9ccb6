package htmlx_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/htmlx"
)

const listing = `<html><body>
<div class="results">
  <div class="row"><a href="/doc/1">  First
     result </a><span class="date">01/02/2024</span></div>
  <div class="row"><a href="https://other.test/2">Second</a></div>
</div>
</body></html>`

func TestEntries_PriorityOrder(t *testing.T) {
	t.Parallel()

	doc, err := htmlx.Parse([]byte(listing))
	require.NoError(t, err)

	rows := htmlx.Entries(doc, "//li[@class='missing']", "//div[@class='row']", "//a")
	require.Len(t, rows, 2)

	assert.Empty(t, htmlx.Entries(doc, "//table", "///bad[["))
}

func TestText_And_Attr(t *testing.T) {
	t.Parallel()

	doc, err := htmlx.Parse([]byte(listing))
	require.NoError(t, err)
	rows := htmlx.Entries(doc, "//div[@class='row']")
	require.Len(t, rows, 2)

	assert.Equal(t, "First result", htmlx.Text(rows[0], ".//a"))
	assert.Equal(t, "01/02/2024", htmlx.Text(rows[0], ".//time", ".//span[@class='date']"))
	assert.Empty(t, htmlx.Text(rows[1], ".//span[@class='date']"))
	assert.Equal(t, "/doc/1", htmlx.Attr(rows[0], "href", ".//a"))
	assert.Empty(t, htmlx.Attr(nil, "href", ".//a"))
	assert.Empty(t, htmlx.Text(nil))
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	_, err := htmlx.Parse([]byte("  "))

	var pe *spider.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestField(t *testing.T) {
	t.Parallel()

	doc, err := htmlx.Parse([]byte(`<div class="doc"><ul>` +
		`<li><strong>Roj:</strong> STS 1234/2024</li>` +
		`<li><strong>Órgano:</strong> Tribunal Supremo. Sala de lo Civil</li>` +
		`<li>Fecha:12/03/2024</li>` +
		`</ul></div>`))
	require.NoError(t, err)

	block := htmlx.First(doc, "//div[@class='doc']")
	require.NotNil(t, block)

	assert.Equal(t, "STS 1234/2024", htmlx.Field(block, "ROJ"))
	assert.Equal(t, "Tribunal Supremo. Sala de lo Civil", htmlx.Field(block, "Organo", "Órgano"))
	assert.Equal(t, "12/03/2024", htmlx.Field(block, "Fecha"))
	assert.Empty(t, htmlx.Field(block, "ECLI"))
	assert.Empty(t, htmlx.Field(nil, "Roj"))
}

func TestDateIn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12/03/2024", htmlx.DateIn("Fecha de resolución 12/03/2024, publicada"))
	assert.Equal(t, "01.02.2024", htmlx.DateIn("vom 01.02.2024"))
	assert.Empty(t, htmlx.DateIn("C-123/22"))

	assert.Equal(t, "2024-03-12", htmlx.Date("2024-03-12"))
	assert.Equal(t, "2024-03-12", htmlx.Date("Madrid, 12/03/2024"))
	assert.Equal(t, "2024-03-10", htmlx.Date("10/03/2024 10:00"))
	assert.Empty(t, htmlx.Date("sin fecha"))
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.boe.es/diario/x.pdf", htmlx.ResolveURL("https://www.boe.es", "/diario/x.pdf"))
	assert.Equal(t, "https://curia.europa.eu/juris/document.jsf?id=1",
		htmlx.ResolveURL("https://curia.europa.eu/juris/liste.jsf", "document.jsf?id=1"))
	assert.Equal(t, "https://other.test/2", htmlx.ResolveURL("https://www.boe.es", "https://other.test/2"))
	assert.Empty(t, htmlx.ResolveURL("https://www.boe.es", ""))
}
