package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/api"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/registry"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSpider struct {
	id   string
	freq domain.Frequency
}

func (s stubSpider) ID() string                  { return s.id }
func (s stubSpider) Supports(id string) bool     { return id == s.id }
func (s stubSpider) Frequency() domain.Frequency { return s.freq }
func (s stubSpider) Crawl(context.Context, spider.Options) []domain.Record {
	return []domain.Record{}
}

type fakeHarvester struct {
	states   []*domain.SourceState
	statesFn error
	enabled  []string

	gotIDs  []string
	gotOpts spider.Options
}

func (f *fakeHarvester) Run(_ context.Context, ids []string, opts spider.Options) harvest.Report {
	f.gotIDs = ids
	f.gotOpts = opts
	return harvest.Report{
		RunID: "run-1",
		Sources: []harvest.SourceReport{{
			SourceID: ids[0],
			Records:  1,
			Created:  1,
			Items:    []domain.Record{{SourceID: ids[0], ExternalRef: "X-1", Title: "t"}},
		}},
	}
}

func (f *fakeHarvester) States(context.Context) ([]*domain.SourceState, error) {
	return f.states, f.statesFn
}

func (f *fakeHarvester) Enabled() []string { return f.enabled }

func setup(h *fakeHarvester) *gin.Engine {
	sources := registry.FromSpiders(
		stubSpider{id: "boe", freq: domain.FrequencyDaily},
		stubSpider{id: "edpb", freq: domain.FrequencyMonthly},
	)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("legal_harvester_up 1\n"))
	})
	return api.NewRouter(sources, h, metrics, logger.NewNop())
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, setup(&fakeHarvester{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	rec := do(t, setup(&fakeHarvester{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "legal_harvester_up")
}

func TestListSources(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{
		states:  []*domain.SourceState{{SourceID: "boe", LastRecordCount: 12}},
		enabled: []string{"boe"},
	}
	rec := do(t, setup(h), http.MethodGet, "/api/v1/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []api.SourceView `json:"sources"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "boe", body.Sources[0].ID)
	assert.True(t, body.Sources[0].Enabled)
	require.NotNil(t, body.Sources[0].State)
	assert.Equal(t, 12, body.Sources[0].State.LastRecordCount)
	assert.Equal(t, domain.FrequencyMonthly, body.Sources[1].Frequency)
	assert.False(t, body.Sources[1].Enabled)
	assert.Nil(t, body.Sources[1].State)
}

func TestListSources_StateError(t *testing.T) {
	t.Parallel()

	rec := do(t, setup(&fakeHarvester{statesFn: errors.New("db down")}), http.MethodGet, "/api/v1/sources", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSource(t *testing.T) {
	t.Parallel()

	r := setup(&fakeHarvester{enabled: []string{"edpb"}})

	rec := do(t, r, http.MethodGet, "/api/v1/sources/edpb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v api.SourceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "edpb", v.ID)
	assert.True(t, v.Enabled)

	rec = do(t, r, http.MethodGet, "/api/v1/sources/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHarvest(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{}
	r := setup(h)

	rec := do(t, r, http.MethodPost, "/api/v1/sources/boe/harvest", `{"date_from":"2024-03-01","max_results":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"boe"}, h.gotIDs)
	assert.Equal(t, "2024-03-01", h.gotOpts.DateFrom)
	assert.Equal(t, 10, h.gotOpts.MaxResults)

	var report harvest.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Empty(t, report.Sources[0].Items)
}

func TestHarvest_NoBodyWithItems(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{}
	rec := do(t, setup(h), http.MethodPost, "/api/v1/sources/edpb/harvest?include_items=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report harvest.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Sources[0].Items, 1)
	assert.Equal(t, spider.Options{}, h.gotOpts)
}

func TestHarvest_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown source", "/api/v1/sources/nope/harvest", "", http.StatusNotFound},
		{"malformed json", "/api/v1/sources/boe/harvest", `{"date_from":`, http.StatusBadRequest},
		{"bad date", "/api/v1/sources/boe/harvest", `{"date_from":"yesterday-ish"}`, http.StatusBadRequest},
		{"negative max", "/api/v1/sources/boe/harvest", `{"max_results":-1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &fakeHarvester{}
			rec := do(t, setup(h), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Nil(t, h.gotIDs)
		})
	}
}
