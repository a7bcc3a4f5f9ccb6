package storage_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/storage"
)

// mockTransport implements http.RoundTripper for mocking Elasticsearch responses.
type mockTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	fn       func(req *http.Request) (int, string)
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.bodies = append(t.bodies, string(body))
	t.mu.Unlock()

	status, payload := t.fn(req)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(payload)),
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
	}, nil
}

func newStore(t *testing.T, fn func(req *http.Request) (int, string)) (*storage.RecordStore, *mockTransport) {
	t.Helper()

	transport := &mockTransport{fn: fn}
	client, err := es.NewClient(es.Config{Transport: transport})
	require.NoError(t, err)

	return storage.NewRecordStore(client, "", logger.NewNop()), transport
}

func records() []domain.Record {
	return []domain.Record{
		{SourceID: "boe", ExternalRef: "BOE-A-2024-1", Title: "Ley 1/2024"},
		{SourceID: "boe", ExternalRef: "BOE-A-2024-2", Title: "Real Decreto 2/2024"},
		{SourceID: "tjue", ExternalRef: "ECLI:EU:C:2024:1", Title: "Sentencia", LanguageOriginal: "fr"},
	}
}

func TestStore_CreatedDuplicatesAndFailures(t *testing.T) {
	t.Parallel()

	store, transport := newStore(t, func(req *http.Request) (int, string) {
		return http.StatusOK, `{"errors":true,"items":[
			{"create":{"_id":"boe:BOE-A-2024-1","status":201}},
			{"create":{"_id":"boe:BOE-A-2024-2","status":409,"error":{"type":"version_conflict_engine_exception","reason":"exists"}}},
			{"create":{"_id":"tjue:ECLI:EU:C:2024:1","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}
		]}`
	})

	res, err := store.Store(context.Background(), records())

	require.ErrorIs(t, err, storage.ErrBulkItems)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "BOE-A-2024-1", res.Created[0].ExternalRef)
	assert.Equal(t, 1, res.Duplicates)

	require.Len(t, transport.requests, 1)
	assert.Equal(t, "/_bulk", transport.requests[0].URL.Path)

	var lines []map[string]any
	scanner := bufio.NewScanner(bytes.NewBufferString(transport.bodies[0]))
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 6)

	action := lines[0]["create"].(map[string]any)
	assert.Equal(t, storage.DefaultIndex, action["_index"])
	assert.Equal(t, "boe:BOE-A-2024-1", action["_id"])

	assert.Equal(t, "vigente", lines[1]["status_legal"])
	assert.Equal(t, "es", lines[1]["language_original"])
	assert.Equal(t, storage.ScopeNational, lines[1]["scope"])
	assert.Equal(t, "fr", lines[5]["language_original"])
	assert.Equal(t, storage.ScopeEU, lines[5]["scope"])
}

func TestStore_AllCreated(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"errors":false,"items":[
			{"create":{"status":201}},{"create":{"status":201}},{"create":{"status":201}}
		]}`
	})

	res, err := store.Store(context.Background(), records())
	require.NoError(t, err)
	assert.Len(t, res.Created, 3)
	assert.Zero(t, res.Duplicates)
}

func TestStore_RequestError(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, func(*http.Request) (int, string) {
		return http.StatusBadRequest, `{"error":{"type":"illegal_argument_exception"}}`
	})

	res, err := store.Store(context.Background(), records())
	require.Error(t, err)
	assert.Empty(t, res.Created)
}

func TestStore_NoRecordsSkipsRequest(t *testing.T) {
	t.Parallel()

	store, transport := newStore(t, func(*http.Request) (int, string) { return http.StatusOK, `{}` })

	res, err := store.Store(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Empty(t, transport.requests)
}

func TestEnsureIndex(t *testing.T) {
	t.Parallel()

	store, transport := newStore(t, func(req *http.Request) (int, string) {
		if req.Method == http.MethodHead {
			return http.StatusNotFound, ``
		}
		return http.StatusOK, `{"acknowledged":true}`
	})

	require.NoError(t, store.EnsureIndex(context.Background()))
	require.Len(t, transport.requests, 2)
	assert.Equal(t, http.MethodPut, transport.requests[1].Method)
	assert.Contains(t, transport.bodies[1], `"dynamic":"strict"`)
}

func TestEnsureIndex_Exists(t *testing.T) {
	t.Parallel()

	store, transport := newStore(t, func(*http.Request) (int, string) { return http.StatusOK, `` })

	require.NoError(t, store.EnsureIndex(context.Background()))
	assert.Len(t, transport.requests, 1)
}

func TestScopeOf(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"tjue", "eurlex", "tedh", "edpb"} {
		assert.Equal(t, storage.ScopeEU, storage.ScopeOf(id), id)
	}
	for _, id := range []string{"boe", "cendoj", "dgt", "teac"} {
		assert.Equal(t, storage.ScopeNational, storage.ScopeOf(id), id)
	}
}
