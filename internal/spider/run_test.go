package spider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider/spidertest"
)

func window() spider.Window {
	return spider.Options{}.Resolve(domain.FrequencyDaily, 10, spidertest.Now)
}

func TestRun_DropsInvalidRecords(t *testing.T) {
	t.Parallel()

	log, _ := spidertest.Logger()
	records := spider.Run(context.Background(), log, window(), func(context.Context, spider.Window) ([]domain.Record, error) {
		return []domain.Record{
			{ExternalRef: "A-1", Title: "kept"},
			{ExternalRef: "", Title: "no ref"},
			{ExternalRef: "A-2", Title: "   "},
			{ExternalRef: " A-3 ", Title: "trimmed", FullText: "should be cleared"},
		}, nil
	})

	require.Len(t, records, 2)
	assert.Equal(t, "A-1", records[0].ExternalRef)
	assert.Equal(t, "A-3", records[1].ExternalRef)
	assert.Empty(t, records[1].FullText)
}

func TestRun_CapsAtMaxResults(t *testing.T) {
	t.Parallel()

	log, _ := spidertest.Logger()
	w := window()
	w.MaxResults = 2

	records := spider.Run(context.Background(), log, w, func(context.Context, spider.Window) ([]domain.Record, error) {
		return []domain.Record{
			{ExternalRef: "1", Title: "a"},
			{ExternalRef: "2", Title: "b"},
			{ExternalRef: "3", Title: "c"},
		}, nil
	})

	assert.Len(t, records, 2)
}

func TestRun_RecoversPanics(t *testing.T) {
	t.Parallel()

	log, logs := spidertest.Logger()

	var records []domain.Record
	require.NotPanics(t, func() {
		records = spider.Run(context.Background(), log, window(), func(context.Context, spider.Window) ([]domain.Record, error) {
			panic("boom")
		})
	})

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRun_LogsByFailureTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		level    zapcore.Level
		message  string
		severity string
	}{
		{
			name:    "transport",
			err:     fetch.ClassifyHTTPStatus(503, "https://example.test/feed"),
			level:   zapcore.ErrorLevel,
			message: "transport failure",
		},
		{
			name:    "parse",
			err:     spider.NewParseError("json", errors.New("unexpected EOF")),
			level:   zapcore.WarnLevel,
			message: "malformed payload",
		},
		{
			name:     "no entries",
			err:      spider.ErrNoEntries,
			level:    zapcore.InfoLevel,
			message:  "no entries found in response, possible schema change",
			severity: "notice",
		},
		{
			name:    "unexpected",
			err:     errors.New("something else"),
			level:   zapcore.ErrorLevel,
			message: "unexpected crawl failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, logs := spidertest.Logger()
			records := spider.Run(context.Background(), log, window(), func(context.Context, spider.Window) ([]domain.Record, error) {
				return nil, tt.err
			})

			assert.NotNil(t, records)
			assert.Empty(t, records)

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			if tt.severity != "" {
				assert.Equal(t, tt.severity, entries[0].ContextMap()["severity"])
			}
		})
	}
}

func TestRun_TransportFailureLogsURL(t *testing.T) {
	t.Parallel()

	log, logs := spidertest.Logger()
	spider.Run(context.Background(), log, window(), func(context.Context, spider.Window) ([]domain.Record, error) {
		return nil, fetch.ClassifyHTTPStatus(500, "https://example.test/a")
	})

	entries := logs.FilterMessage("transport failure").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.test/a", entries[0].ContextMap()["url"])
}

func TestRun_CancelledRunIsNotATransportFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, logs := spidertest.Logger()
	records := spider.Run(ctx, log, window(), func(ctx context.Context, _ spider.Window) ([]domain.Record, error) {
		return nil, fetch.ClassifyNetworkError(ctx.Err(), "https://example.test/a")
	})

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, logs.FilterMessage("transport failure").Len())

	entries := logs.FilterMessage("crawl cancelled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestOptionsResolve(t *testing.T) {
	t.Parallel()

	w := spider.Options{}.Resolve(domain.FrequencyWeekly, 200, spidertest.Now)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), w.To)
	assert.Equal(t, 200, w.MaxResults)

	w = spider.Options{DateFrom: "01/02/2024", DateTo: "2024-02-10", MaxResults: 5}.
		Resolve(domain.FrequencyMonthly, 100, spidertest.Now)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), w.To)
	assert.Equal(t, 5, w.MaxResults)

	w = spider.Options{DateFrom: "not a date"}.Resolve(domain.FrequencyMonthly, 100, spidertest.Now)
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), w.From)
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	cfg := spider.StaticConfig{"boe": "https://mirror.test/"}
	assert.Equal(t, "https://mirror.test/", spider.BaseURL(cfg, "boe", "https://default.test/"))
	assert.Equal(t, "https://default.test/", spider.BaseURL(cfg, "dgt", "https://default.test/"))
	assert.Equal(t, "https://default.test/", spider.BaseURL(nil, "dgt", "https://default.test/"))
}
