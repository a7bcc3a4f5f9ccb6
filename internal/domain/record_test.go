package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/domain"
)

func TestRecord_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record domain.Record
		want   bool
	}{
		{"complete", domain.Record{ExternalRef: "BOE-A-2024-1", Title: "Ley 1/2024"}, true},
		{"missing ref", domain.Record{Title: "Ley 1/2024"}, false},
		{"blank ref", domain.Record{ExternalRef: "  ", Title: "Ley 1/2024"}, false},
		{"missing title", domain.Record{ExternalRef: "BOE-A-2024-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.record.Valid())
		})
	}
}

func TestRecord_DedupKey(t *testing.T) {
	t.Parallel()

	r := domain.Record{SourceID: "tedh", ExternalRef: "12345/20"}
	assert.Equal(t, "tedh:12345/20", r.DedupKey())
}

func TestFrequency_Windows(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, domain.FrequencyDaily.LookbackDays())
	assert.Equal(t, 7, domain.FrequencyWeekly.LookbackDays())
	assert.Equal(t, 30, domain.FrequencyMonthly.LookbackDays())
	assert.Equal(t, 7*24*time.Hour, domain.FrequencyWeekly.Interval())
	assert.Equal(t, 24*time.Hour, domain.Frequency("hourly").Interval())
}

func TestFrequency_IsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, domain.FrequencyWeekly.IsDue(time.Time{}, now))
	assert.False(t, domain.FrequencyWeekly.IsDue(now.Add(-6*24*time.Hour), now))
	assert.True(t, domain.FrequencyWeekly.IsDue(now.Add(-7*24*time.Hour), now))
	assert.True(t, domain.FrequencyDaily.IsDue(now.Add(-25*time.Hour), now))
}

func TestSourceState_Apply(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	var st domain.SourceState
	assert.True(t, st.LastSync().IsZero())

	st.Apply(domain.RunResult{At: at, Records: 0})
	st.Apply(domain.RunResult{At: at, Records: 0})
	assert.Equal(t, 2, st.ConsecutiveEmpty)
	assert.Equal(t, at, st.LastSync())

	msg := "index unavailable"
	st.Apply(domain.RunResult{At: at, Records: 5, New: 3, Err: &msg})
	assert.Equal(t, 0, st.ConsecutiveEmpty)
	assert.Equal(t, int64(3), st.TotalDocuments)
	assert.Equal(t, 5, st.LastRecordCount)
	assert.Equal(t, 1, st.ErrorCount)
	require.NotNil(t, st.LastError)
	assert.Equal(t, msg, *st.LastError)

	st.Apply(domain.RunResult{At: at, Records: 1, New: 1})
	assert.Nil(t, st.LastError)
	assert.Equal(t, int64(4), st.TotalDocuments)
}
